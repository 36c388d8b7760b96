package controller

import (
	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/tag"
)

// Presenter is the surface the controller drives. Every record handed over
// is a copy; edits come back as signals carrying the original key.
type Presenter interface {
	PresentInfo(info string)
	SettingsForm(s settings.Settings)

	PersonaForm(key container.Identity, p persona.Persona)
	SelectPersonaForm(people []persona.Persona)
	RemovePersonaDialog(p persona.Persona)

	// TagForm edits t; people lists every persona that can be a member.
	TagForm(key container.Identity, t tag.Tag, people []container.Identity)
	SelectTagForm(tags []tag.Tag)
	RemoveTagDialog(t tag.Tag)

	LetterForm(key container.Identity, l letter.Letter)
	SelectLetterForm(letters []letter.Letter)
	SendLetterForm(l letter.Letter, people []persona.Persona, tags []tag.Tag)
	RemoveLetterDialog(l letter.Letter)

	// Close shuts the presentation down. It is called once, when the
	// loop stops.
	Close()
}
