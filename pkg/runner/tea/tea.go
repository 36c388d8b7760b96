// Package teaui is the Bubble Tea front end. The controller drives it through
// Presenter, which turns each call into a program message.
package teaui

import (
	tea "github.com/charmbracelet/bubbletea"

	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/tag"
)

// messages from the controller
type (
	closeMsg        struct{}
	infoMsg         struct{ info string }
	settingsFormMsg struct{ settings settings.Settings }
	personaFormMsg  struct {
		key     container.Identity
		persona persona.Persona
	}
	selectPersonaMsg struct{ people []persona.Persona }
	removePersonaMsg struct{ persona persona.Persona }
	tagFormMsg       struct {
		key    container.Identity
		tag    tag.Tag
		people []container.Identity
	}
	selectTagMsg   struct{ tags []tag.Tag }
	removeTagMsg   struct{ tag tag.Tag }
	letterFormMsg  struct {
		key    container.Identity
		letter letter.Letter
	}
	selectLetterMsg struct{ letters []letter.Letter }
	sendLetterMsg   struct {
		letter letter.Letter
		people []persona.Persona
		tags   []tag.Tag
	}
	removeLetterMsg struct{ letter letter.Letter }
)

// Presenter forwards controller requests to a running program.
type Presenter struct {
	send func(tea.Msg)
}

// NewPresenter returns a presenter delivering through send, usually
// (*tea.Program).Send.
func NewPresenter(send func(tea.Msg)) *Presenter {
	return &Presenter{send: send}
}

func (p *Presenter) PresentInfo(info string) { p.send(infoMsg{info: info}) }

func (p *Presenter) SettingsForm(s settings.Settings) { p.send(settingsFormMsg{settings: s}) }

func (p *Presenter) PersonaForm(key container.Identity, v persona.Persona) {
	p.send(personaFormMsg{key: key, persona: v})
}

func (p *Presenter) SelectPersonaForm(people []persona.Persona) {
	p.send(selectPersonaMsg{people: people})
}

func (p *Presenter) RemovePersonaDialog(v persona.Persona) { p.send(removePersonaMsg{persona: v}) }

func (p *Presenter) TagForm(key container.Identity, t tag.Tag, people []container.Identity) {
	p.send(tagFormMsg{key: key, tag: t, people: people})
}

func (p *Presenter) SelectTagForm(tags []tag.Tag) { p.send(selectTagMsg{tags: tags}) }

func (p *Presenter) RemoveTagDialog(t tag.Tag) { p.send(removeTagMsg{tag: t}) }

func (p *Presenter) LetterForm(key container.Identity, l letter.Letter) {
	p.send(letterFormMsg{key: key, letter: l})
}

func (p *Presenter) SelectLetterForm(letters []letter.Letter) {
	p.send(selectLetterMsg{letters: letters})
}

func (p *Presenter) SendLetterForm(l letter.Letter, people []persona.Persona, tags []tag.Tag) {
	p.send(sendLetterMsg{letter: l, people: people, tags: tags})
}

func (p *Presenter) RemoveLetterDialog(l letter.Letter) { p.send(removeLetterMsg{letter: l}) }

func (p *Presenter) Close() { p.send(closeMsg{}) }
