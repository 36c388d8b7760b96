package controller

import (
	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/tag"
)

// Group is the command surface a signal belongs to.
type Group int

const (
	GroupLifecycle Group = iota
	GroupPersona
	GroupTag
	GroupLetter
)

func (g Group) String() string {
	switch g {
	case GroupLifecycle:
		return "lifecycle"
	case GroupPersona:
		return "persona"
	case GroupTag:
		return "tag"
	case GroupLetter:
		return "letter"
	}
	return "unknown"
}

// Signal is a command for the dispatch loop. The set of signals is closed:
// only the types in this package implement it.
type Signal interface {
	group() Group
}

type lifecycle struct{}

func (lifecycle) group() Group { return GroupLifecycle }

type personaCmd struct{}

func (personaCmd) group() Group { return GroupPersona }

type tagCmd struct{}

func (tagCmd) group() Group { return GroupTag }

type letterCmd struct{}

func (letterCmd) group() Group { return GroupLetter }

// GroupOf reports the command surface of s.
func GroupOf(s Signal) Group {
	return s.group()
}

// Lifecycle signals.
type (
	// Noop does nothing.
	Noop struct{ lifecycle }

	// Log shows Info to the user.
	Log struct {
		lifecycle
		Info string
	}

	// Quit saves everything and stops the loop.
	Quit struct{ lifecycle }

	// OpenSettings opens the settings form.
	OpenSettings struct{ lifecycle }

	// SaveSettings replaces the settings and writes the settings file.
	SaveSettings struct {
		lifecycle
		Settings settings.Settings
	}

	// ReloadSettings re-reads the settings file after it changed on disk.
	ReloadSettings struct{ lifecycle }
)

// Persona signals.
type (
	NewPersona struct{ personaCmd }

	// ImportPersona upserts a batch of parsed personas. Skipped is the number
	// of rows the parser rejected, for the status line.
	ImportPersona struct {
		personaCmd
		Persona []persona.Persona
		Skipped int
	}

	// ImportPersonaFile parses the TSV file at Path and enqueues ImportPersona.
	ImportPersonaFile struct {
		personaCmd
		Path string
	}

	SelectPersona struct{ personaCmd }

	EditPersona struct {
		personaCmd
		Key container.Identity
	}

	// CompleteEditPersona commits an edit that started from Key. Key is
	// empty for a new persona.
	CompleteEditPersona struct {
		personaCmd
		Key     container.Identity
		Persona persona.Persona
	}

	RemovePersonaAlert struct {
		personaCmd
		Key container.Identity
	}

	RemovePersona struct {
		personaCmd
		Key container.Identity
	}
)

// Tag signals.
type (
	NewTag struct{ tagCmd }

	SelectTag struct{ tagCmd }

	EditTag struct {
		tagCmd
		Key container.Identity
	}

	CompleteEditTag struct {
		tagCmd
		Key container.Identity
		Tag tag.Tag
	}

	RemoveTagAlert struct {
		tagCmd
		Key container.Identity
	}

	RemoveTag struct {
		tagCmd
		Key container.Identity
	}
)

// Letter signals.
type (
	NewLetter struct{ letterCmd }

	SelectLetter struct{ letterCmd }

	EditLetter struct {
		letterCmd
		Key container.Identity
	}

	CompleteEditLetter struct {
		letterCmd
		Key    container.Identity
		Letter letter.Letter
	}

	OpenLetterToSend struct {
		letterCmd
		Key container.Identity
	}

	// SendLetter delivers the letter at Key to the listed personas and to
	// every member of the listed tags.
	SendLetter struct {
		letterCmd
		Key     container.Identity
		Persona []container.Identity
		Tags    []container.Identity
	}

	RemoveLetterAlert struct {
		letterCmd
		Key container.Identity
	}

	RemoveLetter struct {
		letterCmd
		Key container.Identity
	}
)
