package teaui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/controller"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/tag"
)

const attachField = "attach"

// present opens the screen a controller message asks for.
func (m *Model) present(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case infoMsg:
		m.setStatus("%s", msg.info)
		return m.open(newInfoScreen(msg.info)), true
	case settingsFormMsg:
		return m.open(m.settingsForm(msg.settings)), true
	case personaFormMsg:
		return m.open(m.personaForm(msg.key, msg.persona)), true
	case selectPersonaMsg:
		return m.open(m.selectPersona(msg.people)), true
	case removePersonaMsg:
		return m.open(newConfirmScreen("Remove persona",
			fmt.Sprintf("Remove %s? Tags lose this member too.", msg.persona),
			controller.RemovePersona{Key: msg.persona.Identity()})), true
	case tagFormMsg:
		return m.open(m.tagForm(msg.key, msg.tag, msg.people)), true
	case selectTagMsg:
		return m.open(m.selectTag(msg.tags)), true
	case removeTagMsg:
		return m.open(newConfirmScreen("Remove tag",
			fmt.Sprintf("Remove tag %s with %d member(s)?", msg.tag.Label, len(msg.tag.Persona)),
			controller.RemoveTag{Key: msg.tag.Identity()})), true
	case letterFormMsg:
		return m.open(m.letterForm(msg.key, msg.letter)), true
	case selectLetterMsg:
		return m.open(m.selectLetter(msg.letters)), true
	case sendLetterMsg:
		return m.open(m.sendForm(msg.letter, msg.people, msg.tags)), true
	case removeLetterMsg:
		return m.open(newConfirmScreen("Remove letter",
			fmt.Sprintf("Remove letter %q?", topicOf(msg.letter)),
			controller.RemoveLetter{Key: msg.letter.Identity()})), true
	}
	return nil, false
}

func (m *Model) settingsForm(s settings.Settings) *formScreen {
	push := m.push
	var fields []*formField
	for _, f := range settings.Fields() {
		v, _ := s.Get(f)
		if f.Multiline() {
			fields = append(fields, newAreaField(string(f), f.Label(), v))
			continue
		}
		fields = append(fields, newInputField(string(f), f.Label(), v, f.Secret()))
	}
	return newFormScreen("Settings", fields, func(values map[string]string) error {
		edited := s
		for _, f := range settings.Fields() {
			if err := edited.Set(f, values[string(f)]); err != nil {
				return err
			}
		}
		push(controller.SaveSettings{Settings: edited})
		return nil
	})
}

func (m *Model) personaForm(key container.Identity, p persona.Persona) *formScreen {
	push := m.push
	title := "New persona"
	if key != "" {
		title = "Edit " + key
	}
	var fields []*formField
	for _, f := range persona.Fields() {
		v, _ := p.Get(f)
		fields = append(fields, newInputField(string(f), f.Label(), v, false))
	}
	return newFormScreen(title, fields, func(values map[string]string) error {
		edited := p
		for _, f := range persona.Fields() {
			if err := edited.Set(f, values[string(f)]); err != nil {
				return err
			}
		}
		push(controller.CompleteEditPersona{Key: key, Persona: edited})
		return nil
	})
}

func (m *Model) selectPersona(people []persona.Persona) *selectScreen {
	items := make([]selectItem, 0, len(people))
	for _, p := range people {
		items = append(items, selectItem{key: p.Identity(), title: p.Identity(), desc: p.Email})
	}
	s := newSelectScreen(fmt.Sprintf("Personas (%d)", len(people)), items, m.contentWidth(), m.listHeight())
	s.keys["enter"] = func(k container.Identity) controller.Signal { return controller.EditPersona{Key: k} }
	s.keys["d"] = func(k container.Identity) controller.Signal { return controller.RemovePersonaAlert{Key: k} }
	s.help = "enter: edit  d: remove  /: filter  esc: back"
	return s
}

func (m *Model) tagForm(key container.Identity, t tag.Tag, people []container.Identity) *checkScreen {
	push := m.push
	items := make([]checkItem, 0, len(people))
	for _, id := range people {
		items = append(items, checkItem{key: id, text: id, checked: t.Has(id)})
	}
	title := "New tag"
	if key != "" {
		title = "Edit tag " + key
	}
	s := newCheckScreen(title, items, func(label string, items []checkItem) {
		edited := t
		edited.Label = label
		edited.SetPersona(checkedKeys(items, ""))
		push(controller.CompleteEditTag{Key: key, Tag: edited})
	}).withLabel(t.Label)
	s.help = "tab: label/members  space: toggle  enter: save  esc: cancel"
	return s
}

func (m *Model) selectTag(tags []tag.Tag) *selectScreen {
	items := make([]selectItem, 0, len(tags))
	for _, t := range tags {
		items = append(items, selectItem{key: t.Identity(), title: t.Label, desc: fmt.Sprintf("%d member(s)", len(t.Persona))})
	}
	s := newSelectScreen(fmt.Sprintf("Tags (%d)", len(tags)), items, m.contentWidth(), m.listHeight())
	s.keys["enter"] = func(k container.Identity) controller.Signal { return controller.EditTag{Key: k} }
	s.keys["d"] = func(k container.Identity) controller.Signal { return controller.RemoveTagAlert{Key: k} }
	s.help = "enter: edit  d: remove  /: filter  esc: back"
	return s
}

func (m *Model) letterForm(key container.Identity, l letter.Letter) *formScreen {
	push := m.push
	title := "New letter"
	if key != "" {
		title = "Edit letter"
	}
	draft := l.Clone()
	fields := []*formField{
		newInputField(string(letter.FieldTopic), "Topic", draft.Topic, false),
		newAreaField(string(letter.FieldText), "Text", draft.Text),
		newInputField(attachField, "Attach file (path)", "", false),
	}
	s := newFormScreen(title, fields, func(values map[string]string) error {
		for _, f := range []letter.Field{letter.FieldTopic, letter.FieldText} {
			if err := draft.Set(f, values[string(f)]); err != nil {
				return err
			}
		}
		// A path typed but not attached yet goes with the letter.
		if path := strings.TrimSpace(values[attachField]); path != "" {
			if err := draft.AttachFile(path); err != nil {
				return err
			}
		}
		push(controller.CompleteEditLetter{Key: key, Letter: draft.Clone()})
		return nil
	})
	s.actions["ctrl+a"] = formAction{help: "attach", run: func(s *formScreen) error {
		f := s.field(attachField)
		if err := draft.AttachFile(f.value()); err != nil {
			return err
		}
		f.setValue("")
		return nil
	}}
	s.actions["ctrl+x"] = formAction{help: "clear attachments", run: func(*formScreen) error {
		draft.ClearAttachment()
		return nil
	}}
	s.footer = func() string { return draft.AttachmentInfo() }
	return s
}

func (m *Model) selectLetter(letters []letter.Letter) *selectScreen {
	items := make([]selectItem, 0, len(letters))
	for _, l := range letters {
		items = append(items, selectItem{
			key:   l.Identity(),
			title: topicOf(l),
			desc:  l.Time.Local().Format(time.DateTime) + " " + l.AttachmentInfo(),
		})
	}
	s := newSelectScreen(fmt.Sprintf("Letters (%d)", len(letters)), items, m.contentWidth(), m.listHeight())
	s.keys["enter"] = func(k container.Identity) controller.Signal { return controller.EditLetter{Key: k} }
	s.keys["s"] = func(k container.Identity) controller.Signal { return controller.OpenLetterToSend{Key: k} }
	s.keys["d"] = func(k container.Identity) controller.Signal { return controller.RemoveLetterAlert{Key: k} }
	s.help = "enter: edit  s: send  d: remove  /: filter  esc: back"
	return s
}

const (
	groupPersona = "Personas"
	groupTag     = "Tags"
)

func (m *Model) sendForm(l letter.Letter, people []persona.Persona, tags []tag.Tag) *checkScreen {
	push := m.push
	items := make([]checkItem, 0, len(people)+len(tags))
	for _, p := range people {
		items = append(items, checkItem{key: p.Identity(), text: p.String(), group: groupPersona})
	}
	for _, t := range tags {
		items = append(items, checkItem{key: t.Identity(), text: fmt.Sprintf("%s (%d)", t.Label, len(t.Persona)), group: groupTag})
	}
	key := l.Identity()
	s := newCheckScreen("Send "+topicOf(l), items, func(_ string, items []checkItem) {
		push(controller.SendLetter{
			Key:     key,
			Persona: checkedKeys(items, groupPersona),
			Tags:    checkedKeys(items, groupTag),
		})
	})
	s.help = "space: toggle  enter: send  esc: cancel"
	return s
}

func topicOf(l letter.Letter) string {
	if l.Topic == "" {
		return "(no topic)"
	}
	return l.Topic
}
