package teaui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/controller"
)

// screen is an overlay stacked above the main menu. The top screen receives
// every key press until it reports done.
type screen interface {
	ID() string
	Init() tea.Cmd
	Update(m *Model, msg tea.Msg) (done bool, cmd tea.Cmd)
	View(m *Model) string
}

type base struct {
	id    string
	title string
}

func newBase(title string) base {
	return base{id: uuid.NewString(), title: title}
}

func (b base) ID() string { return b.id }

func (b base) Init() tea.Cmd { return nil }

// info

type infoScreen struct {
	base
	text string
}

func newInfoScreen(text string) *infoScreen {
	return &infoScreen{base: newBase("Info"), text: text}
}

func (s *infoScreen) Update(_ *Model, msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "esc", "q", " ":
			return true, nil
		}
	}
	return false, nil
}

func (s *infoScreen) View(m *Model) string {
	body := wordwrap.String(s.text, m.contentWidth())
	return m.theme.Dialog.Render(m.theme.Title.Render(s.title) + "\n\n" + body + "\n\n" + m.theme.Help.Render("enter: close"))
}

// confirm

type confirmScreen struct {
	base
	question string
	yes      controller.Signal
}

func newConfirmScreen(title, question string, yes controller.Signal) *confirmScreen {
	return &confirmScreen{base: newBase(title), question: question, yes: yes}
}

func (s *confirmScreen) Update(m *Model, msg tea.Msg) (bool, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch k.String() {
	case "y", "Y", "enter":
		m.push(s.yes)
		return true, nil
	case "n", "N", "esc", "q":
		return true, nil
	}
	return false, nil
}

func (s *confirmScreen) View(m *Model) string {
	body := wordwrap.String(s.question, m.contentWidth())
	return m.theme.Dialog.Render(m.theme.Title.Render(s.title) + "\n\n" + body + "\n\n" + m.theme.Help.Render("y: yes  n: no"))
}

// form

type formField struct {
	name      string
	label     string
	multiline bool
	input     textinput.Model
	area      textarea.Model
}

func newInputField(name, label, value string, secret bool) *formField {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.Width = 60
	ti.SetValue(value)
	if secret {
		ti.EchoMode = textinput.EchoPassword
	}
	return &formField{name: name, label: label, input: ti}
}

func newAreaField(name, label, value string) *formField {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(60)
	ta.SetHeight(6)
	ta.SetValue(value)
	return &formField{name: name, label: label, multiline: true, area: ta}
}

func (f *formField) value() string {
	if f.multiline {
		return f.area.Value()
	}
	return f.input.Value()
}

func (f *formField) setValue(v string) {
	if f.multiline {
		f.area.SetValue(v)
		return
	}
	f.input.SetValue(v)
}

func (f *formField) focus() tea.Cmd {
	if f.multiline {
		return f.area.Focus()
	}
	return f.input.Focus()
}

func (f *formField) blur() {
	if f.multiline {
		f.area.Blur()
		return
	}
	f.input.Blur()
}

func (f *formField) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if f.multiline {
		f.area, cmd = f.area.Update(msg)
		return cmd
	}
	f.input, cmd = f.input.Update(msg)
	return cmd
}

func (f *formField) view() string {
	if f.multiline {
		return f.area.View()
	}
	return f.input.View()
}

// formScreen edits named fields. Values are handed to submit keyed by field
// name, never by position.
type formScreen struct {
	base
	fields  []*formField
	focused int
	submit  func(values map[string]string) error
	actions map[string]formAction
	footer  func() string
}

type formAction struct {
	help string
	run  func(s *formScreen) error
}

func newFormScreen(title string, fields []*formField, submit func(map[string]string) error) *formScreen {
	return &formScreen{base: newBase(title), fields: fields, submit: submit, actions: map[string]formAction{}}
}

func (s *formScreen) Init() tea.Cmd {
	if len(s.fields) == 0 {
		return nil
	}
	return tea.Batch(s.fields[s.focused].focus(), textinput.Blink)
}

func (s *formScreen) values() map[string]string {
	v := make(map[string]string, len(s.fields))
	for _, f := range s.fields {
		v[f.name] = f.value()
	}
	return v
}

func (s *formScreen) field(name string) *formField {
	for _, f := range s.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

func (s *formScreen) move(delta int) tea.Cmd {
	if len(s.fields) == 0 {
		return nil
	}
	s.fields[s.focused].blur()
	s.focused = (s.focused + delta + len(s.fields)) % len(s.fields)
	return s.fields[s.focused].focus()
}

func (s *formScreen) Update(m *Model, msg tea.Msg) (bool, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		if len(s.fields) == 0 {
			return false, nil
		}
		return false, s.fields[s.focused].update(msg)
	}
	switch k.String() {
	case "esc":
		return true, nil
	case "tab":
		return false, s.move(1)
	case "shift+tab":
		return false, s.move(-1)
	case "ctrl+s":
		if err := s.submit(s.values()); err != nil {
			return false, m.open(newInfoScreen(err.Error()))
		}
		return true, nil
	case "enter":
		if len(s.fields) > 0 && !s.fields[s.focused].multiline {
			return false, s.move(1)
		}
	}
	if a, ok := s.actions[k.String()]; ok {
		if err := a.run(s); err != nil {
			return false, m.open(newInfoScreen(err.Error()))
		}
		return false, nil
	}
	if len(s.fields) == 0 {
		return false, nil
	}
	return false, s.fields[s.focused].update(msg)
}

func (s *formScreen) View(m *Model) string {
	lines := []string{m.theme.Title.Render(s.title), ""}
	for i, f := range s.fields {
		label := m.theme.Label.Render(f.label)
		if i == s.focused {
			label = m.theme.Focused.Render(f.label)
		}
		lines = append(lines, label, f.view(), "")
	}
	if s.footer != nil {
		lines = append(lines, m.theme.Muted.Render(wordwrap.String(s.footer(), m.contentWidth())), "")
	}
	var extra []string
	for key, a := range s.actions {
		extra = append(extra, fmt.Sprintf("%s: %s", key, a.help))
	}
	sort.Strings(extra)
	help := append([]string{"tab: next", "ctrl+s: save"}, extra...)
	help = append(help, "esc: cancel")
	lines = append(lines, m.theme.Help.Render(strings.Join(help, "  ")))
	return m.theme.Panel.Render(strings.Join(lines, "\n"))
}

// select

type selectItem struct {
	key   container.Identity
	title string
	desc  string
}

func (i selectItem) Title() string       { return i.title }
func (i selectItem) Description() string { return i.desc }
func (i selectItem) FilterValue() string { return i.title }

// selectScreen lists records; each bound key turns the selected record's
// identity into a signal and closes the list.
type selectScreen struct {
	base
	list list.Model
	keys map[string]func(container.Identity) controller.Signal
	help string
}

func newSelectScreen(title string, items []selectItem, width, height int) *selectScreen {
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, it)
	}
	d := list.NewDefaultDelegate()
	d.SetSpacing(0)
	l := list.New(li, d, width, height)
	l.Title = title
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	return &selectScreen{base: newBase(title), list: l, keys: map[string]func(container.Identity) controller.Signal{}}
}

func (s *selectScreen) selected() container.Identity {
	it, ok := s.list.SelectedItem().(selectItem)
	if !ok {
		return ""
	}
	return it.key
}

func (s *selectScreen) Update(m *Model, msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && s.list.FilterState() != list.Filtering {
		switch k.String() {
		case "esc", "q":
			return true, nil
		}
		if fn, ok := s.keys[k.String()]; ok {
			m.push(fn(s.selected()))
			return true, nil
		}
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return false, cmd
}

func (s *selectScreen) View(m *Model) string {
	return s.list.View() + "\n" + m.theme.Help.Render(s.help)
}

// check

type checkItem struct {
	key     container.Identity
	text    string
	group   string
	checked bool
}

// checkScreen toggles a set of items, optionally under an editable label.
type checkScreen struct {
	base
	label        *textinput.Model
	labelFocused bool
	items        []checkItem
	cursor       int
	submit       func(label string, items []checkItem)
	help         string
}

func newCheckScreen(title string, items []checkItem, submit func(string, []checkItem)) *checkScreen {
	return &checkScreen{base: newBase(title), items: items, submit: submit}
}

func (s *checkScreen) withLabel(value string) *checkScreen {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 128
	ti.Width = 40
	ti.SetValue(value)
	s.label = &ti
	s.labelFocused = true
	return s
}

func (s *checkScreen) Init() tea.Cmd {
	if s.label != nil && s.labelFocused {
		return tea.Batch(s.label.Focus(), textinput.Blink)
	}
	return nil
}

func (s *checkScreen) Update(_ *Model, msg tea.Msg) (bool, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		if s.label != nil && s.labelFocused {
			var cmd tea.Cmd
			*s.label, cmd = s.label.Update(msg)
			return false, cmd
		}
		return false, nil
	}
	switch k.String() {
	case "esc":
		return true, nil
	case "tab", "shift+tab":
		if s.label == nil {
			return false, nil
		}
		s.labelFocused = !s.labelFocused
		if s.labelFocused {
			return false, s.label.Focus()
		}
		s.label.Blur()
		return false, nil
	}
	if s.labelFocused {
		if k.String() == "enter" {
			s.labelFocused = false
			s.label.Blur()
			return false, nil
		}
		var cmd tea.Cmd
		*s.label, cmd = s.label.Update(msg)
		return false, cmd
	}
	switch k.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case " ", "x":
		if len(s.items) > 0 {
			s.items[s.cursor].checked = !s.items[s.cursor].checked
		}
	case "enter":
		label := ""
		if s.label != nil {
			label = s.label.Value()
		}
		s.submit(label, s.items)
		return true, nil
	}
	return false, nil
}

func (s *checkScreen) View(m *Model) string {
	lines := []string{m.theme.Title.Render(s.title), ""}
	if s.label != nil {
		label := m.theme.Label.Render("Label")
		if s.labelFocused {
			label = m.theme.Focused.Render("Label")
		}
		lines = append(lines, label, s.label.View(), "")
	}
	if len(s.items) == 0 {
		lines = append(lines, m.theme.Muted.Render("(nothing to choose from)"))
	}
	rows := m.listHeight()
	start := 0
	if s.cursor >= rows {
		start = s.cursor - rows + 1
	}
	group := ""
	for i := start; i < len(s.items) && i < start+rows; i++ {
		it := s.items[i]
		if it.group != group && it.group != "" {
			group = it.group
			lines = append(lines, m.theme.Label.Render(group))
		}
		box := "[ ]"
		if it.checked {
			box = m.theme.Checked.Render("[x]")
		}
		pointer := "  "
		if i == s.cursor && !s.labelFocused {
			pointer = m.theme.Cursor.Render("→ ")
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", pointer, box, it.text))
	}
	lines = append(lines, "", m.theme.Help.Render(s.help))
	return m.theme.Panel.Render(strings.Join(lines, "\n"))
}

func checkedKeys(items []checkItem, group string) []container.Identity {
	var keys []container.Identity
	for _, it := range items {
		if it.checked && it.group == group {
			keys = append(keys, it.key)
		}
	}
	return keys
}
