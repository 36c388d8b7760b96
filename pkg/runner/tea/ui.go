package teaui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tableflip.dev/pismo/pkg/controller"
)

// menu entry for the main list
type menuItem struct {
	title  string
	desc   string
	signal controller.Signal
}

func (it menuItem) Title() string       { return it.title }
func (it menuItem) Description() string { return it.desc }
func (it menuItem) FilterValue() string { return it.title }

// Model contains UI state. It never touches records directly: user actions
// become signals, and the controller answers with presenter messages.
type Model struct {
	push  func(controller.Signal)
	theme Theme

	menu    list.Model
	screens []screen

	status string

	termWidth  int
	termHeight int
}

// DefaultImportPath is the TSV file offered by the import menu entry.
const DefaultImportPath = "persona.tsv"

// New creates a UI model that sends user actions to push.
func New(push func(controller.Signal), importPath string) Model {
	if importPath == "" {
		importPath = DefaultImportPath
	}
	items := []list.Item{
		menuItem{title: "New persona", desc: "add someone to the address book", signal: controller.NewPersona{}},
		menuItem{title: "Personas", desc: "edit or remove personas", signal: controller.SelectPersona{}},
		menuItem{title: "Import personas", desc: "read " + importPath, signal: controller.ImportPersonaFile{Path: importPath}},
		menuItem{title: "New tag", desc: "group personas under a label", signal: controller.NewTag{}},
		menuItem{title: "Tags", desc: "edit or remove tags", signal: controller.SelectTag{}},
		menuItem{title: "New letter", desc: "compose a letter", signal: controller.NewLetter{}},
		menuItem{title: "Letters", desc: "edit, send or remove letters", signal: controller.SelectLetter{}},
		menuItem{title: "Settings", desc: "mail server and greetings", signal: controller.OpenSettings{}},
		menuItem{title: "Quit", desc: "save and exit", signal: controller.Quit{}},
	}

	d := list.NewDefaultDelegate()
	d.SetSpacing(0)
	l := list.New(items, d, 48, 20)
	l.Title = "pismo"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return Model{
		push:   push,
		theme:  DefaultTheme(),
		menu:   l,
		status: "enter: choose  q: quit",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) top() screen {
	if len(m.screens) == 0 {
		return nil
	}
	return m.screens[len(m.screens)-1]
}

// open stacks s above everything else.
func (m *Model) open(s screen) tea.Cmd {
	m.screens = append(m.screens, s)
	return s.Init()
}

// close removes the screen with the given id wherever it sits in the stack.
func (m *Model) close(id string) {
	m.screens = slices.DeleteFunc(m.screens, func(s screen) bool { return s.ID() == id })
}

// Update handles presenter messages and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		m.applySizes()
		return m, nil
	case closeMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.status = "Saving..."
			m.push(controller.Quit{})
			return m, nil
		}
	}

	if cmd, ok := m.present(msg); ok {
		return m, cmd
	}

	if top := m.top(); top != nil {
		done, cmd := top.Update(&m, msg)
		if done {
			m.close(top.ID())
		}
		return m, cmd
	}

	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			if it, ok := m.menu.SelectedItem().(menuItem); ok {
				m.push(it.signal)
			}
			return m, nil
		case "q", "esc":
			m.status = "Saving..."
			m.push(controller.Quit{})
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// View renders the menu, or the top screen when one is open, above a
// status line.
func (m Model) View() string {
	body := m.menu.View()
	if top := m.top(); top != nil {
		body = top.View(&m)
	}
	depth := ""
	if n := len(m.screens); n > 1 {
		depth = fmt.Sprintf(" [%d open]", n)
	}
	status := m.theme.Status.Render(m.status + depth)
	return lipgloss.JoinVertical(lipgloss.Left, body, "", status)
}

// applySizes recalculates list sizes based on current terminal size.
func (m *Model) applySizes() {
	if m.termWidth == 0 || m.termHeight == 0 {
		return
	}
	m.menu.SetSize(m.contentWidth(), m.listHeight())
	for _, s := range m.screens {
		if sel, ok := s.(*selectScreen); ok {
			sel.list.SetSize(m.contentWidth(), m.listHeight())
		}
	}
}

func (m *Model) contentWidth() int {
	w := m.termWidth - 6
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// listHeight leaves room for titles, help and the status line.
func (m *Model) listHeight() int {
	h := m.termHeight - 8
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = strings.TrimSpace(fmt.Sprintf(format, args...))
}
