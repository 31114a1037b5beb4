// Package filepicker wraps the bubbles filepicker to choose the .ns file to run.
package filepicker

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.followtheprocess.codes/nero/internal/theme"
)

const (
	extension    = ".ns"           // The only files that may be picked
	warningAfter = 2 * time.Second // How long a warning stays on screen
)

// Model is the file picker tea Model.
type Model struct {
	picker   filepicker.Model
	help     help.Model
	keys     keyMap
	styles   theme.Styles
	warning  string // Shown when the user picks a file that isn't a .ns file
	selected string // Path of the picked .ns file
	done     bool   // Nothing more to draw
}

// New returns a new [Model] browsing from dir.
func New(dir string) Model {
	styles := theme.Default()

	picker := filepicker.New()
	picker.CurrentDirectory = dir
	picker.AllowedTypes = []string{extension}
	picker.ShowPermissions = false
	picker.Styles.Cursor = styles.Title
	picker.Styles.Selected = styles.Title
	picker.Styles.DisabledFile = styles.Cell.UnsetPadding().Faint(true)

	return Model{
		picker: picker,
		help:   help.New(),
		keys: keyMap{
			picker: picker.KeyMap,
			quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		styles: styles,
	}
}

// Selected returns the path of the picked file, empty if the user quit without
// picking one.
func (m Model) Selected() string {
	return m.selected
}

// keyMap adds a quit binding to the picker's own keys and implements [help.KeyMap].
type keyMap struct {
	picker filepicker.KeyMap
	quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.picker.Up, k.picker.Down, k.picker.Back, k.picker.Select, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.picker.Up, k.picker.Down, k.picker.PageUp, k.picker.PageDown},
		{k.picker.GoToTop, k.picker.GoToLast},
		{k.picker.Back, k.picker.Open, k.picker.Select, k.quit},
	}
}

// clearWarning removes the warning once it has been shown for long enough.
type clearWarning struct{}

// Init implements [tea.Model], reading the starting directory.
func (m Model) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements [tea.Model].
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.done = true
			m.selected = ""
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case clearWarning:
		m.warning = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if picked, path := m.picker.DidSelectDisabledFile(msg); picked {
		m.warning = filepath.Base(path) + " is not a " + extension + " file"
		tick := tea.Tick(warningAfter, func(time.Time) tea.Msg { return clearWarning{} })
		return m, tea.Batch(cmd, tick)
	}

	if picked, path := m.picker.DidSelectFile(msg); picked {
		m.selected = path
		m.done = true
		return m, tea.Quit
	}

	return m, cmd
}

// View implements [tea.Model].
func (m Model) View() string {
	if m.done {
		return ""
	}

	prompt := m.styles.Title.Render("Pick a " + extension + " file:")
	if m.warning != "" {
		prompt = m.styles.Failure.UnsetPadding().Render(m.warning)
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", prompt, m.picker.View(), m.help.View(m.keys))
}
