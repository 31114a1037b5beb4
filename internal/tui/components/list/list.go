// Package list implements a simple bubbletea list component to pick a request to send.
package list

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/theme"
)

// Model is the list tea Model.
type Model struct {
	l        list.Model // The base list bubble
	selected string     // The name of the selected request
}

// New returns a new [Model] listing requests.
func New(title string, requests []resolver.Request) Model {
	items := make([]list.Item, 0, len(requests))
	for _, request := range requests {
		items = append(items, request)
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.Styles.Title = theme.Default().Title

	return Model{
		l: l,
	}
}

// Init helps implement [tea.Model] for [Model].
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates the UI in response to messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Let the list have keys while the user is typing a filter
		if m.l.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if item, ok := m.l.SelectedItem().(resolver.Request); ok {
				m.selected = item.Name
			}

			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.l.SetSize(msg.Width, msg.Height)
	}

	var cmd tea.Cmd

	m.l, cmd = m.l.Update(msg)

	return m, cmd
}

// View renders the UI to the user.
func (m Model) View() string {
	return m.l.View()
}

// Selected returns the name of the picked request, empty if the user quit
// without picking one.
func (m Model) Selected() string {
	return m.selected
}
