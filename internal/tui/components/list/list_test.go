package list_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/tui/components/list"
	"go.followtheprocess.codes/test"
)

func requests() []resolver.Request {
	return []resolver.Request{
		{Name: "list-users", Method: "GET", URL: "http://localhost/users"},
		{Name: "#2", Method: "POST", URL: "http://localhost/users"},
	}
}

// update sends msg to model, returning the updated list model.
func update(t *testing.T, model tea.Model, msg tea.Msg) list.Model {
	t.Helper()

	updated, _ := model.Update(msg)
	got, ok := updated.(list.Model)
	test.True(t, ok, test.Context("Update returned %T, not a list.Model", updated))

	return got
}

func TestSelect(t *testing.T) {
	model := list.New("Requests", requests())

	model = update(t, model, tea.WindowSizeMsg{Width: 80, Height: 24})
	model = update(t, model, tea.KeyMsg{Type: tea.KeyDown})
	model = update(t, model, tea.KeyMsg{Type: tea.KeyEnter})

	test.Equal(t, model.Selected(), "#2")
}

func TestQuit(t *testing.T) {
	model := list.New("Requests", requests())

	model = update(t, model, tea.WindowSizeMsg{Width: 80, Height: 24})
	model = update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	test.Equal(t, model.Selected(), "", test.Context("quitting should select nothing"))
}

func TestView(t *testing.T) {
	model := list.New("Requests in users.ns", requests())
	model = update(t, model, tea.WindowSizeMsg{Width: 80, Height: 24})

	view := model.View()
	test.True(t, len(view) > 0, test.Context("empty view"))
}
