// Package theme provides the lipgloss colours and styles shared by nero's terminal
// output, both the run reports and the TUI.
package theme

import (
	"net/http"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours nero draws with.
type Palette struct {
	Red      lipgloss.Color
	Peach    lipgloss.Color
	Yellow   lipgloss.Color
	Green    lipgloss.Color
	Blue     lipgloss.Color
	Mauve    lipgloss.Color
	Text     lipgloss.Color
	Subtext0 lipgloss.Color
	Overlay0 lipgloss.Color
}

// CatppuccinMacchiato is the Catppuccin Macchiato palette.
// See https://catppuccin.com/palette/.
var CatppuccinMacchiato = Palette{
	Red:      lipgloss.Color("#ed8796"),
	Peach:    lipgloss.Color("#f5a97f"),
	Yellow:   lipgloss.Color("#eed49f"),
	Green:    lipgloss.Color("#a6da95"),
	Blue:     lipgloss.Color("#8aadf4"),
	Mauve:    lipgloss.Color("#c6a0f6"),
	Text:     lipgloss.Color("#cad3f5"),
	Subtext0: lipgloss.Color("#a5adcb"),
	Overlay0: lipgloss.Color("#6e738d"),
}

// Styles are the lipgloss styles for each part of nero's output.
type Styles struct {
	Title   lipgloss.Style // Titles e.g. the TUI request list
	Header  lipgloss.Style // Table header row
	Cell    lipgloss.Style // Ordinary table cells
	Border  lipgloss.Style // Table borders
	Method  lipgloss.Style // HTTP methods
	Success lipgloss.Style // 2xx status codes
	Warning lipgloss.Style // 3xx status codes
	Failure lipgloss.Style // Everything else
}

// New returns the [Styles] drawn from palette.
func New(palette Palette) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(palette.Mauve),
		Header:  lipgloss.NewStyle().Bold(true).Foreground(palette.Blue).Padding(0, 1),
		Cell:    lipgloss.NewStyle().Foreground(palette.Text).Padding(0, 1),
		Border:  lipgloss.NewStyle().Foreground(palette.Overlay0),
		Method:  lipgloss.NewStyle().Foreground(palette.Peach).Padding(0, 1),
		Success: lipgloss.NewStyle().Foreground(palette.Green).Padding(0, 1),
		Warning: lipgloss.NewStyle().Foreground(palette.Yellow).Padding(0, 1),
		Failure: lipgloss.NewStyle().Foreground(palette.Red).Padding(0, 1),
	}
}

// Default returns the default [Styles], Catppuccin Macchiato.
func Default() Styles {
	return New(CatppuccinMacchiato)
}

// Status returns the style to render a response status code with.
func (s Styles) Status(code int) lipgloss.Style {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return s.Success
	case code >= http.StatusMultipleChoices && code < http.StatusBadRequest:
		return s.Warning
	default:
		return s.Failure
	}
}
