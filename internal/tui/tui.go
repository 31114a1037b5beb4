// Package tui implements the terminal user interface for picking a .ns file and a
// request in it to send.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.followtheprocess.codes/nero/internal/nero"
	"go.followtheprocess.codes/nero/internal/report"
	"go.followtheprocess.codes/nero/internal/tui/components/filepicker"
	"go.followtheprocess.codes/nero/internal/tui/components/list"
)

// Run runs the TUI, this is what happens when users call `nero` with no arguments.
//
// The user picks a .ns file under the current directory, then a request from that
// file which is sent and summarised to stdout. Variables from envFile, if given, are
// defined before the file is resolved.
func Run(ctx context.Context, stdout, stderr io.Writer, envFile string) error {
	model := filepicker.New(".")

	tm, err := tea.NewProgram(&model, tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	final, ok := tm.(filepicker.Model)
	if !ok {
		return fmt.Errorf("tui error, final model was not as expected: %T", tm)
	}

	file := final.Selected()
	if file == "" {
		// User quit without picking anything
		return nil
	}

	app := nero.New(stdout, stderr, false)

	requests, err := app.Requests(file, envFile)
	if err != nil {
		return err
	}

	listModel := list.New("Requests in "+file, requests)

	tm, err = tea.NewProgram(&listModel, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	finalListModel, ok := tm.(list.Model)
	if !ok {
		return fmt.Errorf("tui error, list final model was not as expected: %T", tm)
	}

	request := finalListModel.Selected()
	if request == "" {
		return nil
	}

	return app.Run(ctx, file, nero.RunOptions{
		Output:  report.FormatSummary,
		Only:    request,
		EnvFile: envFile,
	})
}
