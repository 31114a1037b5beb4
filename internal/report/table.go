package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"go.followtheprocess.codes/hue"
	"go.followtheprocess.codes/nero/internal/theme"
)

// Table columns.
const (
	columnLabel = iota
	columnMethod
	columnStatus
	columnTime
	columnSize
)

// timeFormat is the layout of the start time in a summary.
const timeFormat = "2006-01-02 15:04:05"

// Table returns the lipgloss table of the results in run, one row per request.
func Table(run Run) *table.Table {
	styles := theme.Default()

	rows := make([][]string, 0, len(run.Results))
	for _, result := range run.Results {
		rows = append(rows, []string{
			result.Name,
			result.Method,
			strconv.Itoa(result.Status),
			fmt.Sprintf("%d ms", result.Elapsed.Milliseconds()),
			humanize.Bytes(uint64(result.Size)),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Border).
		Headers("LABEL", "METHOD", "STATUS", "TIME", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}

			switch col {
			case columnMethod:
				return styles.Method
			case columnStatus:
				return styles.Status(run.Results[row].Status)
			default:
				return styles.Cell
			}
		})
}

// writeTable writes the table of results.
func writeTable(w io.Writer, run Run) error {
	_, err := fmt.Fprintln(w, Table(run).Render())
	return err
}

// writeSummary writes a header describing the run and a line for each request,
// followed by the table of results.
func writeSummary(w io.Writer, run Run) error {
	fmt.Fprintf(w, "File: %s\n", run.File)
	fmt.Fprintf(w, "Time: %s\n\n", run.Started.Format(timeFormat))

	total := len(run.Results)
	for i, result := range run.Results {
		fmt.Fprintf(w, "[%d/%d] %s %s ... ", i+1, total, result.Method, result.Name)

		if result.OK() {
			hue.Green.Fprintf(w, "%d", result.Status)
		} else {
			hue.Red.Fprintf(w, "%d", result.Status)
		}

		fmt.Fprintf(w, " (%d ms)\n", result.Elapsed.Milliseconds())
	}

	fmt.Fprintln(w)

	return writeTable(w, run)
}
