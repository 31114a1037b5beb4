// Package report renders the results of a nero run for the user.
//
// There are four formats: json and yaml are machine readable and contain every
// detail of each response, table shows one row per request and summary adds a
// progress style header on top of the table.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"go.followtheprocess.codes/nero/internal/executor"
)

// Output formats.
const (
	FormatTable   = "table"
	FormatSummary = "summary"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
)

// ErrUnknownFormat is returned when asked to write a report in a format that doesn't exist.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns the supported output formats.
func Formats() []string {
	return []string{FormatTable, FormatSummary, FormatJSON, FormatYAML}
}

// ValidateFormat returns an error if format is not one of [Formats].
func ValidateFormat(format string) error {
	if !slices.Contains(Formats(), format) {
		return fmt.Errorf("%w %q, expected one of %s", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
	return nil
}

// Run is the outcome of running a nero file, the thing being reported on.
type Run struct {
	Started time.Time         // When the run started
	File    string            // Path to the file that was run
	Results []executor.Result // The result of every request sent, in source order
}

// Record is the serialised form of a single [executor.Result].
type Record struct {
	Label      string            `json:"label"       yaml:"label"`
	Method     string            `json:"method"      yaml:"method"`
	URL        string            `json:"url"         yaml:"url"`
	Body       string            `json:"body"        yaml:"body"`
	Headers    []executor.Header `json:"headers"     yaml:"headers"`
	Status     int               `json:"status"      yaml:"status"`
	Size       int64             `json:"size"        yaml:"size"`
	DurationMS int64             `json:"duration_ms" yaml:"duration_ms"`
}

// NewRecord returns the [Record] of result.
func NewRecord(result executor.Result) Record {
	headers := result.Headers
	if headers == nil {
		headers = []executor.Header{}
	}

	return Record{
		Label:      result.Name,
		Method:     result.Method,
		URL:        result.URL,
		Status:     result.Status,
		Size:       result.Size,
		DurationMS: result.Elapsed.Milliseconds(),
		Headers:    headers,
		Body:       result.Body,
	}
}

// Write writes the report of run to w in the given format.
func Write(w io.Writer, format string, run Run) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, run)
	case FormatYAML:
		return writeYAML(w, run)
	case FormatTable:
		return writeTable(w, run)
	case FormatSummary:
		return writeSummary(w, run)
	default:
		return ValidateFormat(format)
	}
}

// records converts every result in run to a [Record].
func records(run Run) []Record {
	recs := make([]Record, 0, len(run.Results))
	for _, result := range run.Results {
		recs = append(recs, NewRecord(result))
	}

	return recs
}

// writeJSON writes the run as an indented JSON array of records.
func writeJSON(w io.Writer, run Run) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records(run)); err != nil {
		return fmt.Errorf("could not encode JSON report: %w", err)
	}

	return nil
}

// writeYAML writes the run as a YAML sequence of records.
func writeYAML(w io.Writer, run Run) error {
	out, err := yaml.Marshal(records(run))
	if err != nil {
		return fmt.Errorf("could not encode YAML report: %w", err)
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("could not write YAML report: %w", err)
	}

	return nil
}
