// Package syntax handles parsing the raw .ns file text into meaningful
// data structures. It holds the AST shared by the scanner, parser and every
// later stage of the pipeline, as well as source positions and syntax errors.
package syntax

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"go.followtheprocess.codes/hue"
)

// An ErrorHandler may be provided to parts of the parsing pipeline. If a syntax error is encountered and
// a non-nil handler was provided, it is called with the position info and error message.
type ErrorHandler func(pos Position, msg string)

// Position is an arbitrary source file position including file, line
// and column information. It can also express a range of source via StartCol
// and EndCol, this is useful for error reporting.
//
// Position's without filenames are considered invalid, in the case of stdin
// the string "stdin" may be used.
type Position struct {
	Name     string // Filename
	Offset   int    // Byte offset of the position from the start of the file
	Line     int    // Line number (1 indexed)
	StartCol int    // Start column (1 indexed)
	EndCol   int    // End column (1 indexed), EndCol == StartCol when pointing to a single character
}

// IsValid reports whether the [Position] describes a valid source position.
//
// The rules are:
//
//   - At least Name, Line and StartCol must be set (and non zero)
//   - EndCol cannot be 0, it's only allowed values are StartCol or any number greater than StartCol
func (p Position) IsValid() bool {
	if p.Name == "" || p.Line < 1 || p.StartCol < 1 || p.EndCol < 1 || p.EndCol < p.StartCol {
		return false
	}
	return true
}

// String returns a string representation of a [Position].
//
// It is formatted such that most text editors/terminals will be able to support clicking on it
// and navigating to the position.
//
// Depending on which fields are set, the string returned will be different:
//
//   - "file:line:start-end": valid position pointing to a range of text on the line
//   - "file:line:start": valid position pointing to a single character on the line (EndCol == StartCol)
//
// At least Name, Line and StartCol must be present for a valid position, and Line and StarCol must be > 0. If not, an error
// string will be returned.
func (p Position) String() string {
	if !p.IsValid() {
		return fmt.Sprintf(
			"BadPosition: {Name: %q, Line: %d, StartCol: %d, EndCol: %d}",
			p.Name,
			p.Line,
			p.StartCol,
			p.EndCol,
		)
	}

	if p.StartCol == p.EndCol {
		// No range, just a single position
		return fmt.Sprintf("%s:%d:%d", p.Name, p.Line, p.StartCol)
	}

	return fmt.Sprintf("%s:%d:%d-%d", p.Name, p.Line, p.StartCol, p.EndCol)
}

// Error is a syntax error raised by the scanner or the parser.
//
// Err is one of the sentinel errors exported by the stage that raised it so
// callers can use [errors.Is] to find out what went wrong, Msg is the full
// description including any offending text.
type Error struct {
	Err error    // The kind of error e.g. scanner.ErrUnknownCharacter
	Msg string   // Human readable message, including the payload
	Pos Position // Where in the source the error occurred
}

// Error implements the error interface for [Error].
func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Unwrap returns the sentinel error describing the kind of syntax error.
func (e *Error) Unwrap() error {
	return e.Err
}

// PrettyConsoleHandler returns a [ErrorHandler] that formats the syntax error for
// display on the terminal to a user.
func PrettyConsoleHandler(w io.Writer) ErrorHandler {
	return func(pos Position, msg string) {
		fmt.Fprintf(w, "%s: %s\n\n", pos, msg)

		contents, err := os.ReadFile(pos.Name)
		if err != nil {
			fmt.Fprintf(w, "unable to show src context: %v\n", err)
			return
		}

		lines := bytes.Split(contents, []byte("\n"))

		const contextLines = 3

		startLine := max(pos.Line-contextLines, 1)
		endLine := min(pos.Line+contextLines, len(lines))

		for i, line := range lines {
			i++ // Lines are 1 indexed
			if i < startLine || i > endLine {
				continue
			}

			margin := fmt.Sprintf("%d | ", i)
			fmt.Fprintf(w, "%s%s\n", margin, line)
			if i == pos.Line {
				hue.Red.Fprintf(
					w,
					"%s%s\n",
					strings.Repeat(" ", len(margin)+pos.StartCol-1),
					strings.Repeat("─", max(pos.EndCol-pos.StartCol, 1)),
				)
			}
		}
	}
}

// PositionOf returns the [Position] of the source text between the byte offsets
// start and end in src, the file being called name.
//
// Columns are 1 indexed and the end column is exclusive, a range that would cross
// a line boundary is collapsed to point at the single character at start.
func PositionOf(name string, src []byte, start, end int) Position {
	start = min(max(start, 0), len(src))
	end = min(max(end, start), len(src))

	line := 1              // Line counter
	lastNewLineOffset := 0 // The byte offset of the (end of the) last newline seen
	for index, byt := range src[:start] {
		if byt == '\n' {
			lastNewLineOffset = index + 1 // +1 to account for len("\n")
			line++
		}
	}

	if bytes.IndexByte(src[start:end], '\n') != -1 {
		end = start
	}

	return Position{
		Name:     name,
		Offset:   start,
		Line:     line,
		StartCol: 1 + start - lastNewLineOffset,
		EndCol:   1 + end - lastNewLineOffset,
	}
}
