// Package token provides the set of lexical tokens for a .ns file.
package token

import "fmt"

// Kind is the kind of a token.
type Kind int

const (
	EOF           Kind = iota // EOF
	At                        // At
	Hash                      // Hash
	Eq                        // Eq
	Colon                     // Colon
	SemiColon                 // SemiColon
	Comma                     // Comma
	LeftBrace                 // LeftBrace
	RightBrace                // RightBrace
	LeftBracket               // LeftBracket
	RightBracket              // RightBracket
	TemplateStart             // TemplateStart
	TemplateEnd               // TemplateEnd
	Ident                     // Ident
	String                    // String
	Label                     // Label
	Number                    // Number
)

var kindNames = [...]string{
	EOF:           "EOF",
	At:            "At",
	Hash:          "Hash",
	Eq:            "Eq",
	Colon:         "Colon",
	SemiColon:     "SemiColon",
	Comma:         "Comma",
	LeftBrace:     "LeftBrace",
	RightBrace:    "RightBrace",
	LeftBracket:   "LeftBracket",
	RightBracket:  "RightBracket",
	TemplateStart: "TemplateStart",
	TemplateEnd:   "TemplateEnd",
	Ident:         "Ident",
	String:        "String",
	Label:         "Label",
	Number:        "Number",
}

// String returns the name of the [Kind].
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// HasPayload reports whether tokens of this kind carry text (or a number)
// beyond their kind.
func (k Kind) HasPayload() bool {
	return k >= Ident
}

// Token is a lexical token in a .ns file.
type Token struct {
	Text  string // The payload text for Ident, String and Label tokens, the raw digits for Number
	Kind  Kind   // The kind of token this is
	Num   int64  // Parsed value of a Number token
	Start int    // Byte offset from the start of the file to the start of this token
	End   int    // Byte offset from the start of the file to the end of this token
}

// String returns a string representation of a [Token].
func (t Token) String() string {
	return fmt.Sprintf("<Token::%s start=%d, end=%d>", t.Kind, t.Start, t.End)
}

// Describe returns a short, human readable description of the token for use
// in error messages e.g. `Ident "name"`.
func (t Token) Describe() string {
	if t.Kind.HasPayload() {
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return t.Kind.String()
}
