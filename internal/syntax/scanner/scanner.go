// Package scanner implements the lexical scanner for .ns files.
package scanner

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"go.followtheprocess.codes/nero/internal/syntax"
	"go.followtheprocess.codes/nero/internal/syntax/token"
)

// The kinds of error the scanner may return, each is wrapped in a [*syntax.Error]
// carrying the position and offending text.
var (
	ErrUnknownCharacter       = errors.New("unknown character")
	ErrUnclosedStringLiteral  = errors.New("unclosed string literal")
	ErrUnclosedTemplateString = errors.New("unclosed template string")
	ErrNumberOutOfRange       = errors.New("number literal out of range")
)

const eof = rune(-1) // eof signifies we have reached the end of the input

// bom is the UTF-8 byte order mark, skipped if present at the start of the input.
var bom = []byte("\ufeff")

// symbols maps the single character structural tokens to their kind.
var symbols = map[rune]token.Kind{
	'@': token.At,
	'#': token.Hash,
	'=': token.Eq,
	':': token.Colon,
	';': token.SemiColon,
	',': token.Comma,
	'{': token.LeftBrace,
	'}': token.RightBrace,
	']': token.RightBracket,
}

// scanFn represents the state of the scanner as a function that returns the next state.
type scanFn func(*Scanner) scanFn

// Scanner is the .ns file scanner.
type Scanner struct {
	handler syntax.ErrorHandler // The error handler, if any
	err     error               // The first error encountered, scanning stops as soon as this is set
	name    string              // Name of the file
	src     []byte              // Raw source text
	tokens  []token.Token       // Tokens scanned so far
	start   int                 // The start position of the current token
	pos     int                 // Current scanner position in src (bytes, 0 indexed)
}

// New returns a new [Scanner] that scans src.
//
// If handler is not nil, it is called with the position and message of the
// first error encountered, in addition to the error being returned from [Scanner.Scan].
func New(name string, src []byte, handler syntax.ErrorHandler) *Scanner {
	s := &Scanner{
		handler: handler,
		name:    name,
		src:     src,
	}

	if bytes.HasPrefix(src, bom) {
		s.pos = len(bom)
		s.start = s.pos
	}

	return s
}

// Tokenize scans src to completion, it is shorthand for New(name, src, handler).Scan().
func Tokenize(name string, src []byte, handler syntax.ErrorHandler) ([]token.Token, error) {
	return New(name, src, handler).Scan()
}

// Scan scans the entire input, returning the tokens in source order terminated
// by a single [token.EOF].
//
// Scanning stops at the first error, in which case no tokens are returned.
func (s *Scanner) Scan() ([]token.Token, error) {
	for state := scanStart; state != nil; {
		state = state(s)
	}

	if s.err != nil {
		return nil, s.err
	}

	s.tokens = append(s.tokens, token.Token{Kind: token.EOF, Start: s.pos, End: s.pos})
	return s.tokens, nil
}

// next returns, and consumes, the next character in the input or [eof].
func (s *Scanner) next() rune {
	if s.pos >= len(s.src) {
		return eof
	}

	char, width := utf8.DecodeRune(s.src[s.pos:])
	s.pos += width

	return char
}

// peek returns, but does not consume, the character after the current one or [eof].
func (s *Scanner) peek() rune {
	if s.pos >= len(s.src) {
		return eof
	}

	_, width := utf8.DecodeRune(s.src[s.pos:])

	peekPos := s.pos + width
	if peekPos >= len(s.src) {
		return eof
	}

	peekChar, _ := utf8.DecodeRune(s.src[peekPos:])

	return peekChar
}

// char returns the character the scanner is currently sat on or [eof].
func (s *Scanner) char() rune {
	if s.pos >= len(s.src) {
		return eof
	}
	char, width := utf8.DecodeRune(s.src[s.pos:])
	if char == utf8.RuneError && width == 1 {
		// Invalid utf-8, nothing will match it so it ends up as an unknown character
		return utf8.RuneError
	}
	return char
}

// skip ignores any characters for which the predicate returns true, stopping at the
// first one that returns false such that after it returns, s.char returns the
// first 'false' char.
//
// The scanner start position is brought up to the current position before returning, effectively
// ignoring everything it's travelled over in the meantime.
func (s *Scanner) skip(predicate func(r rune) bool) {
	for s.char() != eof && predicate(s.char()) {
		s.next()
	}
	s.start = s.pos
}

// emit appends a token of the given kind to the token stream, using the scanner's internal
// state to populate the text and position information.
func (s *Scanner) emit(kind token.Kind) {
	s.tokens = append(s.tokens, token.Token{
		Kind:  kind,
		Text:  string(s.src[s.start:s.pos]),
		Start: s.start,
		End:   s.pos,
	})
	s.start = s.pos
}

// error records err as the scanning error, positioned at the source between
// start and end, and arranges for s.handler to be called with the information.
func (s *Scanner) error(err error, start, end int, msg string) {
	position := syntax.PositionOf(s.name, s.src, start, end)
	s.err = &syntax.Error{Err: err, Msg: msg, Pos: position}

	if s.handler != nil {
		s.handler(position, msg)
	}
}

// errorf calls error with a formatted message.
func (s *Scanner) errorf(err error, start, end int, format string, a ...any) {
	s.error(err, start, end, fmt.Sprintf(format, a...))
}

// scanStart is the initial state of the scanner.
func scanStart(s *Scanner) scanFn {
	s.skip(unicode.IsSpace)

	char := s.char()
	if kind, ok := symbols[char]; ok {
		s.next()
		s.emit(kind)
		return scanStart
	}

	switch {
	case char == eof:
		return nil // Break the state machine
	case char == '[':
		return scanLabel
	case char == '"':
		return scanString
	case char == '/':
		return scanSlash
	case isDigit(char):
		return scanNumber
	case isIdentStart(char):
		return scanIdent
	default:
		s.errorf(ErrUnknownCharacter, s.pos, s.pos, "unknown character %q", char)
		return nil
	}
}

// scanSlash scans a '/' character, which is only valid as the start of a
// '//' line comment.
func scanSlash(s *Scanner) scanFn {
	if s.peek() != '/' {
		s.errorf(ErrUnknownCharacter, s.pos, s.pos, "unknown character %q", '/')
		return nil
	}

	// Comments don't produce tokens, absorb everything up to the end of the line
	for s.char() != '\n' && s.char() != eof {
		s.next()
	}

	s.start = s.pos
	return scanStart
}

// scanLabel scans a '[' character, which is always followed by a label.
//
// The label itself is scanned as a single token, the closing ']' is left for
// the parser to check.
func scanLabel(s *Scanner) scanFn {
	s.next() // Consume the '['
	s.emit(token.LeftBracket)

	for isIdent(s.char()) {
		s.next()
	}

	s.emit(token.Label)
	return scanStart
}

// scanIdent scans an identifier, which covers variable names, HTTP methods
// and section keywords alike.
func scanIdent(s *Scanner) scanFn {
	for isIdent(s.char()) {
		s.next()
	}

	s.emit(token.Ident)
	return scanStart
}

// scanNumber scans an integer literal.
func scanNumber(s *Scanner) scanFn {
	for isDigit(s.char()) {
		s.next()
	}

	text := string(s.src[s.start:s.pos])
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		s.errorf(ErrNumberOutOfRange, s.start, s.pos, "number literal %s out of range", text)
		return nil
	}

	s.tokens = append(s.tokens, token.Token{
		Kind:  token.Number,
		Text:  text,
		Num:   n,
		Start: s.start,
		End:   s.pos,
	})
	s.start = s.pos

	return scanStart
}

// scanString scans a string literal, splitting it up into [token.String] tokens
// for the literal text and [token.TemplateStart], [token.Ident], [token.TemplateEnd]
// for each '${ident}' interpolation.
//
// An empty string literal produces a single empty [token.String].
func scanString(s *Scanner) scanFn {
	open := s.pos
	s.next() // Consume the opening '"'
	s.start = s.pos

	produced := false // Whether this literal has emitted any tokens yet

	for {
		switch char := s.char(); {
		case char == eof:
			s.error(ErrUnclosedStringLiteral, open, open, "unclosed string literal")
			return nil
		case char == '"':
			if s.pos > s.start || !produced {
				s.emit(token.String)
			}
			s.next() // Consume the closing '"'
			s.start = s.pos
			return scanStart
		case char == '$' && s.peek() == '{':
			if s.pos > s.start {
				s.emit(token.String)
			}

			dollar := s.pos
			s.next() // '$'
			s.next() // '{'
			s.emit(token.TemplateStart)

			for isIdent(s.char()) {
				s.next()
			}

			if s.pos > s.start {
				s.emit(token.Ident)
			}

			if s.char() != '}' {
				s.error(ErrUnclosedTemplateString, dollar, s.pos, "unclosed template string")
				return nil
			}

			s.next() // '}'
			s.emit(token.TemplateEnd)
			produced = true
		default:
			s.next()
		}
	}
}

// isIdentStart reports whether r may start an identifier.
func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

// isIdent reports whether r is a valid identifier character.
func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-'
}

// isDigit reports whether r is a valid ASCII digit.
func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
