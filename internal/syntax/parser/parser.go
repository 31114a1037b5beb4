// Package parser implements the .ns file parser.
//
// It's a recursive descent parser with a single token of lookahead, the first
// syntax error aborts the whole parse.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.followtheprocess.codes/nero/internal/syntax"
	"go.followtheprocess.codes/nero/internal/syntax/scanner"
	"go.followtheprocess.codes/nero/internal/syntax/token"
)

// The kinds of error the parser may return, each is wrapped in a [*syntax.Error]
// carrying the position and details of what went wrong.
var (
	ErrInvalidExpression = errors.New("invalid expression")
	ErrUnexpectedEOF     = errors.New("unexpected end of file")
	ErrUnexpectedToken   = errors.New("unexpected token")
)

// Section keywords, matched case insensitively.
const (
	sectionHeaders = "HEADERS"
	sectionQuery   = "QUERY"
	sectionBody    = "BODY"
)

// Parser is the .ns file parser.
type Parser struct {
	handler syntax.ErrorHandler // The error handler
	name    string              // Name of the file being parsed
	src     []byte              // Raw source text
	tokens  []token.Token       // The scanned tokens, always terminated by EOF
	pos     int                 // Index of the current token in tokens
}

// New returns a new [Parser] reading source text from r.
//
// If handler is not nil, it is called with the position and message of the first syntax
// error encountered (whether from scanning or parsing).
func New(name string, r io.Reader, handler syntax.ErrorHandler) (*Parser, error) {
	// .ns files are smol, it's okay to read the whole thing
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read from input: %w", err)
	}

	return &Parser{
		handler: handler,
		name:    name,
		src:     src,
	}, nil
}

// Parse scans and parses the source to completion returning the [syntax.Program].
//
// Any error is returned as a [*syntax.Error] wrapping one of the scanner or parser
// error kinds, and the returned program is always empty when the error is non-nil.
func (p *Parser) Parse() (syntax.Program, error) {
	tokens, err := scanner.Tokenize(p.name, p.src, p.handler)
	if err != nil {
		return syntax.Program{}, err
	}

	p.tokens = tokens
	p.pos = 0

	program := syntax.Program{Name: p.name}

	for p.current().Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return syntax.Program{}, err
		}
		program.Statements = append(program.Statements, stmt)
	}

	return program, nil
}

// current returns the token under inspection.
func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

// advance advances the parser by a single token.
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

// expect asserts that the current token is of the given kind and consumes it, returning
// a syntax error if not.
func (p *Parser) expect(kind token.Kind) error {
	switch tok := p.current(); tok.Kind {
	case kind:
		p.advance()
		return nil
	case token.EOF:
		return p.errorf(ErrUnexpectedEOF, tok, "unexpected end of file, expected %s", kind)
	default:
		return p.errorf(ErrUnexpectedToken, tok, "unexpected token: expected %s, got %s", kind, tok.Describe())
	}
}

// unexpected returns the appropriate error for a token that doesn't fit, an
// unexpected EOF if tok is the end of the file or an error of the given kind otherwise.
func (p *Parser) unexpected(kind error, tok token.Token, expected string) error {
	if tok.Kind == token.EOF {
		return p.errorf(ErrUnexpectedEOF, tok, "unexpected end of file, expected %s", expected)
	}

	return p.errorf(kind, tok, "%s: expected %s, got %s", kind, expected, tok.Describe())
}

// error builds a [*syntax.Error] pointing at tok and calls the installed error handler
// with the correct information.
func (p *Parser) error(kind error, tok token.Token, msg string) error {
	start, end := tok.Start, tok.End

	// If it's EOF, point to the end of the last token as in "something should have gone here"
	if tok.Kind == token.EOF && p.pos > 0 {
		start = p.tokens[p.pos-1].End
		end = start
	}

	position := syntax.PositionOf(p.name, p.src, start, end)

	if p.handler != nil {
		p.handler(position, msg)
	}

	return &syntax.Error{Err: kind, Msg: msg, Pos: position}
}

// errorf calls error with a formatted message.
func (p *Parser) errorf(kind error, tok token.Token, format string, a ...any) error {
	return p.error(kind, tok, fmt.Sprintf(format, a...))
}

// parseStatement parses a single top level statement.
//
//	statement := assignment | request
func (p *Parser) parseStatement() (syntax.Statement, error) {
	switch tok := p.current(); tok.Kind {
	case token.Ident:
		return p.parseAssignment()
	case token.Hash, token.At:
		return p.parseRequest()
	default:
		return nil, p.unexpected(ErrUnexpectedToken, tok, "an assignment or a request")
	}
}

// parseAssignment parses a variable assignment.
//
//	assignment := Ident "=" expr ";"
func (p *Parser) parseAssignment() (syntax.Assignment, error) {
	name := p.current().Text
	p.advance()

	if err := p.expect(token.Eq); err != nil {
		return syntax.Assignment{}, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return syntax.Assignment{}, err
	}

	if err := p.expect(token.SemiColon); err != nil {
		return syntax.Assignment{}, err
	}

	return syntax.Assignment{Name: name, Value: value}, nil
}

// parseExpression parses a single expression.
//
//	expr := Number | Ident | interpolated_string
func (p *Parser) parseExpression() (syntax.Expr, error) {
	switch tok := p.current(); tok.Kind {
	case token.Number:
		p.advance()
		return syntax.Number{Value: tok.Num}, nil
	case token.Ident:
		p.advance()
		return syntax.Ident{Name: tok.Text}, nil
	case token.String, token.TemplateStart:
		return p.parseString()
	default:
		return nil, p.unexpected(ErrInvalidExpression, tok, "a number, identifier or string")
	}
}

// parseString parses a run of string literal text and interpolations into a single
// [syntax.String].
//
//	interpolated_string := (String | "${" Ident "}")*
func (p *Parser) parseString() (syntax.String, error) {
	var parts []syntax.StringPart

	for {
		switch tok := p.current(); tok.Kind {
		case token.String:
			parts = append(parts, syntax.Text{Value: tok.Text})
			p.advance()
		case token.TemplateStart:
			p.advance()

			ident := p.current()
			if ident.Kind != token.Ident {
				return syntax.String{}, p.unexpected(ErrInvalidExpression, ident, "a variable name")
			}
			p.advance()

			if err := p.expect(token.TemplateEnd); err != nil {
				return syntax.String{}, err
			}

			parts = append(parts, syntax.Interpolation{Expr: syntax.Ident{Name: ident.Text}})
		default:
			return syntax.String{Parts: parts}, nil
		}
	}
}

// parseRequest parses a request declaration.
//
//	request := ("#" "[" Label "]")? "@" Ident expr "{" section* "}"
func (p *Parser) parseRequest() (syntax.Request, error) {
	var request syntax.Request

	if p.current().Kind == token.Hash {
		label, err := p.parseLabel()
		if err != nil {
			return syntax.Request{}, err
		}
		request.Label = label
	}

	if err := p.expect(token.At); err != nil {
		return syntax.Request{}, err
	}

	method := p.current()
	if method.Kind != token.Ident {
		return syntax.Request{}, p.unexpected(ErrInvalidExpression, method, "a HTTP method")
	}
	// Stored verbatim, whether the method is supported is not the parser's problem
	request.Method = method.Text
	p.advance()

	url, err := p.parseExpression()
	if err != nil {
		return syntax.Request{}, err
	}
	request.URL = url

	if err := p.expect(token.LeftBrace); err != nil {
		return syntax.Request{}, err
	}

	for p.current().Kind != token.RightBrace {
		keyword := p.current()
		if keyword.Kind != token.Ident {
			return syntax.Request{}, p.unexpected(
				ErrUnexpectedToken,
				keyword,
				fmt.Sprintf("one of %s, %s or %s", sectionHeaders, sectionQuery, sectionBody),
			)
		}

		section := strings.ToUpper(keyword.Text)
		if section != sectionHeaders && section != sectionQuery && section != sectionBody {
			return syntax.Request{}, p.errorf(
				ErrUnexpectedToken,
				keyword,
				"unexpected token: expected one of %s, %s or %s, got %s",
				sectionHeaders,
				sectionQuery,
				sectionBody,
				keyword.Describe(),
			)
		}
		p.advance()

		fields, err := p.parseBlock()
		if err != nil {
			return syntax.Request{}, err
		}

		switch section {
		case sectionHeaders:
			request.Headers = append(request.Headers, fields...)
		case sectionQuery:
			request.Query = append(request.Query, fields...)
		case sectionBody:
			// Initialised even if the block is empty, the presence of
			// a body section is what matters
			if request.Body == nil {
				request.Body = make([]syntax.Field, 0, len(fields))
			}
			request.Body = append(request.Body, fields...)
		}
	}

	p.advance() // Consume the closing '}'

	return request, nil
}

// parseLabel parses a request label, it assumes p.current() is the '#'.
//
//	"#" "[" Label "]"
func (p *Parser) parseLabel() (string, error) {
	p.advance() // Consume the '#'

	if err := p.expect(token.LeftBracket); err != nil {
		return "", err
	}

	label := p.current()
	if label.Kind != token.Label {
		return "", p.unexpected(ErrInvalidExpression, label, "a label")
	}

	if label.Text == "" {
		return "", p.errorf(ErrInvalidExpression, label, "%s: empty label", ErrInvalidExpression)
	}
	p.advance()

	if err := p.expect(token.RightBracket); err != nil {
		return "", err
	}

	return label.Text, nil
}

// parseBlock parses a key value block, the body of a request section.
//
//	kv_block := "{" (kv_pair ","?)* "}"
//	kv_pair  := String ":" expr
func (p *Parser) parseBlock() ([]syntax.Field, error) {
	if err := p.expect(token.LeftBrace); err != nil {
		return nil, err
	}

	var fields []syntax.Field
	for p.current().Kind != token.RightBrace {
		key := p.current()
		if key.Kind != token.String {
			return nil, p.unexpected(ErrUnexpectedToken, key, "a quoted key")
		}
		p.advance()

		if err := p.expect(token.Colon); err != nil {
			return nil, err
		}

		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		fields = append(fields, syntax.Field{Key: key.Text, Value: value})

		// Commas are optional, including trailing ones
		if p.current().Kind == token.Comma {
			p.advance()
		}
	}

	p.advance() // Consume the closing '}'

	return fields, nil
}
