package syntax

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Program is a single .ns file as parsed, an ordered list of statements.
//
// Order matters: an assignment must textually precede the first use of the
// variable it binds.
type Program struct {
	Name       string      `json:"name,omitempty"`       // Name of the file the program was parsed from
	Statements []Statement `json:"statements,omitempty"` // The statements, in source order
}

// Requests returns the request statements in the program, in source order.
func (p Program) Requests() []Request {
	var requests []Request
	for _, stmt := range p.Statements {
		if request, ok := stmt.(Request); ok {
			requests = append(requests, request)
		}
	}

	return requests
}

// Request returns the request with the given name from the program.
//
// The name is either the request's label or, for unlabelled requests,
// "#N" where N is its (1 indexed) position amongst the requests.
func (p Program) Request(name string) (Request, bool) {
	for i, request := range p.Requests() {
		if request.Name(i+1) == name {
			return request, true
		}
	}

	return Request{}, false
}

// String implements [fmt.Stringer] for a [Program], rendering it back to
// canonical nero source.
func (p Program) String() string {
	builder := &strings.Builder{}

	for i, stmt := range p.Statements {
		if i > 0 {
			_, isRequest := stmt.(Request)
			_, prevRequest := p.Statements[i-1].(Request)
			if isRequest || prevRequest {
				builder.WriteByte('\n')
			}
		}
		builder.WriteString(stmt.String())
		builder.WriteByte('\n')
	}

	return builder.String()
}

// Statement is a single top level statement in a [Program], either an
// [Assignment] or a [Request].
type Statement interface {
	fmt.Stringer
	statementNode()
}

// Assignment binds the value of an expression to a variable name.
//
//	port = 8080;
type Assignment struct {
	Value Expr   `json:"value"` // The expression to bind
	Name  string `json:"name"`  // The variable name
}

func (Assignment) statementNode() {}

// String implements [fmt.Stringer] for an [Assignment].
func (a Assignment) String() string {
	return fmt.Sprintf("%s = %s;", a.Name, a.Value)
}

// MarshalJSON implements [json.Marshaler] for an [Assignment].
func (a Assignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Name  string `json:"name"`
		Value Expr   `json:"value"`
	}{Kind: "assignment", Name: a.Name, Value: a.Value})
}

// Request is a single HTTP request declaration.
//
//	#[label]
//	@POST "http://localhost:${port}/users" {
//	  HEADERS { "Accept": "application/json" }
//	  BODY { "name": "nero" }
//	}
type Request struct {
	URL     Expr    `json:"url"`               // The url expression, must resolve to a string
	Label   string  `json:"label,omitempty"`   // Optional label, unique across a program
	Method  string  `json:"method"`            // The method text, verbatim, validated later
	Headers []Field `json:"headers,omitempty"` // Request headers in source order
	Query   []Field `json:"query,omitempty"`   // Query parameters in source order
	Body    []Field `json:"body,omitempty"`    // Body fields, nil means the request has no body section at all
}

func (Request) statementNode() {}

// Name returns the request's label if it has one, otherwise it's named after
// n, it's 1 indexed position amongst the requests in the program e.g. "#2".
func (r Request) Name(n int) string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("#%d", n)
}

// String implements [fmt.Stringer] for a [Request].
func (r Request) String() string {
	builder := &strings.Builder{}

	if r.Label != "" {
		fmt.Fprintf(builder, "#[%s]\n", r.Label)
	}

	fmt.Fprintf(builder, "@%s %s {", r.Method, r.URL)

	if len(r.Headers) == 0 && len(r.Query) == 0 && r.Body == nil {
		builder.WriteString("}")
		return builder.String()
	}

	builder.WriteByte('\n')
	writeSection(builder, "HEADERS", r.Headers)
	writeSection(builder, "QUERY", r.Query)
	if r.Body != nil {
		// An empty body section is still a body section
		if len(r.Body) == 0 {
			builder.WriteString("  BODY {}\n")
		} else {
			writeSection(builder, "BODY", r.Body)
		}
	}
	builder.WriteString("}")

	return builder.String()
}

// MarshalJSON implements [json.Marshaler] for a [Request].
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string  `json:"kind"`
		Label   string  `json:"label,omitempty"`
		Method  string  `json:"method"`
		URL     Expr    `json:"url"`
		Headers []Field `json:"headers,omitempty"`
		Query   []Field `json:"query,omitempty"`
		Body    []Field `json:"body,omitempty"`
	}{
		Kind:    "request",
		Label:   r.Label,
		Method:  r.Method,
		URL:     r.URL,
		Headers: r.Headers,
		Query:   r.Query,
		Body:    r.Body,
	})
}

// writeSection writes a HEADERS, QUERY or BODY block, skipping empty ones.
func writeSection(builder *strings.Builder, keyword string, fields []Field) {
	if len(fields) == 0 {
		return
	}

	fmt.Fprintf(builder, "  %s {\n", keyword)
	for _, field := range fields {
		fmt.Fprintf(builder, "    %s,\n", field)
	}
	builder.WriteString("  }\n")
}

// Field is a single key value pair inside a request section.
type Field struct {
	Key   string `json:"key"`   // The literal key
	Value Expr   `json:"value"` // The value expression
}

// String implements [fmt.Stringer] for a [Field].
func (f Field) String() string {
	return fmt.Sprintf(`"%s": %s`, f.Key, f.Value)
}

// Expr is an expression, one of [Ident], [Number] or [String].
type Expr interface {
	fmt.Stringer
	exprNode()
}

// Ident is a reference to a previously assigned variable.
type Ident struct {
	Name string `json:"name"`
}

func (Ident) exprNode() {}

// String implements [fmt.Stringer] for an [Ident].
func (i Ident) String() string {
	return i.Name
}

// MarshalJSON implements [json.Marshaler] for an [Ident].
func (i Ident) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}{Kind: "ident", Name: i.Name})
}

// Number is an integer literal.
type Number struct {
	Value int64 `json:"value"`
}

func (Number) exprNode() {}

// String implements [fmt.Stringer] for a [Number].
func (n Number) String() string {
	return fmt.Sprintf("%d", n.Value)
}

// MarshalJSON implements [json.Marshaler] for a [Number].
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value int64  `json:"value"`
	}{Kind: "number", Value: n.Value})
}

// String is a possibly interpolated string literal e.g. "http://localhost:${port}".
type String struct {
	Parts []StringPart `json:"parts"`
}

func (String) exprNode() {}

// String implements [fmt.Stringer] for a [String].
func (s String) String() string {
	builder := &strings.Builder{}
	builder.WriteByte('"')
	for _, part := range s.Parts {
		builder.WriteString(part.String())
	}
	builder.WriteByte('"')

	return builder.String()
}

// MarshalJSON implements [json.Marshaler] for a [String].
func (s String) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string       `json:"kind"`
		Parts []StringPart `json:"parts"`
	}{Kind: "string", Parts: s.Parts})
}

// StringPart is one piece of a [String], either literal [Text] or an
// [Interpolation].
type StringPart interface {
	fmt.Stringer
	stringPart()
}

// Text is a literal run of characters inside a [String].
type Text struct {
	Value string `json:"value"`
}

func (Text) stringPart() {}

// String implements [fmt.Stringer] for [Text].
func (t Text) String() string {
	return t.Value
}

// MarshalJSON implements [json.Marshaler] for [Text].
func (t Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}{Kind: "text", Value: t.Value})
}

// Interpolation is a `${name}` block inside a [String].
type Interpolation struct {
	Expr Expr `json:"expr"`
}

func (Interpolation) stringPart() {}

// String implements [fmt.Stringer] for an [Interpolation].
func (i Interpolation) String() string {
	return fmt.Sprintf("${%s}", i.Expr)
}

// MarshalJSON implements [json.Marshaler] for an [Interpolation].
func (i Interpolation) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Expr Expr   `json:"expr"`
	}{Kind: "interpolation", Expr: i.Expr})
}
