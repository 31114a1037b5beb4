package semantic_test

import (
	"errors"
	"strings"
	"testing"

	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/semantic"
	"go.followtheprocess.codes/nero/internal/syntax/parser"
	"go.followtheprocess.codes/test"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		kind    error  // The sentinel error expected, if any
		name    string // Name of the test case
		src     string // Source of the program to check
		errMsg  string // If we wanted an error, what should it say
		wantErr bool   // Whether we want an error
	}{
		{
			name: "ping",
			src:  `#[ping] @GET "https://example.test/ping" {}`,
		},
		{
			name: "assignments only",
			src:  `a = 1; b = "two";`,
		},
		{
			name: "duplicate label",
			src: `
#[users] @GET "http://localhost/users" {}
#[users] @POST "http://localhost/other" {}
`,
			wantErr: true,
			kind:    semantic.ErrDuplicateLabel,
			errMsg:  "duplicate label: users",
		},
		{
			name: "unlabelled requests never clash",
			src: `
@GET "http://localhost/a" {}
@GET "http://localhost/a" {}
`,
		},
		{
			name:    "number url",
			src:     `port = 8080; @GET port {}`,
			wantErr: true,
			kind:    semantic.ErrURLMustBeString,
			errMsg:  "url must be a string: got Number 8080",
		},
		{
			name:    "get with body",
			src:     `@GET "http://localhost" { BODY { "a": "b" } }`,
			wantErr: true,
			kind:    semantic.ErrBodyNotAllowed,
			errMsg:  "body not allowed: GET",
		},
		{
			name:    "delete with body",
			src:     `@DELETE "http://localhost" { BODY { "a": "b" } }`,
			wantErr: true,
			kind:    semantic.ErrBodyNotAllowed,
			errMsg:  "body not allowed: DELETE",
		},
		{
			name:    "delete with empty body",
			src:     `@DELETE "http://localhost" { BODY {} }`,
			wantErr: true,
			kind:    semantic.ErrBodyNotAllowed,
			errMsg:  "body not allowed: DELETE",
		},
		{
			name: "post with body",
			src:  `@POST "http://localhost" { BODY { "a": "b" } }`,
		},
		{
			name: "lower case get with body",
			src:  `@get "http://localhost" { BODY { "a": "b" } }`,
		},
		{
			name:    "number header",
			src:     `@GET "http://localhost" { HEADERS { "Accept": "*/*", "X-Count": 3 } }`,
			wantErr: true,
			kind:    semantic.ErrHeaderValueMustBeString,
			errMsg:  `header value must be a string: "X-Count" is Number 3`,
		},
		{
			name: "interpolated number header",
			src:  `n = 3; @GET "http://localhost" { HEADERS { "X-Count": "${n}" } }`,
		},
		{
			name: "number query and body values",
			src:  `@POST "http://localhost" { QUERY { "page": 1 } BODY { "n": 2 } }`,
		},
		{
			name:    "undefined header variable",
			src:     `@GET "http://localhost" { HEADERS { "Authorization": token } }`,
			wantErr: true,
			kind:    resolver.ErrUndefinedVariable,
			errMsg:  "undefined variable: token",
		},
		{
			name: "duplicate label wins over other errors",
			src: `
#[a] @GET "http://localhost" {}
#[a] @GET 1 { BODY {} }
`,
			wantErr: true,
			kind:    semantic.ErrDuplicateLabel,
			errMsg:  "duplicate label: a",
		},
		{
			name:    "url wins over body",
			src:     `@GET 1 { BODY {} }`,
			wantErr: true,
			kind:    semantic.ErrURLMustBeString,
			errMsg:  "url must be a string: got Number 1",
		},
		{
			name: "unsupported methods are allowed",
			src:  `@PATCH "http://localhost" { BODY { "a": "b" } }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parser.New("test.ns", strings.NewReader(tt.src), nil)
			test.Ok(t, err)

			program, err := p.Parse()
			test.Ok(t, err)

			r := resolver.New()
			test.Ok(t, r.ResolveProgram(program))

			err = semantic.New(r).CheckProgram(program)
			test.WantErr(t, err, tt.wantErr)

			if err != nil {
				test.True(t, errors.Is(err, tt.kind), test.Context("wrong error kind: %v", err))
				test.Equal(t, err.Error(), tt.errMsg)
			}
		})
	}
}
