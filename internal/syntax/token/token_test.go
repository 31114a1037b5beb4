package token_test

import (
	"fmt"
	"testing"
	"testing/quick"

	"go.followtheprocess.codes/nero/internal/syntax/token"
	"go.followtheprocess.codes/test"
)

func TestString(t *testing.T) {
	// All we really care about is the format, let's let quick handle it!
	f := func(tok token.Token) bool {
		return tok.String() == fmt.Sprintf("<Token::%s start=%d, end=%d>", tok.Kind.String(), tok.Start, tok.End)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		want string     // Expected String() output
		kind token.Kind // Kind under test
	}{
		{kind: token.EOF, want: "EOF"},
		{kind: token.At, want: "At"},
		{kind: token.SemiColon, want: "SemiColon"},
		{kind: token.TemplateStart, want: "TemplateStart"},
		{kind: token.Number, want: "Number"},
		{kind: token.Kind(-1), want: "Kind(-1)"},
		{kind: token.Kind(999), want: "Kind(999)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			test.Equal(t, tt.kind.String(), tt.want)
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string      // Name of the test case
		want string      // Expected description
		tok  token.Token // Token to describe
	}{
		{name: "symbol", tok: token.Token{Kind: token.LeftBrace}, want: "LeftBrace"},
		{name: "ident", tok: token.Token{Kind: token.Ident, Text: "port"}, want: `Ident "port"`},
		{name: "string", tok: token.Token{Kind: token.String, Text: "a b"}, want: `String "a b"`},
		{name: "number", tok: token.Token{Kind: token.Number, Text: "42", Num: 42}, want: `Number "42"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.Equal(t, tt.tok.Describe(), tt.want)
		})
	}
}
