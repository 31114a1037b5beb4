// Package semantic implements the checks a parsed and resolved nero program must
// pass before any request is sent.
package semantic

import (
	"errors"
	"fmt"

	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/syntax"
)

// The kinds of error the checker may return.
var (
	ErrDuplicateLabel          = errors.New("duplicate label")
	ErrURLMustBeString         = errors.New("url must be a string")
	ErrBodyNotAllowed          = errors.New("body not allowed")
	ErrHeaderValueMustBeString = errors.New("header value must be a string")
)

// Checker validates request statements.
//
// It remembers every label it has seen so it must be fed the statements of a single
// program, in order, after the program has been fully resolved by the [resolver.Resolver]
// it was created with.
type Checker struct {
	resolver *resolver.Resolver
	labels   map[string]struct{}
}

// New returns a new [Checker] resolving expressions with r.
func New(r *resolver.Resolver) *Checker {
	return &Checker{
		resolver: r,
		labels:   make(map[string]struct{}),
	}
}

// CheckProgram checks every statement in program in order, returning the first error.
func (c *Checker) CheckProgram(program syntax.Program) error {
	for _, stmt := range program.Statements {
		if err := c.CheckStatement(stmt); err != nil {
			return err
		}
	}

	return nil
}

// CheckStatement checks a single statement, only requests are checked.
//
// The rules are applied in order and the first one broken wins:
//
//   - A request's label must not have been used by an earlier request
//   - The url must be a string
//   - GET and DELETE requests may not have a body section
//   - Every header value must be a string
//
// Errors from resolving expressions are returned as is.
func (c *Checker) CheckStatement(stmt syntax.Statement) error {
	request, ok := stmt.(syntax.Request)
	if !ok {
		return nil
	}

	if request.Label != "" {
		if _, seen := c.labels[request.Label]; seen {
			return fmt.Errorf("%w: %s", ErrDuplicateLabel, request.Label)
		}
		c.labels[request.Label] = struct{}{}
	}

	url, err := c.resolver.ResolveExpression(request.URL)
	if err != nil {
		return err
	}

	if !url.IsString() {
		return fmt.Errorf("%w: got %s %s", ErrURLMustBeString, url.Kind, url)
	}

	// Methods are stored verbatim so the comparison is case sensitive
	if request.Body != nil && (request.Method == "GET" || request.Method == "DELETE") {
		return fmt.Errorf("%w: %s", ErrBodyNotAllowed, request.Method)
	}

	for _, header := range request.Headers {
		value, err := c.resolver.ResolveExpression(header.Value)
		if err != nil {
			return err
		}

		if !value.IsString() {
			return fmt.Errorf("%w: %q is %s %s", ErrHeaderValueMustBeString, header.Key, value.Kind, value)
		}
	}

	return nil
}
