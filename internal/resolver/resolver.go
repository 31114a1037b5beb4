// Package resolver evaluates nero expressions against a variable [Environment].
//
// It binds assignments in program order, and turns a [syntax.Request] into a
// concrete [Request] whose url, headers, query and body are plain text, ready to be
// sent over http.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"go.followtheprocess.codes/nero/internal/syntax"
)

// The kinds of error the resolver may return.
var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrInvalidExpression = errors.New("invalid expression")
	ErrInvalidURL        = errors.New("invalid url")
)

// Resolver binds variables and evaluates expressions.
//
// A Resolver is stateful, it owns the [Environment] for a single run of a program and
// is not safe for concurrent use.
type Resolver struct {
	env Environment
}

// New returns a new [Resolver] with an empty [Environment].
func New() *Resolver {
	return &Resolver{env: NewEnvironment()}
}

// Define binds value to name directly, as though an assignment had been resolved.
//
// It's used to seed the environment from outside of the program e.g. from a
// dotenv file, assignments in the program itself may still rebind the name.
func (r *Resolver) Define(name string, value Value) {
	r.env.Set(name, value)
}

// Env returns a copy of the current [Environment].
func (r *Resolver) Env() Environment {
	return r.env.Clone()
}

// ResolveProgram resolves every statement in program in order, stopping at
// the first error.
func (r *Resolver) ResolveProgram(program syntax.Program) error {
	for _, stmt := range program.Statements {
		if err := r.ResolveStatement(stmt); err != nil {
			return err
		}
	}

	return nil
}

// ResolveStatement resolves a single statement.
//
// An assignment evaluates its value and binds (or rebinds) the name in the environment.
// A request only has its url resolved, to check early that the variables it needs are
// defined, the value is discarded.
func (r *Resolver) ResolveStatement(stmt syntax.Statement) error {
	switch stmt := stmt.(type) {
	case syntax.Assignment:
		value, err := r.ResolveExpression(stmt.Value)
		if err != nil {
			return err
		}
		r.env.Set(stmt.Name, value)
		return nil
	case syntax.Request:
		_, err := r.ResolveExpression(stmt.URL)
		return err
	default:
		return fmt.Errorf("%w: unknown statement %T", ErrInvalidExpression, stmt)
	}
}

// ResolveExpression evaluates expr to a concrete [Value].
//
// It does not modify the environment and may be called any number of times.
func (r *Resolver) ResolveExpression(expr syntax.Expr) (Value, error) {
	switch expr := expr.(type) {
	case syntax.Number:
		return NumberValue(expr.Value), nil
	case syntax.Ident:
		value, ok := r.env.Get(expr.Name)
		if !ok {
			return Value{}, r.undefined(expr.Name)
		}
		return value, nil
	case syntax.String:
		builder := &strings.Builder{}
		for _, part := range expr.Parts {
			switch part := part.(type) {
			case syntax.Text:
				builder.WriteString(part.Value)
			case syntax.Interpolation:
				value, err := r.ResolveExpression(part.Expr)
				if err != nil {
					return Value{}, err
				}
				builder.WriteString(value.String())
			default:
				return Value{}, fmt.Errorf("%w: unknown string part %T", ErrInvalidExpression, part)
			}
		}
		return StringValue(builder.String()), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown expression %T", ErrInvalidExpression, expr)
	}
}

// ResolveRequest resolves every expression in request into a concrete [Request].
//
// n is the 1 indexed position of the request amongst all the requests in the program,
// used to name it if it has no label. Values are stringified as they are resolved, type
// checking is the job of the semantic checker.
func (r *Resolver) ResolveRequest(request syntax.Request, n int) (Request, error) {
	url, err := r.ResolveExpression(request.URL)
	if err != nil {
		return Request{}, err
	}

	headers, err := r.resolveFields(request.Headers)
	if err != nil {
		return Request{}, err
	}

	query, err := r.resolveFields(request.Query)
	if err != nil {
		return Request{}, err
	}

	resolved := Request{
		Name:    request.Name(n),
		Label:   request.Label,
		Method:  request.Method,
		URL:     url.String(),
		Headers: headers,
		Query:   query,
	}

	if request.Body != nil {
		body, err := r.resolveFields(request.Body)
		if err != nil {
			return Request{}, err
		}

		// Keep the body present even if the section was empty
		if body == nil {
			body = []Pair{}
		}
		resolved.Body = body
	}

	return resolved, nil
}

// resolveFields resolves each field value in order.
func (r *Resolver) resolveFields(fields []syntax.Field) ([]Pair, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	pairs := make([]Pair, 0, len(fields))
	for _, field := range fields {
		value, err := r.ResolveExpression(field.Value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Key: field.Key, Value: value.String()})
	}

	return pairs, nil
}

// undefined returns an ErrUndefinedVariable error for name, suggesting the closest
// bound name if there is one.
func (r *Resolver) undefined(name string) error {
	matches := fuzzy.Find(name, r.env.Names())
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s", ErrUndefinedVariable, name)
	}

	return fmt.Errorf("%w: %s (did you mean %q?)", ErrUndefinedVariable, name, matches[0].Str)
}
