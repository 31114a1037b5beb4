package resolver

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Pair is a single resolved key value pair from a request section.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// A Request is a single HTTP request with every expression resolved to text.
//
// It may be constructed with [Resolver.ResolveRequest] from a [syntax.Request].
type Request struct {
	// Name of the request, the label if it has one, "#N" otherwise
	Name string `json:"name"`

	// Optional label
	Label string `json:"label,omitempty"`

	// The HTTP method, verbatim from the source
	Method string `json:"method"`

	// The url, without the query parameters
	URL string `json:"url"`

	// Request headers, in source order
	Headers []Pair `json:"headers,omitempty"`

	// Query parameters, in source order, appended to the url when sent
	Query []Pair `json:"query,omitempty"`

	// Body fields, nil means the request has no body
	Body []Pair `json:"body,omitempty"`
}

// Target returns the full url the request will be sent to, with the query
// parameters appended in order to any already present in URL.
func (r Request) Target() (string, error) {
	target, err := url.Parse(r.URL)
	if err != nil {
		return "", fmt.Errorf("%w %q for request %s: %w", ErrInvalidURL, r.URL, r.Name, err)
	}

	if len(r.Query) == 0 {
		return target.String(), nil
	}

	params := make([]string, 0, len(r.Query)+1)
	if target.RawQuery != "" {
		params = append(params, target.RawQuery)
	}

	for _, pair := range r.Query {
		params = append(params, url.QueryEscape(pair.Key)+"="+url.QueryEscape(pair.Value))
	}

	target.RawQuery = strings.Join(params, "&")

	return target.String(), nil
}

// HasBody reports whether the request declared a body section.
func (r Request) HasBody() bool {
	return r.Body != nil
}

// JSONBody returns the body encoded as a JSON object of strings, or nil if the request
// has no body.
//
// Keys are encoded in sorted order, a key repeated in the source takes its last value.
func (r Request) JSONBody() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body := make(map[string]string, len(r.Body))
	for _, pair := range r.Body {
		body[pair.Key] = pair.Value
	}

	return json.Marshal(body)
}

// String implements [fmt.Stringer] for a [Request].
func (r Request) String() string {
	builder := &strings.Builder{}

	fmt.Fprintf(builder, "### %s\n", r.Name)

	target, err := r.Target()
	if err != nil {
		target = r.URL
	}

	fmt.Fprintf(builder, "%s %s\n", r.Method, target)

	for _, header := range r.Headers {
		fmt.Fprintf(builder, "%s: %s\n", header.Key, header.Value)
	}

	if r.Body != nil {
		body, err := r.JSONBody()
		if err == nil {
			fmt.Fprintf(builder, "\n%s\n", body)
		}
	}

	return builder.String()
}

// FilterValue helps implement tea.list.Item.
//
// See https://github.com/charmbracelet/bubbles/tree/master/list#adding-custom-items.
func (r Request) FilterValue() string {
	return r.Name
}

// Title returns the request's name.
func (r Request) Title() string {
	return r.Name
}

// Description returns a description of the request, in this case the method and URL.
func (r Request) Description() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}
