package executor

import (
	"maps"
	"net/http"
	"slices"
	"time"
)

// Header is a single response header.
type Header struct {
	Key   string `json:"key"   yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Result is the outcome of a successfully sent request.
type Result struct {
	Name    string        // Name of the request, it's label or "#N"
	Method  string        // The http method used
	URL     string        // The full url the request was sent to, including query
	Body    string        // The full response body
	Headers []Header      // Response headers, sorted by key
	Status  int           // Response status code
	Size    int64         // Content length as reported by the server, 0 if it didn't say
	Elapsed time.Duration // Time taken from sending the request to reading the whole body
}

// OK reports whether the response status is a 2xx.
func (r Result) OK() bool {
	return r.Status >= http.StatusOK && r.Status < http.StatusMultipleChoices
}

// sortedKeys returns the keys of header in sorted order.
func sortedKeys(header http.Header) []string {
	return slices.Sorted(maps.Keys(header))
}
