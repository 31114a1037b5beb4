// Package executor sends resolved nero requests over http and collects the results.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/syntax"
)

const (
	DefaultConnectionTimeout = 10 * time.Second // Default connection timeout for HTTP requests
	DefaultTimeout           = 30 * time.Second // Default overall timeout for HTTP requests
)

// The kinds of error the executor may return.
var (
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrRequestFailed     = errors.New("request failed")
)

// supportedMethods maps the method text from a .ns file to the http method it's sent as.
//
// Anything not in here parses and checks fine but fails when it's sent.
var supportedMethods = map[string]string{
	"GET":  http.MethodGet,
	"POST": http.MethodPost,
}

// Options configure the http client used by an [Executor].
type Options struct {
	Timeout           time.Duration // Overall timeout for each request, DefaultTimeout if 0
	ConnectionTimeout time.Duration // Timeout for establishing a connection, DefaultConnectionTimeout if 0
	NoRedirect        bool          // Return redirect responses rather than following them
}

// Executor sends requests, one at a time.
//
// It owns a single http client for the lifetime of a run, callers should call
// [Executor.Close] when they are done with it.
type Executor struct {
	client    *http.Client
	transport *http.Transport
	resolver  *resolver.Resolver
	logger    *log.Logger
}

// New returns a new [Executor] resolving request expressions with r.
func New(r *resolver.Resolver, logger *log.Logger, options Options) *Executor {
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}

	if options.ConnectionTimeout == 0 {
		options.ConnectionTimeout = DefaultConnectionTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: options.ConnectionTimeout}).DialContext

	client := &http.Client{
		Transport: transport,
		Timeout:   options.Timeout,
	}

	if options.NoRedirect {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return &Executor{
		client:    client,
		transport: transport,
		resolver:  r,
		logger:    logger,
	}
}

// Close releases any idle connections held by the executor's http client.
func (e *Executor) Close() {
	e.transport.CloseIdleConnections()
}

// Execute resolves request and sends it, n is it's 1 indexed position amongst the
// requests in the program.
//
// The program must have been resolved and checked before calling Execute.
func (e *Executor) Execute(ctx context.Context, request syntax.Request, n int) (Result, error) {
	resolved, err := e.resolver.ResolveRequest(request, n)
	if err != nil {
		return Result{}, err
	}

	return e.Send(ctx, resolved)
}

// Send sends an already resolved request and reads the response.
//
// Only GET and POST are supported, any other method fails with ErrUnsupportedMethod
// before anything is sent. Anything that goes wrong on the way to the server or reading
// the response is an ErrRequestFailed, nothing is retried.
func (e *Executor) Send(ctx context.Context, request resolver.Request) (Result, error) {
	method, ok := supportedMethods[request.Method]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, request.Method)
	}

	target, err := request.Target()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	body, err := request.JSONBody()
	if err != nil {
		return Result{}, fmt.Errorf("%w: could not encode body for request %s: %w", ErrRequestFailed, request.Name, err)
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	for _, header := range request.Headers {
		httpRequest.Header.Add(header.Key, header.Value)
	}

	if body != nil && httpRequest.Header.Get("Content-Type") == "" {
		httpRequest.Header.Set("Content-Type", "application/json")
	}

	logger := e.logger.With("request", request.Name)
	logger.Debug("Sending request", "method", method, "url", target, "headers", len(request.Headers))

	start := time.Now()

	response, err := e.client.Do(httpRequest)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: could not read response body: %w", ErrRequestFailed, err)
	}

	elapsed := time.Since(start)

	logger.Debug("Got response", "status", response.StatusCode, "bytes", len(content), "elapsed", elapsed)

	return Result{
		Name:    request.Name,
		Method:  method,
		URL:     target,
		Status:  response.StatusCode,
		Size:    max(response.ContentLength, 0),
		Headers: responseHeaders(response.Header),
		Body:    string(content),
		Elapsed: elapsed,
	}, nil
}

// responseHeaders flattens the response headers into a list sorted by key, with a
// separate entry for each value.
//
// A value that isn't valid utf-8 is replaced with an empty string.
func responseHeaders(header http.Header) []Header {
	headers := make([]Header, 0, len(header))
	for _, key := range sortedKeys(header) {
		for _, value := range header[key] {
			if !utf8.ValidString(value) {
				value = ""
			}
			headers = append(headers, Header{Key: key, Value: value})
		}
	}

	return headers
}
