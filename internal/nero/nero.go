// Package nero implements the actual functionality exposed via the CLI.
//
// Each subcommand is a method on [Nero] which runs some or all of the pipeline:
// parse, resolve, check and execute.
package nero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sahilm/fuzzy"
	"go.followtheprocess.codes/log"
	"go.followtheprocess.codes/msg"
	"go.followtheprocess.codes/nero/internal/executor"
	"go.followtheprocess.codes/nero/internal/report"
	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/semantic"
	"go.followtheprocess.codes/nero/internal/syntax"
	"go.followtheprocess.codes/nero/internal/syntax/parser"
)

// ErrNoSuchRequest is returned when asked to run a request that isn't in the file.
var ErrNoSuchRequest = errors.New("no such request")

// Nero holds the state of the program.
type Nero struct {
	stdout io.Writer   // Normal program output is written here
	stderr io.Writer   // Logs, syntax errors and debug info
	logger *log.Logger // The logger, writes to stderr
}

// New returns a new instance of [Nero].
func New(stdout, stderr io.Writer, debug bool) Nero {
	level := log.LevelInfo
	if debug {
		level = log.LevelDebug
	}

	logger := log.New(stderr, log.WithLevel(level))

	return Nero{
		stdout: stdout,
		stderr: stderr,
		logger: logger,
	}
}

// CheckOptions are the flags passed to the `nero check` subcommand.
type CheckOptions struct {
	EnvFile string // Optional dotenv file of extra variables
}

// Check implements the `nero check` subcommand.
//
// Every file is parsed, resolved and checked but no requests are sent.
func (n Nero) Check(files []string, options CheckOptions) error {
	for _, file := range files {
		program, err := n.parse(file)
		if err != nil {
			return err
		}

		if _, err := n.analyse(program, options.EnvFile); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}

		msg.Fsuccess(n.stdout, "%s is valid", file)
	}

	return nil
}

// ShowOptions are the flags passed to the `nero show` subcommand.
type ShowOptions struct {
	EnvFile string // Optional dotenv file of extra variables
	Resolve bool   // Resolve variables and show the requests as they would be sent
	JSON    bool   // Output the file in JSON
}

// resolvedFile is the JSON form of `nero show --resolve`.
type resolvedFile struct {
	Vars     resolver.Environment `json:"vars"`
	Name     string               `json:"name"`
	Requests []resolver.Request   `json:"requests"`
}

// Show implements the `nero show` subcommand.
func (n Nero) Show(file string, options ShowOptions) error {
	program, err := n.parse(file)
	if err != nil {
		return err
	}

	if !options.Resolve {
		if options.JSON {
			encoder := json.NewEncoder(n.stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(program)
		}

		fmt.Fprintln(n.stdout, strings.TrimSpace(program.String()))
		return nil
	}

	r, err := n.analyse(program, options.EnvFile)
	if err != nil {
		return err
	}

	requests, err := resolveRequests(r, program)
	if err != nil {
		return err
	}

	if options.JSON {
		encoder := json.NewEncoder(n.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resolvedFile{Name: file, Vars: r.Env(), Requests: requests})
	}

	for i, request := range requests {
		if i > 0 {
			fmt.Fprintln(n.stdout)
		}
		fmt.Fprint(n.stdout, request.String())
	}

	return nil
}

// Requests parses, resolves and checks file, returning every request in it resolved
// and ready to send. Variables from envFile, if given, are defined first.
func (n Nero) Requests(file, envFile string) ([]resolver.Request, error) {
	program, err := n.parse(file)
	if err != nil {
		return nil, err
	}

	r, err := n.analyse(program, envFile)
	if err != nil {
		return nil, err
	}

	return resolveRequests(r, program)
}

// RunOptions are the flags passed to the `nero run` subcommand.
type RunOptions struct {
	Output            string        // The output format
	Only              string        // Run just the request with this name
	EnvFile           string        // Optional dotenv file of extra variables
	Timeout           time.Duration // Overall timeout for each request
	ConnectionTimeout time.Duration // Connection timeout for each request
	NoRedirect        bool          // Don't follow redirects
}

// Run implements the `nero run` subcommand.
//
// The whole file is parsed, resolved and checked before anything is sent, then each
// request is sent in order, one at a time. The first error stops the run and nothing is
// reported.
func (n Nero) Run(ctx context.Context, file string, options RunOptions) error {
	if err := report.ValidateFormat(options.Output); err != nil {
		return err
	}

	started := time.Now()

	program, err := n.parse(file)
	if err != nil {
		return err
	}

	r, err := n.analyse(program, options.EnvFile)
	if err != nil {
		return err
	}

	if options.Only != "" {
		if _, ok := program.Request(options.Only); !ok {
			return n.noSuchRequest(file, program, options.Only)
		}
	}

	// Every selected request is fully resolved, and its url built, before the
	// first one is sent.
	var selected []resolver.Request
	for i, request := range program.Requests() {
		name := request.Name(i + 1)
		if options.Only != "" && name != options.Only {
			continue
		}

		resolved, err := r.ResolveRequest(request, i+1)
		if err != nil {
			return fmt.Errorf("request %s: %w", name, err)
		}

		if _, err := resolved.Target(); err != nil {
			return fmt.Errorf("request %s: %w", name, err)
		}

		selected = append(selected, resolved)
	}

	exec := executor.New(r, n.logger, executor.Options{
		Timeout:           options.Timeout,
		ConnectionTimeout: options.ConnectionTimeout,
		NoRedirect:        options.NoRedirect,
	})
	defer exec.Close()

	results := make([]executor.Result, 0, len(selected))
	for _, request := range selected {
		result, err := exec.Send(ctx, request)
		if err != nil {
			return fmt.Errorf("request %s: %w", request.Name, err)
		}

		n.logger.Debug("Request complete", "request", request.Name, "status", result.Status)
		results = append(results, result)
	}

	return report.Write(n.stdout, options.Output, report.Run{
		File:    file,
		Started: started,
		Results: results,
	})
}

// FetchOptions are the flags passed to the `nero fetch` subcommand.
type FetchOptions struct {
	Method  string        // The http method
	Output  string        // The output format
	Timeout time.Duration // Overall timeout for the request
}

// Fetch implements the `nero fetch` subcommand, sending a single request to url
// without needing a file.
func (n Nero) Fetch(ctx context.Context, url string, options FetchOptions) error {
	if err := report.ValidateFormat(options.Output); err != nil {
		return err
	}

	method := options.Method
	if method == "" {
		method = "GET"
	}

	exec := executor.New(resolver.New(), n.logger, executor.Options{Timeout: options.Timeout})
	defer exec.Close()

	started := time.Now()

	result, err := exec.Send(ctx, resolver.Request{Name: "fetch", Method: method, URL: url})
	if err != nil {
		return err
	}

	return report.Write(n.stdout, options.Output, report.Run{
		File:    url,
		Started: started,
		Results: []executor.Result{result},
	})
}

// parse reads and parses file, syntax errors are printed to stderr.
func (n Nero) parse(file string) (syntax.Program, error) {
	f, err := os.Open(file)
	if err != nil {
		return syntax.Program{}, err
	}
	defer f.Close()

	parser, err := parser.New(file, f, syntax.PrettyConsoleHandler(n.stderr))
	if err != nil {
		return syntax.Program{}, err
	}

	program, err := parser.Parse()
	if err != nil {
		return syntax.Program{}, fmt.Errorf("%w: %s is not valid nero syntax", err, file)
	}

	n.logger.Debug("Parsed file", "file", file, "statements", len(program.Statements))

	return program, nil
}

// analyse resolves and checks program, seeding the environment from envFile
// if one is given.
func (n Nero) analyse(program syntax.Program, envFile string) (*resolver.Resolver, error) {
	r := resolver.New()

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("could not read env file %s: %w", envFile, err)
		}

		for _, name := range slices.Sorted(maps.Keys(vars)) {
			r.Define(name, resolver.StringValue(vars[name]))
		}

		n.logger.Debug("Loaded env file", "file", envFile, "vars", len(vars))
	}

	if err := r.ResolveProgram(program); err != nil {
		return nil, err
	}

	if err := semantic.New(r).CheckProgram(program); err != nil {
		return nil, err
	}

	n.logger.Debug("Checked program", "file", program.Name, "requests", len(program.Requests()))

	return r, nil
}

// noSuchRequest returns an ErrNoSuchRequest error for name, suggesting the closest
// request name if there is one.
func (n Nero) noSuchRequest(file string, program syntax.Program, name string) error {
	requests := program.Requests()
	names := make([]string, 0, len(requests))
	for i, request := range requests {
		names = append(names, request.Name(i+1))
	}

	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return fmt.Errorf("%w: %s does not contain request %s", ErrNoSuchRequest, file, name)
	}

	return fmt.Errorf(
		"%w: %s does not contain request %s (did you mean %q?)",
		ErrNoSuchRequest,
		file,
		name,
		matches[0].Str,
	)
}

// resolveRequests resolves every request in program.
func resolveRequests(r *resolver.Resolver, program syntax.Program) ([]resolver.Request, error) {
	requests := program.Requests()
	resolved := make([]resolver.Request, 0, len(requests))
	for i, request := range requests {
		req, err := r.ResolveRequest(request, i+1)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, req)
	}

	return resolved, nil
}
