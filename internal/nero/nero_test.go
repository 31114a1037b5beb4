package nero_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.followtheprocess.codes/nero/internal/executor"
	"go.followtheprocess.codes/nero/internal/nero"
	"go.followtheprocess.codes/nero/internal/report"
	"go.followtheprocess.codes/nero/internal/resolver"
	"go.followtheprocess.codes/nero/internal/semantic"
	"go.followtheprocess.codes/nero/internal/syntax/parser"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCheck(t *testing.T) {
	good := filepath.Join("testdata", "check", "good.ns")
	bad := filepath.Join("testdata", "check", "bad.ns")
	duplicate := filepath.Join("testdata", "check", "duplicate.ns")

	t.Run("good", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := nero.New(stdout, stderr, false)

		err := app.Check([]string{good}, nero.CheckOptions{})
		test.Ok(t, err)

		// Stderr should be empty
		test.Equal(t, stderr.String(), "")

		// Stdout should have the success message
		test.True(t, strings.Contains(stdout.String(), good+" is valid"))
	})

	t.Run("bad", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := nero.New(stdout, stderr, false)

		err := app.Check([]string{good, bad}, nero.CheckOptions{})
		test.Err(t, err)
		test.True(t, errors.Is(err, parser.ErrUnexpectedToken))

		got := stderr.String()

		// Replace \ with / on windows
		if runtime.GOOS == "windows" {
			got = strings.ReplaceAll(got, `\`, "/")
		}

		// Stderr should have the syntax error
		test.True(
			t,
			strings.Contains(got, `testdata/check/bad.ns:2:1-2: unexpected token: expected SemiColon, got At`),
			test.Context("stderr was:\n%s", got),
		)

		// Only the good file made it to stdout
		test.True(t, strings.Contains(stdout.String(), good+" is valid"))
		test.False(t, strings.Contains(stdout.String(), bad))
	})

	t.Run("semantic", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := nero.New(stdout, stderr, false)

		err := app.Check([]string{duplicate}, nero.CheckOptions{})
		test.Err(t, err)
		test.True(t, errors.Is(err, semantic.ErrDuplicateLabel))
		test.True(t, strings.HasSuffix(err.Error(), "duplicate label: ping"))
	})

	t.Run("missing", func(t *testing.T) {
		app := nero.New(io.Discard, io.Discard, false)

		err := app.Check([]string{filepath.Join("testdata", "check", "missing.ns")}, nero.CheckOptions{})
		test.Err(t, err)
		test.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestShow(t *testing.T) {
	good := filepath.Join("testdata", "check", "good.ns")

	t.Run("raw", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		app := nero.New(stdout, stderr, false)

		err := app.Show(good, nero.ShowOptions{})
		test.Ok(t, err)

		test.Equal(t, stderr.String(), "")
		test.True(t, strings.Contains(stdout.String(), `@GET "${base}/v${version}/users" {`))
		test.True(t, strings.Contains(stdout.String(), "#[create-user]"))
	})

	t.Run("resolved", func(t *testing.T) {
		stdout := &bytes.Buffer{}

		app := nero.New(stdout, io.Discard, false)

		err := app.Show(good, nero.ShowOptions{Resolve: true})
		test.Ok(t, err)

		test.True(t, strings.Contains(stdout.String(), "GET https://example.test/v2/users?page=1"))
		test.True(t, strings.Contains(stdout.String(), `{"age":"3","name":"nero"}`))
	})

	t.Run("resolved json", func(t *testing.T) {
		stdout := &bytes.Buffer{}

		app := nero.New(stdout, io.Discard, false)

		err := app.Show(good, nero.ShowOptions{Resolve: true, JSON: true})
		test.Ok(t, err)

		var got struct {
			Vars     map[string]any     `json:"vars"`
			Requests []resolver.Request `json:"requests"`
		}
		test.Ok(t, json.Unmarshal(stdout.Bytes(), &got))

		test.Equal(t, len(got.Requests), 2)
		test.Equal(t, got.Requests[1].Name, "create-user")
		test.Equal(t, got.Vars["base"], any("https://example.test"))
		test.Equal(t, got.Vars["version"], any(float64(2)))
	})
}

func TestRequests(t *testing.T) {
	app := nero.New(io.Discard, io.Discard, false)

	requests, err := app.Requests(filepath.Join("testdata", "check", "good.ns"), "")
	test.Ok(t, err)

	test.Equal(t, len(requests), 2)
	test.Equal(t, requests[0].Title(), "list-users")
	test.Equal(t, requests[0].Description(), "GET https://example.test/v2/users")
}

func TestEnvFileBeforeSending(t *testing.T) {
	file := writeFile(t, `@GET "http://localhost/${TOKEN}" {}`)
	envFile := filepath.Join("testdata", "env.env")

	t.Run("check without", func(t *testing.T) {
		app := nero.New(io.Discard, io.Discard, false)

		err := app.Check([]string{file}, nero.CheckOptions{})
		test.Err(t, err)
		test.True(t, errors.Is(err, resolver.ErrUndefinedVariable), test.Context("wrong error: %v", err))
	})

	t.Run("check with", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := nero.New(stdout, io.Discard, false)

		test.Ok(t, app.Check([]string{file}, nero.CheckOptions{EnvFile: envFile}))
		test.True(t, strings.Contains(stdout.String(), file+" is valid"))
	})

	t.Run("requests with", func(t *testing.T) {
		app := nero.New(io.Discard, io.Discard, false)

		requests, err := app.Requests(file, envFile)
		test.Ok(t, err)
		test.Equal(t, len(requests), 1)
		test.Equal(t, requests[0].URL, "http://localhost/from-dotenv")
	})
}

// server returns a test server that counts the calls it gets and echoes back
// some details of each request.
func server(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	calls := &atomic.Int64{}

	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "%s %s %s", r.Method, r.URL.RequestURI(), r.Header.Get("Authorization"))
	}

	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)

	return srv, calls
}

// writeFile writes a .ns file with the given contents to a temporary directory,
// returning it's path.
func writeFile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.ns")
	test.Ok(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestRun(t *testing.T) {
	srv, calls := server(t)

	file := writeFile(t, fmt.Sprintf(`
base = "%s";

#[ping] @GET "${base}/ping" {}

@POST "${base}/users" {
  HEADERS { "Authorization": "Bearer secret" }
  QUERY { "dry-run": "true" }
  BODY { "name": "nero" }
}
`, srv.URL))

	stdout := &bytes.Buffer{}
	app := nero.New(stdout, io.Discard, false)

	err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON})
	test.Ok(t, err)

	var got []report.Record
	test.Ok(t, json.Unmarshal(stdout.Bytes(), &got))

	test.Equal(t, calls.Load(), int64(2))
	test.Equal(t, len(got), 2)

	test.Equal(t, got[0].Label, "ping")
	test.Equal(t, got[0].Method, "GET")
	test.Equal(t, got[0].Status, http.StatusOK)
	test.Equal(t, got[0].Body, "GET /ping ")

	test.Equal(t, got[1].Label, "#2")
	test.Equal(t, got[1].Body, "POST /users?dry-run=true Bearer secret")
}

func TestRunOnly(t *testing.T) {
	srv, calls := server(t)

	file := writeFile(t, fmt.Sprintf(`
#[first] @GET "%[1]s/first" {}
#[second] @GET "%[1]s/second" {}
@GET "%[1]s/third" {}
`, srv.URL))

	t.Run("label", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := nero.New(stdout, io.Discard, false)

		before := calls.Load()
		err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON, Only: "second"})
		test.Ok(t, err)
		test.Equal(t, calls.Load()-before, int64(1))

		var got []report.Record
		test.Ok(t, json.Unmarshal(stdout.Bytes(), &got))
		test.Equal(t, len(got), 1)
		test.Equal(t, got[0].Body, "GET /second ")
	})

	t.Run("position", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := nero.New(stdout, io.Discard, false)

		err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON, Only: "#3"})
		test.Ok(t, err)

		var got []report.Record
		test.Ok(t, json.Unmarshal(stdout.Bytes(), &got))
		test.Equal(t, len(got), 1)
		test.Equal(t, got[0].Body, "GET /third ")
	})

	t.Run("missing", func(t *testing.T) {
		app := nero.New(io.Discard, io.Discard, false)

		before := calls.Load()
		err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON, Only: "secnd"})
		test.Err(t, err)
		test.True(t, errors.Is(err, nero.ErrNoSuchRequest))
		test.True(t, strings.HasSuffix(err.Error(), `(did you mean "second"?)`), test.Context("got %v", err))
		test.Equal(t, calls.Load(), before, test.Context("nothing should have been sent"))
	})
}

func TestRunEnvFile(t *testing.T) {
	srv, _ := server(t)

	file := writeFile(t, fmt.Sprintf(`@GET "%s/me" { HEADERS { "Authorization": "Bearer ${TOKEN}" } }`, srv.URL))

	t.Run("without", func(t *testing.T) {
		app := nero.New(io.Discard, io.Discard, false)

		err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON})
		test.Err(t, err)
		test.True(t, errors.Is(err, resolver.ErrUndefinedVariable))
	})

	t.Run("with", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		app := nero.New(stdout, io.Discard, false)

		err := app.Run(context.Background(), file, nero.RunOptions{
			Output:  report.FormatJSON,
			EnvFile: filepath.Join("testdata", "env.env"),
		})
		test.Ok(t, err)

		var got []report.Record
		test.Ok(t, json.Unmarshal(stdout.Bytes(), &got))
		test.Equal(t, got[0].Body, "GET /me Bearer from-dotenv")
	})
}

func TestRunFailsBeforeSending(t *testing.T) {
	srv, calls := server(t)

	tests := []struct {
		kind error  // The error expected
		name string // Name of the test case
		src  string // The file contents
	}{
		{
			name: "semantic",
			src:  `#[a] @GET "%[1]s" {} #[a] @GET "%[1]s" {}`,
			kind: semantic.ErrDuplicateLabel,
		},
		{
			name: "resolve",
			src:  `@GET "%[1]s/${nope}" {}`,
			kind: resolver.ErrUndefinedVariable,
		},
		{
			name: "syntax",
			src:  `@GET "%[1]s" {`,
			kind: parser.ErrUnexpectedEOF,
		},
		{
			name: "undefined body variable in a later request",
			src:  `@GET "%[1]s/one" {} @POST "%[1]s/two" { BODY { "k": missing } }`,
			kind: resolver.ErrUndefinedVariable,
		},
		{
			name: "undefined query variable in a later request",
			src:  `@GET "%[1]s/one" {} @GET "%[1]s/two" { QUERY { "page": page } }`,
			kind: resolver.ErrUndefinedVariable,
		},
		{
			name: "invalid url in a later request",
			src:  `@GET "%[1]s/one" {} @GET "http://[::1" {}`,
			kind: resolver.ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := writeFile(t, fmt.Sprintf(tt.src, srv.URL))

			app := nero.New(io.Discard, io.Discard, false)

			err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON})
			test.Err(t, err)
			test.True(t, errors.Is(err, tt.kind), test.Context("wrong error: %v", err))
		})
	}

	test.Equal(t, calls.Load(), int64(0), test.Context("nothing should have been sent"))
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	srv, calls := server(t)

	file := writeFile(t, fmt.Sprintf(`
@GET "%[1]s/one" {}
@PUT "%[1]s/two" {}
@GET "%[1]s/three" {}
`, srv.URL))

	stdout := &bytes.Buffer{}
	app := nero.New(stdout, io.Discard, false)

	err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatJSON})
	test.Err(t, err)
	test.True(t, errors.Is(err, executor.ErrUnsupportedMethod))
	test.Equal(t, err.Error(), "request #2: unsupported method: PUT")

	test.Equal(t, calls.Load(), int64(1), test.Context("only the first request should have been sent"))
	test.Equal(t, stdout.String(), "", test.Context("no partial report"))
}

func TestRunBadFormat(t *testing.T) {
	app := nero.New(io.Discard, io.Discard, false)

	err := app.Run(context.Background(), "doesnt-matter.ns", nero.RunOptions{Output: "xml"})
	test.Err(t, err)
	test.True(t, errors.Is(err, report.ErrUnknownFormat))
}

func TestFetch(t *testing.T) {
	srv, calls := server(t)

	stdout := &bytes.Buffer{}
	app := nero.New(stdout, io.Discard, true)

	err := app.Fetch(context.Background(), srv.URL+"/hello", nero.FetchOptions{
		Output:  report.FormatJSON,
		Timeout: 5 * time.Second,
	})
	test.Ok(t, err)
	test.Equal(t, calls.Load(), int64(1))

	var got []report.Record
	test.Ok(t, json.Unmarshal(stdout.Bytes(), &got))
	test.Equal(t, len(got), 1)
	test.Equal(t, got[0].Label, "fetch")
	test.Equal(t, got[0].Body, "GET /hello ")
}

func TestDebugLogs(t *testing.T) {
	srv, _ := server(t)

	file := writeFile(t, fmt.Sprintf(`#[ping] @GET "%s/ping" {}`, srv.URL))

	stderr := &bytes.Buffer{}
	app := nero.New(io.Discard, stderr, true)

	err := app.Run(context.Background(), file, nero.RunOptions{Output: report.FormatTable})
	test.Ok(t, err)

	test.True(t, strings.Contains(stderr.String(), "Sending request"), test.Context("stderr:\n%s", stderr.String()))

	stderr.Reset()
	quiet := nero.New(io.Discard, stderr, false)

	err = quiet.Run(context.Background(), file, nero.RunOptions{Output: report.FormatTable})
	test.Ok(t, err)
	test.Equal(t, stderr.String(), "", test.Context("debug logs without --debug"))
}
