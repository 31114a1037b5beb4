// Package cmd implements nero's CLI.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.followtheprocess.codes/cli"
	"go.followtheprocess.codes/nero/internal/nero"
	"go.followtheprocess.codes/nero/internal/report"
	"go.followtheprocess.codes/nero/internal/tui"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Build returns the root nero CLI command.
//
// Cancelling ctx cancels any request being sent.
func Build(ctx context.Context) (*cli.Command, error) {
	var envFile string
	return cli.New(
		"nero",
		cli.Short("Describe and send HTTP requests from .ns files"),
		cli.Allow(cli.NoArgs()),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Flag(&envFile, "env-file", 'e', "", "Dotenv file of extra variables"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			return tui.Run(ctx, cmd.Stdout(), cmd.Stderr(), envFile)
		}),
		cli.SubCommands(run(ctx), check, show, fetch(ctx)),
	)
}

// check returns the check subcommand.
func check() (*cli.Command, error) {
	var (
		options nero.CheckOptions
		debug   bool
	)
	return cli.New(
		"check",
		cli.Short("Check .ns files for syntax and semantic errors"),
		cli.Allow(cli.MinArgs(1)),
		cli.Flag(&options.EnvFile, "env-file", 'e', "", "Dotenv file of extra variables"),
		cli.Flag(&debug, "debug", 'd', false, "Enable debug logging"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			nero := nero.New(cmd.Stdout(), cmd.Stderr(), debug)
			return nero.Check(args, options)
		}),
	)
}

// show returns the show subcommand.
func show() (*cli.Command, error) {
	var options nero.ShowOptions
	return cli.New(
		"show",
		cli.Short("Show the contents of a .ns file"),
		cli.RequiredArg("file", "Path of the .ns file"),
		cli.Flag(&options.Resolve, "resolve", 'r', false, "Resolve the file, showing requests as they will be sent"),
		cli.Flag(&options.JSON, "json", 'j', false, "Output the file as JSON"),
		cli.Flag(&options.EnvFile, "env-file", 'e', "", "Dotenv file of extra variables, used with --resolve"),
		cli.Run(func(cmd *cli.Command, args []string) error {
			nero := nero.New(cmd.Stdout(), cmd.Stderr(), false)
			return nero.Show(cmd.Arg("file"), options)
		}),
	)
}

const runLong = `
The whole file is parsed, resolved and checked before any request is sent,
then each request is sent in order, one at a time. The first failure stops
the run.

Variables may be provided from a dotenv file with '--env-file', any assignment
in the file itself takes precedence.
`

// run returns the run subcommand.
func run(ctx context.Context) func() (*cli.Command, error) {
	return func() (*cli.Command, error) {
		var (
			options nero.RunOptions
			debug   bool
		)
		return cli.New(
			"run",
			cli.Short("Send the requests in a .ns file"),
			cli.Long(runLong),
			cli.RequiredArg("file", ".ns file containing the requests"),
			cli.Flag(&options.Output, "output", 'o', report.FormatJSON, outputUsage()),
			cli.Flag(&options.Only, "only", cli.NoShortHand, "", "Send only the request with this label (or #N)"),
			cli.Flag(&options.EnvFile, "env-file", 'e', "", "Dotenv file of extra variables"),
			cli.Flag(&options.Timeout, "timeout", cli.NoShortHand, 0, "Timeout for each request"),
			cli.Flag(
				&options.ConnectionTimeout,
				"connection-timeout",
				cli.NoShortHand,
				0,
				"Connection timeout for each request",
			),
			cli.Flag(&options.NoRedirect, "no-redirect", cli.NoShortHand, false, "Disable following redirects"),
			cli.Flag(&debug, "debug", 'd', false, "Enable debug logging"),
			cli.Run(func(cmd *cli.Command, args []string) error {
				nero := nero.New(cmd.Stdout(), cmd.Stderr(), debug)
				return nero.Run(ctx, cmd.Arg("file"), options)
			}),
		)
	}
}

// fetch returns the fetch subcommand.
func fetch(ctx context.Context) func() (*cli.Command, error) {
	return func() (*cli.Command, error) {
		var (
			options nero.FetchOptions
			debug   bool
		)
		return cli.New(
			"fetch",
			cli.Short("Send a single request without a .ns file"),
			cli.RequiredArg("url", "The url to send the request to"),
			cli.Flag(&options.Method, "method", 'm', "GET", "The HTTP method, GET or POST"),
			cli.Flag(&options.Timeout, "timeout", 't', 0, "Timeout for the request"),
			cli.Flag(&options.Output, "output", 'o', report.FormatJSON, outputUsage()),
			cli.Flag(&debug, "debug", 'd', false, "Enable debug logging"),
			cli.Run(func(cmd *cli.Command, args []string) error {
				nero := nero.New(cmd.Stdout(), cmd.Stderr(), debug)
				return nero.Fetch(ctx, cmd.Arg("url"), options)
			}),
		)
	}
}

// outputUsage returns the usage text for the --output flag.
func outputUsage() string {
	return fmt.Sprintf("Output format, one of %s", strings.Join(report.Formats(), ", "))
}
