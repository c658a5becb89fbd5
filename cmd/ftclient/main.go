// Package main provides the ftclient CLI entrypoint.
//
// Usage:
//
//	ftclient [--config ftclient.yaml] <command> [options]
//
// Exit codes for list and get:
//   - 0: success
//   - 1: transport or protocol failure
//   - 2: invalid input
//   - 3: command rejected by the server
//   - 4: file not found on the server
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ftclient/cli/cmd"
	"github.com/pithecene-io/ftclient/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

// osExit is replaced in tests.
var osExit = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		stop()
		osExit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "ftclient",
		Usage:          "List and download files from an ftserver",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: ./ftclient.yaml when present)",
				EnvVars: []string{"FTCLIENT_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			cmd.ListCommand(),
			cmd.GetCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}

	var stderr io.Writer = os.Stderr
	if c != nil && c.App != nil && c.App.ErrWriter != nil {
		stderr = c.App.ErrWriter
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			_, _ = fmt.Fprintln(stderr, msg)
		}
		osExit(code)
		return
	}

	// Unexpected error - print and exit with code 1
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	osExit(1)
}
