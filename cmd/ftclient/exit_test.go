package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

// captureExit replaces osExit for the duration of the test.
func captureExit(t *testing.T) *int {
	t.Helper()
	code := -1
	prev := osExit
	osExit = func(c int) { code = c }
	t.Cleanup(func() { osExit = prev })
	return &code
}

func testContext(stderr *bytes.Buffer) *cli.Context {
	return cli.NewContext(&cli.App{ErrWriter: stderr}, nil, nil)
}

func TestExitErrHandler_NilError(t *testing.T) {
	code := captureExit(t)
	exitErrHandler(nil, nil)
	if *code != -1 {
		t.Errorf("exit called with %d for nil error", *code)
	}
}

func TestExitErrHandler_ExitCoder(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"success no message", cli.Exit("", 0), 0, ""},
		{"transport failure", cli.Exit("connect failed", 1), 1, "connect failed\n"},
		{"invalid input", cli.Exit("invalid input: host must be non-empty", 2), 2, "invalid input: host must be non-empty\n"},
		{"command rejected", cli.Exit("flip1:30020 received incorrect command", 3), 3, "flip1:30020 received incorrect command\n"},
		{"file not found", cli.Exit("'a.txt' not found in directory", 4), 4, "'a.txt' not found in directory\n"},
		{"code only", cli.Exit("", 3), 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := captureExit(t)
			var stderr bytes.Buffer

			exitErrHandler(testContext(&stderr), tt.err)

			if *code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", *code, tt.wantCode)
			}
			if stderr.String() != tt.wantMsg {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.wantMsg)
			}
		})
	}
}

func TestExitErrHandler_WrappedExitCoder(t *testing.T) {
	code := captureExit(t)
	var stderr bytes.Buffer

	wrapped := errors.Join(errors.New("context"), cli.Exit("inner error", 42))
	exitErrHandler(testContext(&stderr), wrapped)

	if *code != 42 {
		t.Errorf("exit code = %d, want 42", *code)
	}
}

func TestExitErrHandler_RegularError(t *testing.T) {
	code := captureExit(t)
	var stderr bytes.Buffer

	exitErrHandler(testContext(&stderr), errors.New("regular error"))

	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
	if stderr.String() != "Error: regular error\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"list", "get", "version"} {
		if app.Command(name) == nil {
			t.Errorf("missing command %q", name)
		}
	}
}
