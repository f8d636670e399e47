// Package command runs external processes for srcstage.
//
// Every other component (patch application, git, archive fetching) goes
// through the Runner interface so the logic built on top of it can be tested
// with FakeRunner instead of real binaries.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// Command describes a single process invocation.
type Command struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Name is the executable, resolved through PATH.
	Name string
	// Args are passed verbatim; no shell is involved.
	Args []string
	// Stdin is optional input. Nil means an empty stdin.
	Stdin io.Reader
	// Quiet suppresses streaming of the process output. Output is always captured.
	Quiet bool
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited with status zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout and stderr joined, trimmed of surrounding whitespace.
func (r *Result) Output() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + "\n" + strings.TrimSpace(r.Stderr))
}

// Runner executes commands.
//
// A non-zero exit status is not an error: it is reported through
// Result.ExitCode so callers can interpret probe commands (such as
// "git diff --quiet") themselves. The error return is reserved for processes
// that could not be started and for context cancellation.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// DefaultRunner implements Runner using os/exec.
type DefaultRunner struct {
	// Out receives live stdout/stderr of non-quiet commands. Nil discards it.
	Out io.Writer
}

// NewDefaultRunner creates a runner that streams non-quiet output to out.
func NewDefaultRunner(out io.Writer) *DefaultRunner {
	return &DefaultRunner{Out: out}
}

// Run executes cmd and waits for it to finish.
func (r *DefaultRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("command name: %w", srcerrors.ErrEmptyValue)
	}

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...) //#nosec G204 -- args are constructed internally
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin

	var outBuf, errBuf bytes.Buffer
	if !cmd.Quiet && r.Out != nil {
		c.Stdout = io.MultiWriter(&outBuf, r.Out)
		c.Stderr = io.MultiWriter(&errBuf, r.Out)
	} else {
		c.Stdout = &outBuf
		c.Stderr = &errBuf
	}

	err := c.Run()
	result := &Result{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}

	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("%s: %w: %w", cmd.Name, srcerrors.ErrCommandFailed, err)
	}

	return result, nil
}

// Ensure DefaultRunner implements Runner.
var _ Runner = (*DefaultRunner)(nil)
