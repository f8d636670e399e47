package command

import (
	"context"
	"fmt"
	"strings"
	"sync"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// FakeRunner is a scripted, recording Runner for tests.
//
// Responses are matched against the rendered command line in registration
// order; the first rule whose substring is contained in the line wins.
// Unmatched commands return Default, or ErrCommandNotConfigured when Default
// is nil.
type FakeRunner struct {
	// Default is returned for commands no rule matches.
	Default *Result

	mu    sync.Mutex
	rules []fakeRule
	calls []Command
}

type fakeRule struct {
	contains string
	fn       func(Command) (*Result, error)
}

// NewFakeRunner creates an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// On scripts a fixed result for commands whose line contains substr.
func (f *FakeRunner) On(substr string, result Result) *FakeRunner {
	return f.OnFunc(substr, func(Command) (*Result, error) {
		r := result
		return &r, nil
	})
}

// OnExit scripts an exit code with the given stderr.
func (f *FakeRunner) OnExit(substr string, exitCode int, stderr string) *FakeRunner {
	return f.On(substr, Result{ExitCode: exitCode, Stderr: stderr})
}

// OnError scripts a start failure.
func (f *FakeRunner) OnError(substr string, err error) *FakeRunner {
	return f.OnFunc(substr, func(Command) (*Result, error) {
		return nil, err
	})
}

// OnFunc scripts a callback, useful for side effects on the filesystem.
func (f *FakeRunner) OnFunc(substr string, fn func(Command) (*Result, error)) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, fakeRule{contains: substr, fn: fn})
	return f
}

// Run records cmd and returns the scripted response.
func (f *FakeRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	rules := append([]fakeRule(nil), f.rules...)
	f.mu.Unlock()

	line := cmd.String()
	for _, rule := range rules {
		if strings.Contains(line, rule.contains) {
			return rule.fn(cmd)
		}
	}

	if f.Default != nil {
		r := *f.Default
		return &r, nil
	}
	return nil, fmt.Errorf("%q: %w", line, srcerrors.ErrCommandNotConfigured)
}

// Calls returns a copy of every recorded command.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// Lines returns the recorded command lines in call order.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, c.String())
	}
	return lines
}

// Ensure FakeRunner implements Runner.
var _ Runner = (*FakeRunner)(nil)
