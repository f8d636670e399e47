// Package git provides the version-control operations srcstage needs to
// record an imported source tree as a single reviewable commit.
// This file provides shared git command execution utilities.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrz1836/srcstage/internal/command"
	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// gitBinary is the executable used for every git invocation.
const gitBinary = "git"

// RunCommand executes a git command through runner in workDir and returns its
// trimmed stdout. A non-zero exit is wrapped with ErrGitOperation and includes
// stderr for debugging.
func RunCommand(ctx context.Context, runner command.Runner, workDir string, args ...string) (string, error) {
	result, err := probe(ctx, runner, workDir, args...)
	if err != nil {
		return "", err
	}
	if result.Success() {
		return strings.TrimSpace(result.Stdout), nil
	}
	if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
		return "", fmt.Errorf("git %s failed: %s: %w", args[0], stderr, srcerrors.ErrGitOperation)
	}
	return "", fmt.Errorf("git %s failed with exit code %d: %w", args[0], result.ExitCode, srcerrors.ErrGitOperation)
}

// probe runs a git command whose exit code carries meaning. The error return
// is reserved for cancellation and processes that could not be started.
func probe(ctx context.Context, runner command.Runner, workDir string, args ...string) (*command.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("git arguments: %w", srcerrors.ErrEmptyValue)
	}

	result, err := runner.Run(ctx, command.Command{
		Dir:   workDir,
		Name:  gitBinary,
		Args:  args,
		Quiet: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("git %s: %w: %w", args[0], srcerrors.ErrGitOperation, err)
	}
	return result, nil
}
