// Package git provides the version-control operations srcstage needs.
// This file provides error sentinel re-exports from internal/errors.
package git

import (
	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// ErrGitOperation is re-exported from internal/errors for convenience.
// Use errors.Is(err, ErrGitOperation) to check for git operation failures.
var ErrGitOperation = srcerrors.ErrGitOperation

// ErrBranchExists is re-exported from internal/errors for convenience.
// Returned when a branch exists and overwriting it was not requested.
var ErrBranchExists = srcerrors.ErrBranchExists

// ErrNotGitRepo is re-exported from internal/errors for convenience.
// Returned when the path is not a git repository.
var ErrNotGitRepo = srcerrors.ErrNotGitRepo

// ErrGitLocked is re-exported from internal/errors for convenience.
// Returned when another process holds the index or a ref lock.
var ErrGitLocked = srcerrors.ErrGitLocked
