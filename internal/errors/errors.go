// Package errors provides centralized error handling for srcstage.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrCopyFailed indicates the input tree could not be cloned into the
	// staging path, even after falling back to a plain copy.
	ErrCopyFailed = errors.New("copy failed")

	// ErrPatchFailed indicates one or more patches did not apply cleanly.
	ErrPatchFailed = errors.New("patch failed")

	// ErrSyncFailed indicates the staging tree could not be synchronized
	// into an existing output tree.
	ErrSyncFailed = errors.New("sync failed")

	// ErrStageLocked indicates another process holds the output tree lock.
	ErrStageLocked = errors.New("output tree is locked by another process")

	// ErrGitOperation indicates that a git command failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrGitLocked indicates a git command found the index or a ref locked by
	// another process.
	ErrGitLocked = errors.New("git repository is locked by another process")

	// ErrBranchExists indicates the branch already exists and overwriting
	// was not requested.
	ErrBranchExists = errors.New("branch already exists")

	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrFetchFailed indicates a source archive could not be downloaded or unpacked.
	ErrFetchFailed = errors.New("source fetch failed")

	// ErrCommandFailed indicates that an external command could not be started.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotConfigured indicates that a fake command was not scripted in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidVersion indicates a version string is not of the form X.Y.Z.
	ErrInvalidVersion = errors.New("invalid version string")

	// ErrUnknownChannel indicates a release channel has no archive URL configured.
	ErrUnknownChannel = errors.New("unknown release channel")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrJSONErrorOutput indicates that an error has already been output as JSON.
	// Commands should silence cobra's error printing when this is returned.
	ErrJSONErrorOutput = errors.New("error output as JSON")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
