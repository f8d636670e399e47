package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinels to user-facing text.
// A slice (not a map) because lookups go through errors.Is().
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	{
		err: ErrCopyFailed,
		info: ErrorInfo{
			Message: "Could not copy the input tree into the staging directory.",
			Action:  "Check free disk space and permissions on the output parent directory.",
		},
	},
	{
		err: ErrPatchFailed,
		info: ErrorInfo{
			Message: "A patch did not apply cleanly. The staging directory was kept for inspection.",
			Action:  "Refresh the failing patch, or rerun with --no-patch-abort while developing locally.",
		},
	},
	{
		err: ErrSyncFailed,
		info: ErrorInfo{
			Message: "Could not synchronize the staging directory into the output tree.",
			Action:  "Inspect the staging directory left next to the output tree and rerun.",
		},
	},
	{
		err: ErrStageLocked,
		info: ErrorInfo{
			Message: "Another srcstage process is publishing into the same output tree.",
			Action:  "Wait for the other run to finish.",
		},
	},
	{
		err: ErrBranchExists,
		info: ErrorInfo{
			Message: "The branch already exists and --overwrite was not given.",
			Action:  "Pass --overwrite to reuse the branch, or delete it first.",
		},
	},
	{
		err: ErrNotGitRepo,
		info: ErrorInfo{
			Message: "The target directory is not a git repository.",
			Action:  "Pass --repo pointing at a git working copy.",
		},
	},
	{
		err: ErrGitLocked,
		info: ErrorInfo{
			Message: "Another git process holds the repository lock.",
			Action:  "Wait for the other git process to finish, or remove a stale .git/index.lock, then rerun.",
		},
	},
	{
		err: ErrGitOperation,
		info: ErrorInfo{
			Message: "A git command failed.",
			Action:  "Rerun with --verbose to see the failing command and its output.",
		},
	},
	{
		err: ErrFetchFailed,
		info: ErrorInfo{
			Message: "Could not download or unpack the source archive.",
			Action:  "Check the version string and network access, then retry.",
		},
	},
	{
		err: ErrInvalidVersion,
		info: ErrorInfo{
			Message: "The version must look like 1.2.3.",
		},
	},
	{
		err: ErrConfigInvalid,
		info: ErrorInfo{
			Message: "The configuration is invalid.",
			Action:  "Run 'srcstage config show' and fix the reported key.",
		},
	},
}

// UserMessage returns a user-friendly message for err.
// Unknown errors return their own Error() text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info.Message
		}
	}
	return err.Error()
}

// Actionable returns the user-facing message and suggested action for err.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info.Message, entry.info.Action
		}
	}
	return err.Error(), ""
}
