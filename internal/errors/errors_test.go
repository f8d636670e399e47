package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{
		srcerrors.ErrCopyFailed,
		srcerrors.ErrPatchFailed,
		srcerrors.ErrSyncFailed,
		srcerrors.ErrStageLocked,
		srcerrors.ErrGitOperation,
		srcerrors.ErrGitLocked,
		srcerrors.ErrBranchExists,
		srcerrors.ErrNotGitRepo,
		srcerrors.ErrFetchFailed,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIs(t, a, b)
		}
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, srcerrors.Wrap(nil, "context"))
		assert.NoError(t, srcerrors.Wrapf(nil, "context %d", 1))
	})

	t.Run("preserves chain", func(t *testing.T) {
		err := srcerrors.Wrapf(srcerrors.ErrSyncFailed, "syncing %s", "/out")
		require.ErrorIs(t, err, srcerrors.ErrSyncFailed)
		assert.Equal(t, "syncing /out: sync failed", err.Error())
	})
}

func TestExitCode2Error(t *testing.T) {
	err := srcerrors.NewExitCode2Error(srcerrors.ErrInvalidVersion)
	assert.True(t, srcerrors.IsExitCode2Error(err))
	assert.True(t, srcerrors.IsExitCode2Error(srcerrors.Wrap(err, "parsing args")))
	assert.ErrorIs(t, err, srcerrors.ErrInvalidVersion)
	assert.False(t, srcerrors.IsExitCode2Error(srcerrors.ErrPatchFailed))
	assert.False(t, srcerrors.IsExitCode2Error(nil))
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("publish: %w", srcerrors.ErrPatchFailed)
	assert.Contains(t, srcerrors.UserMessage(wrapped), "did not apply cleanly")

	plain := stderrors.New("something odd")
	assert.Equal(t, "something odd", srcerrors.UserMessage(plain))
	assert.Empty(t, srcerrors.UserMessage(nil))
}

func TestActionable(t *testing.T) {
	msg, action := srcerrors.Actionable(srcerrors.Wrap(srcerrors.ErrBranchExists, "ensure branch"))
	assert.NotEmpty(t, msg)
	assert.Contains(t, action, "--overwrite")

	msg, action = srcerrors.Actionable(srcerrors.ErrInvalidVersion)
	assert.NotEmpty(t, msg)
	assert.Empty(t, action)
}
