package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/srcstage/internal/errors"
)

func TestBranchCmd_CreatesFromReference(t *testing.T) {
	isolateConfig(t)
	dir := createTestGitRepo(t)

	stdout, _, err := runCLI(t, gitRunner(), "branch", "update-source-1.2.3", "--repo", dir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Created branch update-source-1.2.3 from main")
	assert.Equal(t, "update-source-1.2.3", gitCmd(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
}

func TestBranchCmd_ExistingBranch(t *testing.T) {
	isolateConfig(t)
	dir := createTestGitRepo(t)
	gitCmd(t, dir, "branch", "update-source-1.2.3")

	_, _, err := runCLI(t, gitRunner(), "branch", "update-source-1.2.3", "--repo", dir)
	require.ErrorIs(t, err, errors.ErrBranchExists)
	assert.Equal(t, ExitError, ExitCodeForError(err))
	assert.Equal(t, "main", gitCmd(t, dir, "rev-parse", "--abbrev-ref", "HEAD"), "nothing changes")

	stdout, _, err := runCLI(t, gitRunner(), "branch", "update-source-1.2.3", "--repo", dir, "--overwrite")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Checked out existing branch update-source-1.2.3")
}

func TestBranchCmd_NotARepository(t *testing.T) {
	isolateConfig(t)
	createTestGitRepo(t)

	_, _, err := runCLI(t, gitRunner(), "branch", "x", "--repo", t.TempDir())
	require.ErrorIs(t, err, errors.ErrNotGitRepo)
}

func TestBranchCmd_RequiresName(t *testing.T) {
	isolateConfig(t)

	_, _, err := runCLI(t, nil, "branch")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRecordCmd_CommitThenAmend(t *testing.T) {
	isolateConfig(t)
	dir := createTestGitRepo(t)

	_, _, err := runCLI(t, gitRunner(), "branch", "update-prebuilts", "--repo", dir)
	require.NoError(t, err)

	writeTree(t, dir, map[string]string{"prebuilt/bin": "v1\n"})
	stdout, _, err := runCLI(t, gitRunner(), "record", "--repo", dir, "-m", "Update prebuilts", "--bug", "42")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Committed changes on update-prebuilts")
	assert.Equal(t, "Update prebuilts\n\nBug: http://b/42", gitCmd(t, dir, "log", "-1", "--format=%B"))

	writeTree(t, dir, map[string]string{"prebuilt/bin": "v2\n"})
	require.NoError(t, os.Remove(filepath.Join(dir, "OLD_FILE")))
	stdout, _, err = runCLI(t, gitRunner(), "record", "--repo", dir, "-m", "ignored on amend")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Amended import commit on update-prebuilts")

	assert.Equal(t, "2", gitCmd(t, dir, "rev-list", "--count", "HEAD"), "repeated records collapse into one commit")
	assert.Equal(t, "Update prebuilts", gitCmd(t, dir, "log", "-1", "--format=%s"))
	assert.Empty(t, gitCmd(t, dir, "status", "--porcelain"))
}

func TestRecordCmd_NoChanges(t *testing.T) {
	isolateConfig(t)
	dir := createTestGitRepo(t)

	stdout, _, err := runCLI(t, gitRunner(), "record", "--repo", dir, "-m", "nothing")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No changes to commit")
	assert.Equal(t, "1", gitCmd(t, dir, "rev-list", "--count", "HEAD"))
}

func TestRecordCmd_PatternLimitsStaging(t *testing.T) {
	isolateConfig(t)
	dir := createTestGitRepo(t)

	writeTree(t, dir, map[string]string{"keep/a": "a\n", "skip/b": "b\n"})
	_, _, err := runCLI(t, gitRunner(), "record", "--repo", dir, "-m", "Keep only", "--pattern", "keep")
	require.NoError(t, err)

	assert.Equal(t, "keep/a", gitCmd(t, dir, "show", "--name-only", "--format=", "HEAD"))
	assert.Contains(t, gitCmd(t, dir, "status", "--porcelain"), "skip/")
}

func TestRecordCmd_DetachedHeadIsLogged(t *testing.T) {
	isolateConfig(t)
	dir := createTestGitRepo(t)
	gitCmd(t, dir, "checkout", "--quiet", "--detach")
	writeTree(t, dir, map[string]string{"prebuilt/bin": "v1\n"})

	var logs bytes.Buffer
	a := &app{flags: &GlobalFlags{Output: OutputText}, runner: gitRunner(), logWriter: &logs}
	cmd := buildRootCmd(a, BuildInfo{Version: "test"})
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"-v", "record", "--repo", dir, "-m", "Detached update"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, stdout.String(), "Committed changes on detached HEAD")
	assert.Contains(t, logs.String(), "could not determine current branch")
	assert.Contains(t, logs.String(), "detached HEAD state")
}

func TestRecordCmd_RequiresMessage(t *testing.T) {
	isolateConfig(t)

	_, _, err := runCLI(t, nil, "record")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}
