package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGitRepo(t *testing.T) {
	dir := NewGitRepo(t, map[string]string{"a/b.txt": "b\n"})

	assert.Equal(t, MainBranch, Git(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Equal(t, "initial", Git(t, dir, "log", "-1", "--format=%s"))
	assert.Equal(t, "a/b.txt", Git(t, dir, "ls-files"))
	assert.Empty(t, Git(t, dir, "status", "--porcelain"))
}

func TestNewGitRepo_Empty(t *testing.T) {
	dir := NewGitRepo(t, nil)
	assert.Equal(t, "1", Git(t, dir, "rev-list", "--count", "HEAD"))
}

func TestWriteFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteFile(root, "x/y/z.txt", "z"))

	data, err := os.ReadFile(filepath.Join(root, "x", "y", "z.txt")) //#nosec G304 -- test temp dir
	require.NoError(t, err)
	assert.Equal(t, "z", string(data))
}

func TestMockErrors(t *testing.T) {
	assert.Equal(t, "network error", ErrMockNetwork.Error())
	assert.NotErrorIs(t, ErrMockNetwork, ErrMockExecNotFound)
}
