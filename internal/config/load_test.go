package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/srcstage/internal/constants"
	"github.com/mrz1836/srcstage/internal/errors"
)

// isolate runs the test in an empty directory with an empty global home.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(constants.EnvHome, home)
	t.Chdir(t.TempDir())
	return home
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err, "Load should not fail when no config file exists")
	require.NotNil(t, cfg)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "aosp/master", cfg.Git.ReferenceBranch)
	assert.True(t, cfg.Patches.PublishPartial)
	assert.Equal(t, constants.DefaultCommandTimeout, cfg.Commands.Timeout)
}

func TestLoad_GlobalThenProject(t *testing.T) {
	home := isolate(t)

	writeConfig(t, filepath.Join(home, constants.ConfigFileName), `
git:
  reference_branch: upstream/main
  branch_tool: repo
patches:
  strip: 2
`)
	writeConfig(t, ProjectConfigPath(), `
git:
  reference_branch: goog/main
`)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "goog/main", cfg.Git.ReferenceBranch, "project overrides global")
	assert.Equal(t, "repo", cfg.Git.BranchTool, "global value survives")
	assert.Equal(t, 2, cfg.Patches.Strip)
}

func TestLoad_EnvVarOverridesConfigFile(t *testing.T) {
	isolate(t)

	writeConfig(t, ProjectConfigPath(), `
patches:
  dir: from-file
commands:
  timeout: 5m
`)
	t.Setenv("SRCSTAGE_PATCHES_DIR", "from-env")
	t.Setenv("SRCSTAGE_STAGE_LOCK", "true")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Patches.Dir)
	assert.True(t, cfg.Stage.Lock)
	assert.Equal(t, 5*time.Minute, cfg.Commands.Timeout)
}

func TestLoad_InvalidProjectConfig(t *testing.T) {
	isolate(t)

	writeConfig(t, ProjectConfigPath(), `
git:
  branch_tool: svn
`)

	_, err := Load(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "git.branch_tool")
}

func TestLoadFromPaths_ProjectConfigOverridesGlobal(t *testing.T) {
	t.Setenv(constants.EnvHome, t.TempDir())
	dir := t.TempDir()

	globalConfig := filepath.Join(dir, "global.yaml")
	writeConfig(t, globalConfig, `
stage:
  staging_suffix: .staging
  hash_workers: 4
patches:
  abort_on_failure: false
`)
	projectConfig := filepath.Join(dir, "project.yaml")
	writeConfig(t, projectConfig, `
stage:
  hash_workers: 16
source:
  channel_urls:
    beta: https://example.com/beta.tar.gz
`)

	cfg, err := LoadFromPaths(context.Background(), projectConfig, globalConfig)
	require.NoError(t, err)

	assert.Equal(t, ".staging", cfg.Stage.StagingSuffix)
	assert.Equal(t, 16, cfg.Stage.HashWorkers)
	assert.False(t, cfg.Patches.AbortOnFailure)
	assert.Equal(t, "https://example.com/beta.tar.gz", cfg.Source.ChannelURLs["beta"])
}

func TestLoadFromPaths_MissingFilesUseDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromPaths(context.Background(),
		filepath.Join(dir, "missing-project.yaml"),
		filepath.Join(dir, "missing-global.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultPatchGlob, cfg.Patches.Glob)
}

func TestLoadFromPaths_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "stage: [unterminated\n")

	_, err := LoadFromPaths(context.Background(), path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read project config")
}

func TestLoadWithOverrides(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithOverrides(context.Background(), &Config{
		Patches: PatchesConfig{Dir: "/srv/patches", Strip: 3},
		Git:     GitConfig{ReferenceBranch: "origin/main"},
		Source:  SourceConfig{ChannelURLs: map[string]string{"dev": "https://example.com/dev.tar.gz"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/srv/patches", cfg.Patches.Dir)
	assert.Equal(t, 3, cfg.Patches.Strip)
	assert.Equal(t, "origin/main", cfg.Git.ReferenceBranch)
	assert.Equal(t, defaultBranchTemplate, cfg.Git.BranchTemplate, "zero values are not applied")
	assert.Contains(t, cfg.Source.ChannelURLs, "dev")
	assert.Contains(t, cfg.Source.ChannelURLs, "nightly")
}

func TestLoadWithOverrides_InvalidOverride(t *testing.T) {
	isolate(t)

	_, err := LoadWithOverrides(context.Background(), &Config{Stage: StageConfig{StagingSuffix: "/tmp"}})
	require.ErrorIs(t, err, errors.ErrConfigInvalid)
}

func TestMergeStringMaps(t *testing.T) {
	assert.Nil(t, mergeStringMaps(nil, nil))
	assert.Equal(t, map[string]string{"a": "1"}, mergeStringMaps(nil, map[string]string{"a": "1"}))
	assert.Equal(t, map[string]string{"a": "2", "b": "3"},
		mergeStringMaps(map[string]string{"a": "1", "b": "3"}, map[string]string{"a": "2"}))
}
