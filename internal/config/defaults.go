package config

import (
	"github.com/mrz1836/srcstage/internal/constants"
)

// Default values shared by DefaultConfig and setDefaults.
const (
	defaultStagingSuffix   = ".tmp"
	defaultPatchGlob       = "*"
	defaultPatchStrip      = 1
	defaultPatchCommand    = "patch"
	defaultReferenceBranch = "aosp/master"
	defaultBranchTemplate  = "update-source-{version}"
	defaultCommitTemplate  = "Importing source {version}"
	defaultBranchTool      = "git"
	defaultBugURLTemplate  = "http://b/%s"
	defaultURLTemplate     = "https://static.rust-lang.org/dist/rustc-{version}-src.tar.gz"
)

// defaultChannelURLs returns a fresh copy of the non-stable archive URLs.
func defaultChannelURLs() map[string]string {
	return map[string]string{
		"beta":    "https://static.rust-lang.org/dist/rustc-beta-src.tar.gz",
		"nightly": "https://static.rust-lang.org/dist/rustc-nightly-src.tar.gz",
	}
}

// DefaultConfig returns a new Config with the built-in defaults.
// These are the base layer overridden by config files, environment
// variables and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Stage: StageConfig{
			StagingSuffix: defaultStagingSuffix,
			Lock:          false,
			Reflink:       true,
			HashWorkers:   constants.DefaultHashWorkers,
		},
		Patches: PatchesConfig{
			Dir:            "",
			Glob:           defaultPatchGlob,
			Strip:          defaultPatchStrip,
			AbortOnFailure: true,
			PublishPartial: true,
			Command:        defaultPatchCommand,
		},
		Git: GitConfig{
			ReferenceBranch: defaultReferenceBranch,
			BranchTemplate:  defaultBranchTemplate,
			CommitTemplate:  defaultCommitTemplate,
			BranchTool:      defaultBranchTool,
			BugURLTemplate:  defaultBugURLTemplate,
		},
		Source: SourceConfig{
			URLTemplate: defaultURLTemplate,
			ChannelURLs: defaultChannelURLs(),
			RepoDir:     "",
		},
		Commands: CommandsConfig{
			Timeout: constants.DefaultCommandTimeout,
		},
	}
}
