// Package config provides configuration management for srcstage with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (SRCSTAGE_* prefix)
//  3. Project config (.srcstage/config.yaml)
//  4. Global config (~/.srcstage/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for srcstage.
type Config struct {
	// Stage contains settings for building and publishing the staged tree.
	Stage StageConfig `yaml:"stage" json:"stage" mapstructure:"stage"`

	// Patches contains settings for the patch series and how it is applied.
	Patches PatchesConfig `yaml:"patches" json:"patches" mapstructure:"patches"`

	// Git contains settings for branch and commit handling.
	Git GitConfig `yaml:"git" json:"git" mapstructure:"git"`

	// Source contains settings for importing upstream source archives.
	Source SourceConfig `yaml:"source" json:"source" mapstructure:"source"`

	// Commands contains settings shared by every external process.
	Commands CommandsConfig `yaml:"commands" json:"commands" mapstructure:"commands"`
}

// StageConfig contains settings for the staging pipeline.
type StageConfig struct {
	// StagingSuffix is appended to the output path to name the staging path.
	// Default: ".tmp"
	StagingSuffix string `yaml:"staging_suffix" json:"staging_suffix" mapstructure:"staging_suffix"`

	// Lock takes an advisory lock on the output tree for the whole run.
	// Default: false
	Lock bool `yaml:"lock" json:"lock" mapstructure:"lock"`

	// Reflink tries a copy-on-write clone before the plain copy.
	// Default: true
	Reflink bool `yaml:"reflink" json:"reflink" mapstructure:"reflink"`

	// HashWorkers bounds the goroutines checksumming files during a sync.
	// Default: 8
	HashWorkers int `yaml:"hash_workers" json:"hash_workers" mapstructure:"hash_workers"`
}

// PatchesConfig contains settings for the patch series.
type PatchesConfig struct {
	// Dir is the directory holding the series. Empty means no patches.
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`

	// Glob selects patch files inside Dir.
	// Default: "*"
	Glob string `yaml:"glob" json:"glob" mapstructure:"glob"`

	// Strip is the number of leading path components removed (patch -p).
	// Default: 1
	Strip int `yaml:"strip" json:"strip" mapstructure:"strip"`

	// AbortOnFailure stops the series at the first failing patch.
	// Default: true
	AbortOnFailure bool `yaml:"abort_on_failure" json:"abort_on_failure" mapstructure:"abort_on_failure"`

	// PublishPartial publishes the tree even when some patches failed with
	// AbortOnFailure unset.
	// Default: true
	PublishPartial bool `yaml:"publish_partial" json:"publish_partial" mapstructure:"publish_partial"`

	// Command is the patch binary.
	// Default: "patch"
	Command string `yaml:"command" json:"command" mapstructure:"command"`
}

// GitConfig contains settings for branch and commit handling.
type GitConfig struct {
	// ReferenceBranch is the branch new branches start from and imports are
	// compared against. It is never modified.
	// Default: "aosp/master"
	ReferenceBranch string `yaml:"reference_branch" json:"reference_branch" mapstructure:"reference_branch"`

	// BranchTemplate names the import branch; {version} is expanded.
	// Default: "update-source-{version}"
	BranchTemplate string `yaml:"branch_template" json:"branch_template" mapstructure:"branch_template"`

	// CommitTemplate is the import commit message; {version} is expanded.
	// Default: "Importing source {version}"
	CommitTemplate string `yaml:"commit_template" json:"commit_template" mapstructure:"commit_template"`

	// BranchTool creates branches with "git" or "repo".
	// Default: "git"
	BranchTool string `yaml:"branch_tool" json:"branch_tool" mapstructure:"branch_tool"`

	// BugURLTemplate turns a numeric bug id into a link; %s is the id.
	// Default: "http://b/%s"
	BugURLTemplate string `yaml:"bug_url_template" json:"bug_url_template" mapstructure:"bug_url_template"`
}

// SourceConfig contains settings for importing upstream source archives.
type SourceConfig struct {
	// URLTemplate is the stable-channel archive URL; {version} is expanded.
	URLTemplate string `yaml:"url_template" json:"url_template" mapstructure:"url_template"`

	// ChannelURLs maps a non-stable channel to its archive URL.
	ChannelURLs map[string]string `yaml:"channel_urls" json:"channel_urls" mapstructure:"channel_urls"`

	// RepoDir is the repository imports are recorded in. Empty means the
	// current directory.
	RepoDir string `yaml:"repo_dir" json:"repo_dir" mapstructure:"repo_dir"`
}

// CommandsConfig contains settings shared by every external process.
type CommandsConfig struct {
	// Timeout bounds one CLI invocation.
	// Default: 30m
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`
}
