package config

import (
	"strings"

	"github.com/mrz1836/srcstage/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - stage.staging_suffix must not be empty and must not contain a path separator
//   - stage.hash_workers must be between 1 and 256
//   - patches.strip must not be negative
//   - patches.glob and patches.command must not be empty
//   - git.reference_branch must not be empty
//   - git.branch_tool must be "git" or "repo"
//   - git.branch_template must contain {version}
//   - commands.timeout must be positive
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateStageConfig(&cfg.Stage); err != nil {
		return err
	}
	if err := validatePatchesConfig(&cfg.Patches); err != nil {
		return err
	}
	if err := validateGitConfig(&cfg.Git); err != nil {
		return err
	}

	if cfg.Commands.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"commands.timeout must be positive, got %s", cfg.Commands.Timeout)
	}

	return nil
}

// validateStageConfig checks staging settings.
func validateStageConfig(cfg *StageConfig) error {
	if cfg.StagingSuffix == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "stage.staging_suffix must not be empty")
	}
	if strings.ContainsAny(cfg.StagingSuffix, `/\`) {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"stage.staging_suffix must not contain a path separator, got %q", cfg.StagingSuffix)
	}
	if cfg.HashWorkers < 1 || cfg.HashWorkers > 256 {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"stage.hash_workers must be between 1 and 256, got %d", cfg.HashWorkers)
	}
	return nil
}

// validatePatchesConfig checks patch-series settings.
func validatePatchesConfig(cfg *PatchesConfig) error {
	if cfg.Strip < 0 {
		return errors.Wrapf(errors.ErrConfigInvalid, "patches.strip must not be negative, got %d", cfg.Strip)
	}
	if cfg.Glob == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "patches.glob must not be empty")
	}
	if cfg.Command == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "patches.command must not be empty")
	}
	return nil
}

// validateGitConfig checks git settings.
func validateGitConfig(cfg *GitConfig) error {
	if cfg.ReferenceBranch == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "git.reference_branch must not be empty")
	}
	switch cfg.BranchTool {
	case "git", "repo":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid,
			"git.branch_tool must be \"git\" or \"repo\", got %q", cfg.BranchTool)
	}
	if !strings.Contains(cfg.BranchTemplate, "{version}") {
		return errors.Wrapf(errors.ErrConfigInvalid,
			"git.branch_template must contain {version}, got %q", cfg.BranchTemplate)
	}
	return nil
}
