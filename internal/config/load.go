package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/srcstage/internal/constants"
	"github.com/mrz1836/srcstage/internal/errors"
)

// newViperInstance creates a Viper instance with the srcstage defaults and
// the SRCSTAGE_ environment prefix.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(ctx context.Context, v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("git.reference_branch", cfg.Git.ReferenceBranch).
		Str("patches.dir", cfg.Patches.Dir).
		Dur("commands.timeout", cfg.Commands.Timeout).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (SRCSTAGE_* prefix)
//  2. Project config (.srcstage/config.yaml)
//  3. Global config (~/.srcstage/config.yaml)
//  4. Built-in defaults
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(ctx, v)
}

// loadGlobalConfig attempts to load the global config file.
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalDir, err := GlobalConfigDir()
	if err != nil {
		return "", false
	}

	globalConfigPath := filepath.Join(globalDir, constants.ConfigFileName)
	if !fileExists(globalConfigPath) {
		return "", false
	}
	return globalConfigPath, true
}

// loadProjectConfig merges the project config file over the global one.
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
//
// Only non-zero values in overrides are applied. Boolean fields cannot be
// overridden to false this way; the CLI sets them directly when a flag was
// changed:
//
//	if cmd.Flags().Changed("lock") {
//	    cfg.Stage.Lock = lockFlag
//	}
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath has higher priority than globalConfigPath.
// Either path can be empty to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(ctx, v)
}

// setDefaults configures all default values on the Viper instance.
// Keys must match the mapstructure tags exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("stage.staging_suffix", d.Stage.StagingSuffix)
	v.SetDefault("stage.lock", d.Stage.Lock)
	v.SetDefault("stage.reflink", d.Stage.Reflink)
	v.SetDefault("stage.hash_workers", d.Stage.HashWorkers)

	v.SetDefault("patches.dir", d.Patches.Dir)
	v.SetDefault("patches.glob", d.Patches.Glob)
	v.SetDefault("patches.strip", d.Patches.Strip)
	v.SetDefault("patches.abort_on_failure", d.Patches.AbortOnFailure)
	v.SetDefault("patches.publish_partial", d.Patches.PublishPartial)
	v.SetDefault("patches.command", d.Patches.Command)

	v.SetDefault("git.reference_branch", d.Git.ReferenceBranch)
	v.SetDefault("git.branch_template", d.Git.BranchTemplate)
	v.SetDefault("git.commit_template", d.Git.CommitTemplate)
	v.SetDefault("git.branch_tool", d.Git.BranchTool)
	v.SetDefault("git.bug_url_template", d.Git.BugURLTemplate)

	v.SetDefault("source.url_template", d.Source.URLTemplate)
	v.SetDefault("source.channel_urls", d.Source.ChannelURLs)
	v.SetDefault("source.repo_dir", d.Source.RepoDir)

	v.SetDefault("commands.timeout", d.Commands.Timeout.String())
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Stage.StagingSuffix != "" {
		cfg.Stage.StagingSuffix = overrides.Stage.StagingSuffix
	}
	if overrides.Stage.HashWorkers != 0 {
		cfg.Stage.HashWorkers = overrides.Stage.HashWorkers
	}

	applyPatchesOverrides(cfg, overrides)
	applyGitOverrides(cfg, overrides)

	if overrides.Source.URLTemplate != "" {
		cfg.Source.URLTemplate = overrides.Source.URLTemplate
	}
	cfg.Source.ChannelURLs = mergeStringMaps(cfg.Source.ChannelURLs, overrides.Source.ChannelURLs)
	if overrides.Source.RepoDir != "" {
		cfg.Source.RepoDir = overrides.Source.RepoDir
	}

	if overrides.Commands.Timeout != 0 {
		cfg.Commands.Timeout = overrides.Commands.Timeout
	}
}

// applyPatchesOverrides applies patch-series overrides to the config.
func applyPatchesOverrides(cfg, overrides *Config) {
	if overrides.Patches.Dir != "" {
		cfg.Patches.Dir = overrides.Patches.Dir
	}
	if overrides.Patches.Glob != "" {
		cfg.Patches.Glob = overrides.Patches.Glob
	}
	if overrides.Patches.Strip != 0 {
		cfg.Patches.Strip = overrides.Patches.Strip
	}
	if overrides.Patches.Command != "" {
		cfg.Patches.Command = overrides.Patches.Command
	}
}

// applyGitOverrides applies git overrides to the config.
func applyGitOverrides(cfg, overrides *Config) {
	if overrides.Git.ReferenceBranch != "" {
		cfg.Git.ReferenceBranch = overrides.Git.ReferenceBranch
	}
	if overrides.Git.BranchTemplate != "" {
		cfg.Git.BranchTemplate = overrides.Git.BranchTemplate
	}
	if overrides.Git.CommitTemplate != "" {
		cfg.Git.CommitTemplate = overrides.Git.CommitTemplate
	}
	if overrides.Git.BranchTool != "" {
		cfg.Git.BranchTool = overrides.Git.BranchTool
	}
	if overrides.Git.BugURLTemplate != "" {
		cfg.Git.BugURLTemplate = overrides.Git.BugURLTemplate
	}
}

// mergeStringMaps merges src map into dst map, creating dst if nil.
func mergeStringMaps(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
