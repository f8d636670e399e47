package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/constants"
	"github.com/mrz1836/srcstage/internal/logging"
	"github.com/mrz1836/srcstage/internal/tui"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault ConfigSource = "default"
	// SourceGlobal indicates the value came from global config.
	SourceGlobal ConfigSource = "global"
	// SourceProject indicates the value came from project config.
	SourceProject ConfigSource = "project"
	// SourceEnv indicates the value came from an environment variable.
	SourceEnv ConfigSource = "env"
)

// ConfigValueWithSource represents a configuration value with its source.
type ConfigValueWithSource struct {
	Value  any          `json:"value" yaml:"value"`
	Source ConfigSource `json:"source" yaml:"source"`
	Env    string       `json:"env" yaml:"env"`
}

// AnnotatedConfig maps section name to key to annotated value.
type AnnotatedConfig map[string]map[string]ConfigValueWithSource

// configEntry is one displayed setting.
type configEntry struct {
	section string
	key     string
	value   any
}

// configShowOptions holds the config show flags.
type configShowOptions struct {
	raw bool
}

// newConfigCmd creates the 'config' parent command.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect srcstage configuration",
	}
	cmd.AddCommand(newConfigShowCmd(a))
	return cmd
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(a *app) *cobra.Command {
	opts := &configShowOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display the effective srcstage configuration with source annotations.

Each value shows where it comes from:
  - default: Built-in default value
  - global: From ~/.srcstage/config.yaml (or $SRCSTAGE_HOME/config.yaml)
  - project: From .srcstage/config.yaml
  - env: From a SRCSTAGE_* environment variable

Credentials embedded in URLs are masked.`,
		Example: `  srcstage config show
  srcstage config show -o json
  srcstage config show --raw > .srcstage/config.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, a, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the effective configuration as plain YAML")

	return cmd
}

func runConfigShow(cmd *cobra.Command, a *app, opts *configShowOptions) error {
	ctx := cmd.Context()
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	w := cmd.OutOrStdout()
	if opts.raw {
		return outputRawYAML(w, cfg)
	}

	annotated := buildAnnotatedConfig(cfg)
	if a.jsonOutput() {
		return tui.NewOutput(w, OutputJSON).JSON(annotated)
	}
	outputAnnotated(w, annotated)
	return nil
}

// configEntries lists every setting in display order.
func configEntries(cfg *config.Config) []configEntry {
	return []configEntry{
		{"stage", "staging_suffix", cfg.Stage.StagingSuffix},
		{"stage", "lock", cfg.Stage.Lock},
		{"stage", "reflink", cfg.Stage.Reflink},
		{"stage", "hash_workers", cfg.Stage.HashWorkers},
		{"patches", "dir", cfg.Patches.Dir},
		{"patches", "glob", cfg.Patches.Glob},
		{"patches", "strip", cfg.Patches.Strip},
		{"patches", "abort_on_failure", cfg.Patches.AbortOnFailure},
		{"patches", "publish_partial", cfg.Patches.PublishPartial},
		{"patches", "command", cfg.Patches.Command},
		{"git", "reference_branch", cfg.Git.ReferenceBranch},
		{"git", "branch_template", cfg.Git.BranchTemplate},
		{"git", "commit_template", cfg.Git.CommitTemplate},
		{"git", "branch_tool", cfg.Git.BranchTool},
		{"git", "bug_url_template", cfg.Git.BugURLTemplate},
		{"source", "url_template", logging.SafeURL(cfg.Source.URLTemplate)},
		{"source", "channel_urls", safeURLMap(cfg.Source.ChannelURLs)},
		{"source", "repo_dir", cfg.Source.RepoDir},
		{"commands", "timeout", cfg.Commands.Timeout.String()},
	}
}

// configSections lists the section names in display order.
func configSections() []string {
	return []string{"stage", "patches", "git", "source", "commands"}
}

// buildAnnotatedConfig creates an annotated configuration with source information.
func buildAnnotatedConfig(cfg *config.Config) AnnotatedConfig {
	var global configValues
	if path, err := config.GlobalConfigPath(); err == nil {
		global = loadConfigFile(path)
	}
	project := loadConfigFile(config.ProjectConfigPath())

	annotated := make(AnnotatedConfig)
	for _, e := range configEntries(cfg) {
		if annotated[e.section] == nil {
			annotated[e.section] = make(map[string]ConfigValueWithSource)
		}
		annotated[e.section][e.key] = determineSource(e.section+"."+e.key, e.value, global, project)
	}
	return annotated
}

// configValues holds the dotted keys set in one config file.
type configValues map[string]any

// loadConfigFile reads the keys set in a config file. A missing or
// unreadable file yields nil.
func loadConfigFile(path string) configValues {
	data, err := os.ReadFile(path) //nolint:gosec // Config file path
	if err != nil {
		return nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}

	result := make(configValues)
	for section, body := range doc {
		fields, ok := body.(map[string]any)
		if !ok {
			result[section] = body
			continue
		}
		for key, value := range fields {
			result[section+"."+key] = value
		}
	}
	return result
}

// envKey returns the environment variable that overrides a dotted key.
func envKey(key string) string {
	return constants.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// determineSource determines where a configuration value came from.
func determineSource(key string, value any, global, project configValues) ConfigValueWithSource {
	env := envKey(key)
	vs := ConfigValueWithSource{Value: value, Source: SourceDefault, Env: env}

	if _, ok := os.LookupEnv(env); ok {
		vs.Source = SourceEnv
		return vs
	}
	if _, ok := project[key]; ok {
		vs.Source = SourceProject
		return vs
	}
	if _, ok := global[key]; ok {
		vs.Source = SourceGlobal
	}
	return vs
}

// safeURLMap returns m with every value passed through logging.SafeURL.
func safeURLMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = logging.SafeURL(v)
	}
	return out
}

// outputRawYAML writes the effective configuration as a config file.
func outputRawYAML(w io.Writer, cfg *config.Config) error {
	safe := *cfg
	safe.Source.URLTemplate = logging.SafeURL(cfg.Source.URLTemplate)
	safe.Source.ChannelURLs = safeURLMap(cfg.Source.ChannelURLs)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&safe); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

// configShowStyles contains styling for the config show command output.
type configShowStyles struct {
	header    lipgloss.Style
	section   lipgloss.Style
	key       lipgloss.Style
	sourceEnv lipgloss.Style
	sourcePrj lipgloss.Style
	sourceGbl lipgloss.Style
	sourceDef lipgloss.Style
	dim       lipgloss.Style
}

// newConfigShowStyles creates styles for config show command output.
func newConfigShowStyles() *configShowStyles {
	return &configShowStyles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(tui.ColorPrimary),
		section:   tui.StyleBold,
		key:       lipgloss.NewStyle().Foreground(tui.ColorPrimary),
		sourceEnv: lipgloss.NewStyle().Foreground(tui.ColorError),
		sourcePrj: lipgloss.NewStyle().Foreground(tui.ColorWarning),
		sourceGbl: lipgloss.NewStyle().Foreground(tui.ColorSuccess),
		sourceDef: lipgloss.NewStyle().Foreground(tui.ColorMuted),
		dim:       tui.StyleDim,
	}
}

// outputAnnotated prints the configuration with a source comment per value.
func outputAnnotated(w io.Writer, annotated AnnotatedConfig) {
	tui.CheckNoColor()
	styles := newConfigShowStyles()

	_, _ = fmt.Fprintln(w, styles.header.Render("Effective srcstage configuration"))
	_, _ = fmt.Fprintln(w, styles.dim.Render("Sources: ")+
		styles.sourceEnv.Render("env")+" > "+
		styles.sourcePrj.Render("project")+" > "+
		styles.sourceGbl.Render("global")+" > "+
		styles.sourceDef.Render("default"))
	_, _ = fmt.Fprintln(w)

	for _, section := range configSections() {
		values := annotated[section]
		_, _ = fmt.Fprintln(w, styles.section.Render(section+":"))

		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			vs := values[k]
			_, _ = fmt.Fprintf(w, "  %s: %s  %s\n",
				styles.key.Render(k),
				formatConfigValue(vs.Value),
				getSourceStyle(vs.Source, styles).Render("# "+string(vs.Source)))
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintln(w, styles.dim.Render("Configuration files:"))
	if globalPath, err := config.GlobalConfigPath(); err == nil {
		_, _ = fmt.Fprintln(w, styles.dim.Render("  Global: ")+describePath(globalPath, styles.sourceGbl, styles))
	}
	projectPath := config.ProjectConfigPath()
	if abs, err := filepath.Abs(projectPath); err == nil {
		projectPath = abs
	}
	_, _ = fmt.Fprintln(w, styles.dim.Render("  Project: ")+describePath(projectPath, styles.sourcePrj, styles))
}

// describePath renders path, marking it when the file does not exist.
func describePath(path string, found lipgloss.Style, styles *configShowStyles) string {
	if _, err := os.Stat(path); err == nil {
		return found.Render(path)
	}
	return styles.dim.Render(path + " (not found)")
}

// formatConfigValue converts a configuration value to a displayable string.
func formatConfigValue(value any) string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "(not set)"
		}
		return v
	case map[string]string:
		if len(v) == 0 {
			return "{}"
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+v[k])
		}
		return "{" + strings.Join(pairs, ", ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// getSourceStyle returns the appropriate style for a config source.
func getSourceStyle(source ConfigSource, styles *configShowStyles) lipgloss.Style {
	switch source {
	case SourceEnv:
		return styles.sourceEnv
	case SourceProject:
		return styles.sourcePrj
	case SourceGlobal:
		return styles.sourceGbl
	case SourceDefault:
		return styles.sourceDef
	default:
		return styles.sourceDef
	}
}
