package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/patch"
	"github.com/mrz1836/srcstage/internal/tui"
)

// patchesOptions holds the patches command flags.
type patchesOptions struct {
	patchDir string
	glob     string
	strip    int
}

func newPatchesCmd(a *app) *cobra.Command {
	opts := &patchesOptions{}

	cmd := &cobra.Command{
		Use:   "patches",
		Short: "List a patch series in apply order",
		Long: `List the patches publish would apply, in the order it applies them,
with the number of files and lines each one touches.`,
		Example: `  srcstage patches --patches patches/rust
  srcstage patches --patches patches/rust -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPatches(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.patchDir, "patches", "", "directory holding the patch series (default from config)")
	cmd.Flags().StringVar(&opts.glob, "glob", "", "glob selecting patch files (default from config)")
	cmd.Flags().IntVar(&opts.strip, "strip", patch.DefaultStrip, "leading path components to strip from patch file names")

	return cmd
}

func runPatches(cmd *cobra.Command, a *app, opts *patchesOptions) error {
	ctx := cmd.Context()

	cfg, err := a.loadConfig(ctx, &config.Config{
		Patches: config.PatchesConfig{Dir: opts.patchDir, Glob: opts.glob},
	})
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strip") {
		cfg.Patches.Strip = opts.strip
	}

	series, err := patch.LoadSeries(cfg.Patches.Dir, cfg.Patches.Glob)
	if err != nil {
		return err
	}

	stats, err := patch.InspectSeries(ctx, series, cfg.Patches.Strip)
	if err != nil {
		return err
	}

	out := a.output(cmd)
	if a.jsonOutput() {
		return out.JSON(stats)
	}

	if len(stats) == 0 {
		out.Info("No patches found")
		return nil
	}

	rows := make([][]string, 0, len(stats))
	for i, s := range stats {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Patch,
			strconv.Itoa(len(s.Files)),
			tui.LineDelta(s.Added, s.Removed),
		})
	}
	out.Table([]string{"#", "PATCH", "FILES", "LINES"}, rows)
	out.Info(fmt.Sprintf("%d patches in %s", len(stats), series.Dir))
	return nil
}
