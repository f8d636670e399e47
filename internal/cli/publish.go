package cli

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mrz1836/srcstage/internal/config"
	"github.com/mrz1836/srcstage/internal/fsutil"
	"github.com/mrz1836/srcstage/internal/patch"
	"github.com/mrz1836/srcstage/internal/stage"
	"github.com/mrz1836/srcstage/internal/tui"
)

// publishOptions holds the publish command flags.
type publishOptions struct {
	input            string
	output           string
	patchDir         string
	glob             string
	strip            int
	noPatchAbort     bool
	noPublishPartial bool
	lock             bool
	noReflink        bool
}

func newPublishCmd(a *app) *cobra.Command {
	opts := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Clone, patch and publish a source tree",
		Long: `Clone the input tree into a staging directory next to the output tree,
apply the patch series in order, then publish the result.

A missing output tree is created by renaming the staging directory. An
existing output tree is updated in place: only files whose content changed
are rewritten, so build systems keyed on timestamps do not rebuild
untouched sources.

Note: --output here is the output tree. Select the result format with
SRCSTAGE_OUTPUT=json.`,
		Example: `  srcstage publish --input third_party/rust --output out/rust --patches patches/rust
  srcstage publish --input src --output out/src --patches p --no-patch-abort --lock`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "pristine source tree to clone")
	cmd.Flags().StringVar(&opts.output, "output", "", "persistent output tree to publish into")
	cmd.Flags().StringVar(&opts.patchDir, "patches", "", "directory holding the patch series")
	cmd.Flags().StringVar(&opts.glob, "glob", "", "glob selecting patch files (default from config)")
	cmd.Flags().IntVar(&opts.strip, "strip", patch.DefaultStrip, "leading path components to strip from patch file names")
	cmd.Flags().BoolVar(&opts.noPatchAbort, "no-patch-abort", false, "keep applying patches after a failure")
	cmd.Flags().BoolVar(&opts.noPublishPartial, "no-publish-partial", false, "do not publish when any patch failed")
	cmd.Flags().BoolVar(&opts.lock, "lock", false, "hold an advisory lock on the output tree")
	cmd.Flags().BoolVar(&opts.noReflink, "no-reflink", false, "always copy file contents instead of cloning extents")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runPublish(cmd *cobra.Command, a *app, opts *publishOptions) error {
	ctx := cmd.Context()
	log := zerolog.Ctx(ctx)

	cfg, err := a.loadConfig(ctx, &config.Config{
		Patches: config.PatchesConfig{Dir: opts.patchDir, Glob: opts.glob},
	})
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("strip") {
		cfg.Patches.Strip = opts.strip
	}
	if flags.Changed("no-patch-abort") {
		cfg.Patches.AbortOnFailure = !opts.noPatchAbort
	}
	if flags.Changed("no-publish-partial") {
		cfg.Patches.PublishPartial = !opts.noPublishPartial
	}
	if flags.Changed("lock") {
		cfg.Stage.Lock = opts.lock
	}
	if flags.Changed("no-reflink") {
		cfg.Stage.Reflink = !opts.noReflink
	}

	ctx, cancel := withTimeout(ctx, cfg)
	defer cancel()

	applier := patch.NewApplier(a.commandRunner(cmd))
	applier.Binary = cfg.Patches.Command
	applier.Strip = cfg.Patches.Strip
	applier.Progress = func(index, total int, p patch.Patch) {
		log.Info().Int("index", index).Int("total", total).Str("patch", p.Name).Msg("applying patch")
	}

	cloner := fsutil.NewCloner()
	if !cfg.Stage.Reflink {
		cloner = &fsutil.Cloner{}
	}

	if cfg.Patches.Dir == "" && !a.jsonOutput() {
		a.output(cmd).Warning("No patch directory configured, publishing the input tree unpatched")
	}

	stager := stage.New(cloner, applier)
	stager.StagingSuffix = cfg.Stage.StagingSuffix
	stager.SyncOptions = fsutil.SyncOptions{Workers: cfg.Stage.HashWorkers}

	result, err := stager.Publish(ctx, stage.Request{
		InputTree:           opts.input,
		OutputTree:          opts.output,
		PatchDir:            cfg.Patches.Dir,
		PatchGlob:           cfg.Patches.Glob,
		AbortOnPatchFailure: cfg.Patches.AbortOnFailure,
		PublishPartial:      cfg.Patches.PublishPartial,
		Lock:                cfg.Stage.Lock,
	})
	if result != nil && err == nil {
		return printPublishResult(cmd, a, result)
	}
	if result != nil && result.Patches != nil && !a.jsonOutput() {
		printPatchFailures(a.output(cmd), result.Patches)
	}
	return err
}

// printPublishResult reports a completed publish run.
func printPublishResult(cmd *cobra.Command, a *app, result *stage.Result) error {
	out := a.output(cmd)
	if a.jsonOutput() {
		return out.JSON(result)
	}

	printPatchFailures(out, result.Patches)

	applied := 0
	total := 0
	if result.Patches != nil {
		applied = result.Patches.Applied()
		total = result.Patches.Total
	}

	switch result.Method {
	case stage.PublishRename:
		out.Success(fmt.Sprintf("Published %s (new tree, %d/%d patches applied)", result.Tree.Root, applied, total))
	case stage.PublishSync:
		stats := result.Sync
		out.Success(fmt.Sprintf("Published %s (%d/%d patches applied, %d copied, %d deleted, %d unchanged)",
			result.Tree.Root, applied, total, stats.Copied, stats.Deleted, stats.Unchanged))
	default:
		out.Warning(fmt.Sprintf("%s was not published, staging kept at %s", result.Tree.Root, result.Tree.StagingPath))
	}
	return nil
}

// printPatchFailures prints a table of every patch that did not apply.
// Patches never attempted after an abort are listed too.
func printPatchFailures(out tui.Output, report *patch.Report) {
	if report == nil || report.Clean() {
		return
	}

	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Failures() {
		rows = append(rows, []string{o.Patch, tui.PatchStatus(true, false), strconv.Itoa(o.ExitCode)})
	}
	if report.Aborted {
		skipped := report.Total - len(report.Outcomes)
		if skipped > 0 {
			rows = append(rows, []string{fmt.Sprintf("(%d more)", skipped), tui.PatchStatus(false, false), "-"})
		}
	}

	out.Warning(fmt.Sprintf("%d of %d patches failed", len(report.Failures()), report.Total))
	out.Table([]string{"PATCH", "STATUS", "EXIT"}, rows)
}
