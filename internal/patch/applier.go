package patch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/srcstage/internal/command"
	srcerrors "github.com/mrz1836/srcstage/internal/errors"
)

// Defaults for the external patch invocation.
const (
	DefaultBinary = "patch"
	DefaultStrip  = 1
)

// ProgressFunc reports which patch is about to be applied. It is purely
// informational and cannot influence ordering or outcome.
type ProgressFunc func(index, total int, p Patch)

// Outcome is the result of applying one patch.
type Outcome struct {
	Patch    string `json:"patch"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output,omitempty"`
}

// Report aggregates the outcomes of a series.
type Report struct {
	Outcomes []Outcome `json:"outcomes"`
	// Aborted is true when application stopped at the first failure.
	Aborted bool `json:"aborted"`
	// Total is the number of patches in the series, attempted or not.
	Total int `json:"total"`
}

// Clean reports whether every attempted patch applied.
func (r *Report) Clean() bool {
	return len(r.Failures()) == 0
}

// Failures returns the failed outcomes in apply order.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}

// Applied returns how many patches applied cleanly.
func (r *Report) Applied() int {
	return len(r.Outcomes) - len(r.Failures())
}

// FailureError describes failed patches. With abort enabled it carries
// exactly one failure; otherwise every failure of the series.
type FailureError struct {
	Failures []Outcome
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		names = append(names, f.Patch)
	}
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		msg := fmt.Sprintf("patch %s failed with exit code %d", f.Patch, f.ExitCode)
		if f.Output != "" {
			msg += ": " + f.Output
		}
		return msg
	}
	return fmt.Sprintf("%d patches failed: %s", len(e.Failures), strings.Join(names, ", "))
}

// Unwrap lets errors.Is match ErrPatchFailed.
func (e *FailureError) Unwrap() error {
	return srcerrors.ErrPatchFailed
}

// Applier applies patch series with the external patch program.
type Applier struct {
	runner command.Runner

	// Binary is the patch executable. Defaults to DefaultBinary.
	Binary string
	// Strip is the -p level. Defaults to DefaultStrip.
	Strip int
	// Progress is called before each patch, if set.
	Progress ProgressFunc
}

// NewApplier creates an Applier that runs commands through runner.
func NewApplier(runner command.Runner) *Applier {
	return &Applier{
		runner: runner,
		Binary: DefaultBinary,
		Strip:  DefaultStrip,
	}
}

// Apply applies series to tree in order.
//
// When abortOnFailure is set the first failing patch stops the run and a
// *FailureError naming it is returned alongside the partial report. Otherwise
// every patch is attempted, failures are collected in the report and the
// error is nil; callers decide what a dirty report means.
func (a *Applier) Apply(ctx context.Context, tree string, series *Series, abortOnFailure bool) (*Report, error) {
	log := zerolog.Ctx(ctx)
	total := series.Len()
	report := &Report{Outcomes: make([]Outcome, 0, total), Total: total}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		p := series.Patches[i]
		if a.Progress != nil {
			a.Progress(i+1, total, p)
		}

		outcome, err := a.applyOne(ctx, tree, p)
		if err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Success {
			log.Debug().Str("patch", p.Name).Int("index", i+1).Int("total", total).Msg("patch applied")
			continue
		}

		log.Warn().
			Str("patch", p.Name).
			Int("exit_code", outcome.ExitCode).
			Str("output", outcome.Output).
			Msg("patch failed to apply")

		if abortOnFailure {
			report.Aborted = true
			return report, &FailureError{Failures: []Outcome{outcome}}
		}
	}

	return report, nil
}

func (a *Applier) applyOne(ctx context.Context, tree string, p Patch) (Outcome, error) {
	binary := a.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	strip := a.Strip
	if strip < 0 {
		strip = DefaultStrip
	}

	// -N ignores already-applied patches, -r - discards reject files.
	result, err := a.runner.Run(ctx, command.Command{
		Dir:   tree,
		Name:  binary,
		Args:  []string{"-p" + strconv.Itoa(strip), "-N", "-r", "-", "-i", p.Path},
		Quiet: true,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to run %s for %s: %w", binary, p.Name, err)
	}

	return Outcome{
		Patch:    p.Name,
		Success:  result.Success(),
		ExitCode: result.ExitCode,
		Output:   result.Output(),
	}, nil
}
