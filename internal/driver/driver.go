// Package driver walks the planned Step order: it settles the orphan
// prompt, runs each to-run Step sequentially, persists the fingerprint
// after every success, and renders the colored dry-run plan.
package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metropipe/metropipe/internal/artifact"
	"github.com/metropipe/metropipe/internal/invalidation"
	"github.com/metropipe/metropipe/internal/logging"
	"github.com/metropipe/metropipe/internal/planner"
	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

// ErrAborted is returned when the user refuses the orphan-removal prompt;
// the CLI maps it to exit code 130.
var ErrAborted = errors.New("aborted by user")

// ConfirmFunc asks the user whether the listed orphaned artifacts may be
// removed. Returning false aborts the invocation.
type ConfirmFunc func(orphans []artifact.Artifact) bool

// Driver owns one end-to-end execution pass over a Plan.
type Driver struct {
	inval   *invalidation.Engine
	log     *logging.Logger
	out     io.Writer
	confirm ConfirmFunc
}

// Options configures a Driver. Zero values fall back to stdout and an
// interactive stdin prompt.
type Options struct {
	Invalidation *invalidation.Engine
	Logger       *logging.Logger
	Out          io.Writer
	Confirm      ConfirmFunc
}

// New creates a Driver.
func New(opts Options) *Driver {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	confirm := opts.Confirm
	if confirm == nil {
		confirm = stdinConfirm(out)
	}
	return &Driver{
		inval:   opts.Invalidation,
		log:     opts.Logger,
		out:     out,
		confirm: confirm,
	}
}

// Run executes a Plan. Dry-run prints the colored Step order and writes
// nothing; otherwise orphans are settled first, then each to-run Step runs
// in order, its fingerprint persisted only after Run returns without
// error. Cancellation is surfaced between Steps; a Step already executing
// finishes or propagates its own failure.
func (d *Driver) Run(ctx context.Context, plan *planner.Plan, dryRun bool) error {
	if dryRun {
		d.renderDryRun(plan)
		return nil
	}

	if err := d.settleOrphans(plan.Orphans); err != nil {
		return err
	}

	total := 0
	for _, inst := range plan.Steps {
		if plan.ToRun[inst.Name()] {
			total++
		}
	}
	if total == 0 {
		d.log.Info("everything up to date", "steps", len(plan.Steps))
		return nil
	}

	index := 0
	for _, inst := range plan.Steps {
		if !plan.ToRun[inst.Name()] {
			d.log.Debug("step up to date", "step", inst.Name())
			continue
		}
		if err := ctx.Err(); err != nil {
			return metroerrors.NewStepRuntimeError(inst.Name(), err)
		}

		index++
		d.log.Info(fmt.Sprintf("Step %d/%d: %s", index, total, inst.Name()))

		if err := inst.Class().Run(inst); err != nil {
			return metroerrors.NewStepRuntimeError(inst.Name(), err)
		}
		if err := d.inval.Record(inst); err != nil {
			return err
		}
	}
	return nil
}

// settleOrphans prompts iff at least one orphan exists; confirmation
// removes exactly the listed files, refusal aborts without removing any.
func (d *Driver) settleOrphans(orphans []artifact.Artifact) error {
	if len(orphans) == 0 {
		return nil
	}
	for _, o := range orphans {
		d.log.Warn("orphaned artifact slated for removal", "artifact", o.Class().Name, "path", o.Path())
	}
	if !d.confirm(orphans) {
		return ErrAborted
	}
	for _, o := range orphans {
		if err := o.Remove(); err != nil {
			return err
		}
		d.log.Info("removed orphaned artifact", "artifact", o.Class().Name)
	}
	return nil
}

// stdinConfirm is the interactive default: a single y/N question listing
// the orphan count.
func stdinConfirm(out io.Writer) ConfirmFunc {
	return func(orphans []artifact.Artifact) bool {
		fmt.Fprintf(out, "Remove %d orphaned artifact(s)? [y/N] ", len(orphans))
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
