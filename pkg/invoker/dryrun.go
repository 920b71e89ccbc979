package invoker

import (
	"context"

	"github.com/devprep/devprep/pkg/logging"
	"github.com/rs/zerolog"
)

// DryRun wraps an Invoker for --dry-run mode. Read-only requests
// (presence checks, version probes) pass through so the plan reflects
// the real system; mutating requests are logged and reported as
// successful without running.
type DryRun struct {
	wrapped Invoker
	logger  zerolog.Logger
}

// NewDryRun wraps inner in a dry-run filter.
func NewDryRun(inner Invoker) *DryRun {
	return &DryRun{wrapped: inner, logger: logging.GetLogger("invoker.dryrun")}
}

// Invoke passes read-only requests through and fakes the rest.
func (d *DryRun) Invoke(ctx context.Context, req Request) (Result, error) {
	if req.ReadOnly {
		return d.wrapped.Invoke(ctx, req)
	}

	d.logger.Info().
		Str("command", req.Command).
		Strs("args", req.Args).
		Msg("Dry run - command would be executed")

	return Result{Command: req.Command, Args: req.Args}, nil
}

// LookPath consults the real system.
func (d *DryRun) LookPath(tool string) bool {
	return d.wrapped.LookPath(tool)
}
