// Package steps sequences named provisioning steps. Steps run strictly
// in order; a fatal failure aborts the run, a non-fatal one is logged
// and the runner continues. There is no rollback: provisioning runs
// converge by being re-run, not by being undone.
package steps

import (
	"context"
	"time"

	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/logging"
	"github.com/rs/zerolog"
)

// Step is one unit of work in a pipeline.
type Step struct {
	Name string
	// Fatal steps abort the whole run when they fail.
	Fatal bool
	Run   func(ctx context.Context) error
}

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// StepResult records the outcome of one executed step.
type StepResult struct {
	Name     string
	Err      error
	Skipped  bool
	Duration time.Duration
}

// Failed reports whether the step failed (a decline is a skip, not a
// failure).
func (r StepResult) Failed() bool {
	return r.Err != nil && !r.Skipped
}

// RunResult is the outcome of a whole pipeline run.
type RunResult struct {
	Status Status
	Steps  []StepResult
	// FailedStep and Err are set when Status is StatusAborted.
	FailedStep string
	Err        error
}

// Reporter receives step lifecycle callbacks for presentation.
type Reporter interface {
	StepStarted(name string)
	StepFinished(result StepResult, fatal bool)
	RunFinished(result RunResult)
}

// NopReporter discards all callbacks.
type NopReporter struct{}

func (NopReporter) StepStarted(string)            {}
func (NopReporter) StepFinished(StepResult, bool) {}
func (NopReporter) RunFinished(RunResult)         {}

// Runner executes steps in order.
type Runner struct {
	reporter Reporter
	logger   zerolog.Logger
}

// NewRunner creates a Runner. A nil reporter is replaced with a no-op.
func NewRunner(reporter Reporter) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{
		reporter: reporter,
		logger:   logging.GetLogger("steps"),
	}
}

// Run executes the steps synchronously. Context cancellation aborts
// before the next step starts; the currently running step sees the
// cancellation through its own context.
func (r *Runner) Run(ctx context.Context, steps []Step) RunResult {
	result := RunResult{Status: StatusCompleted}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			result.Status = StatusAborted
			result.FailedStep = step.Name
			result.Err = devpreperr.Wrap(err, devpreperr.ErrToolFailed, "run interrupted")
			break
		}

		r.reporter.StepStarted(step.Name)
		r.logger.Info().Str("step", step.Name).Msg("Step started")

		start := time.Now()
		err := step.Run(ctx)
		stepResult := StepResult{
			Name:     step.Name,
			Err:      err,
			Skipped:  devpreperr.IsCode(err, devpreperr.ErrUserDeclined),
			Duration: time.Since(start),
		}
		result.Steps = append(result.Steps, stepResult)
		r.reporter.StepFinished(stepResult, step.Fatal)

		switch {
		case err == nil:
			r.logger.Info().Str("step", step.Name).Dur("duration", stepResult.Duration).Msg("Step completed")
		case stepResult.Skipped:
			r.logger.Info().Str("step", step.Name).Msg("Step skipped")
		case step.Fatal:
			r.logger.Error().Err(err).Str("step", step.Name).Msg("Fatal step failed, aborting run")
			result.Status = StatusAborted
			result.FailedStep = step.Name
			result.Err = err
		default:
			r.logger.Warn().Err(err).Str("step", step.Name).Msg("Step failed, continuing")
		}

		if result.Status == StatusAborted {
			break
		}
	}

	r.reporter.RunFinished(result)
	return result
}
