// Package style renders provisioning progress and summaries on the
// terminal with pterm. All output here is human-directed; logs and exit
// codes are the machine-facing surface.
package style

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/devprep/devprep/pkg/pkgmgr"
	"github.com/devprep/devprep/pkg/steps"
	"github.com/pterm/pterm"
)

// Status classifies a rendered line.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusSkipped Status = "skipped"
)

// StatusStyle returns the pterm style for a status.
func StatusStyle(status Status) *pterm.Style {
	switch status {
	case StatusSuccess:
		return pterm.NewStyle(pterm.FgGreen)
	case StatusError:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	case StatusWarning:
		return pterm.NewStyle(pterm.FgYellow)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// StepReporter implements steps.Reporter on the terminal.
type StepReporter struct {
	section pterm.SectionPrinter
	success pterm.PrefixPrinter
	warning pterm.PrefixPrinter
	failure pterm.PrefixPrinter
	info    pterm.PrefixPrinter
}

// NewStepReporter creates a reporter writing to w (os.Stdout when nil).
func NewStepReporter(w io.Writer) *StepReporter {
	if w == nil {
		w = os.Stdout
	}
	return &StepReporter{
		section: *pterm.DefaultSection.WithWriter(w),
		success: *pterm.Success.WithWriter(w),
		warning: *pterm.Warning.WithWriter(w),
		failure: *pterm.Error.WithWriter(w),
		info:    *pterm.Info.WithWriter(w),
	}
}

// StepStarted announces a step.
func (r *StepReporter) StepStarted(name string) {
	r.section.Println(name)
}

// StepFinished reports one step outcome.
func (r *StepReporter) StepFinished(result steps.StepResult, fatal bool) {
	switch {
	case result.Skipped:
		r.info.Printfln("%s: skipped", result.Name)
	case result.Err == nil:
		r.success.Printfln("%s: done (%s)", result.Name, roundDuration(result.Duration))
	case fatal:
		r.failure.Printfln("%s: %v", result.Name, result.Err)
	default:
		r.warning.Printfln("%s: %v (continuing)", result.Name, result.Err)
	}
}

// RunFinished prints the terminal state of the run.
func (r *StepReporter) RunFinished(result steps.RunResult) {
	if result.Status == steps.StatusCompleted {
		r.success.Printfln("Provisioning completed (%d steps)", len(result.Steps))
		return
	}
	r.failure.Printfln("Provisioning aborted at %q: %v", result.FailedStep, result.Err)
}

// PackageOutcomes renders per-package results as a short list.
func (r *StepReporter) PackageOutcomes(outcomes []pkgmgr.Outcome) {
	for _, outcome := range outcomes {
		label := fmt.Sprintf("%s (%s)", outcome.Spec.Name, outcome.Spec.Manager)
		switch outcome.Status {
		case pkgmgr.StatusAlreadyPresent:
			r.info.Printfln("%s: already installed", label)
		case pkgmgr.StatusInstalled:
			r.success.Printfln("%s: installed", label)
		case pkgmgr.StatusSkipped:
			r.info.Printfln("%s: skipped", label)
		case pkgmgr.StatusFailed:
			r.warning.Printfln("%s: %v", label, outcome.Err)
		}
	}
}

// roundDuration keeps durations readable: sub-second steps show
// milliseconds, longer ones show seconds.
func roundDuration(d time.Duration) time.Duration {
	if d >= time.Second {
		return d.Round(time.Second)
	}
	return d.Round(time.Millisecond)
}
