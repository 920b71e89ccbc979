// Package provision assembles the devprep pipelines: prepare (system
// packages), docker (engine install), and opencv (source build). Each
// pipeline resolves its confirmations up front where possible, builds an
// ordered step list, and hands it to the step runner.
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/devprep/devprep/pkg/config"
	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/logging"
	"github.com/devprep/devprep/pkg/pkgmgr"
	"github.com/devprep/devprep/pkg/prompt"
	"github.com/devprep/devprep/pkg/steps"
	"github.com/rs/zerolog"
)

// PackageReporter is implemented by reporters that can render
// per-package outcomes in addition to step results.
type PackageReporter interface {
	PackageOutcomes([]pkgmgr.Outcome)
}

// Options wires a Provisioner.
type Options struct {
	Config   *config.Config
	Invoker  invoker.Invoker
	Gate     *prompt.Gate
	Reporter steps.Reporter
}

// Provisioner drives the provisioning pipelines.
type Provisioner struct {
	cfg       *config.Config
	inv       invoker.Invoker
	gate      *prompt.Gate
	runner    *steps.Runner
	reporter  steps.Reporter
	installer *pkgmgr.Installer
	logger    zerolog.Logger

	// fetchedSources records that the opencv download step ran (or was
	// planned under dry-run) in this process.
	fetchedSources bool
}

// New creates a Provisioner from options. Config and Invoker are
// required; Gate defaults to a stdin gate and Reporter to a no-op.
func New(opts Options) *Provisioner {
	gate := opts.Gate
	if gate == nil {
		gate = prompt.New()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = steps.NopReporter{}
	}
	return &Provisioner{
		cfg:       opts.Config,
		inv:       opts.Invoker,
		gate:      gate,
		runner:    steps.NewRunner(reporter),
		reporter:  reporter,
		installer: pkgmgr.NewInstaller(opts.Invoker, gate),
		logger:    logging.GetLogger("provision"),
	}
}

// confirmSummary shows the pipeline plan and asks for the initial
// go-ahead. Declining halts before any system-mutating call.
func (p *Provisioner) confirmSummary(name string, plan []string) error {
	question := fmt.Sprintf("%s will:\n  - %s\nProceed?", name, strings.Join(plan, "\n  - "))
	if p.gate.Confirm(question) == prompt.Declined {
		return devpreperr.Newf(devpreperr.ErrUserDeclined, "%s declined at summary", name)
	}
	return nil
}

// gatedStep wraps an action behind its own confirmation. A decline
// surfaces as a skip, not a failure.
func (p *Provisioner) gatedStep(name, question string, fatal bool, run func(ctx context.Context) error) steps.Step {
	return steps.Step{
		Name:  name,
		Fatal: fatal,
		Run: func(ctx context.Context) error {
			if p.gate.Confirm(question) == prompt.Declined {
				return devpreperr.Newf(devpreperr.ErrUserDeclined, "%s declined", name)
			}
			return run(ctx)
		},
	}
}

// packagesStep installs a list of specs and reports per-package
// outcomes. The step fails (non-fatally) when a required package fails
// to install; skips and already-present packages never fail it.
func (p *Provisioner) packagesStep(name string, specs []pkgmgr.Spec) steps.Step {
	return steps.Step{
		Name: name,
		Run: func(ctx context.Context) error {
			outcomes := p.installer.EnsureAll(ctx, specs)
			if pr, ok := p.reporter.(PackageReporter); ok {
				pr.PackageOutcomes(outcomes)
			}

			var failed []string
			for _, outcome := range outcomes {
				if outcome.Status == pkgmgr.StatusFailed && !outcome.Spec.Optional {
					failed = append(failed, outcome.Spec.Name)
				}
			}
			if len(failed) > 0 {
				return devpreperr.Newf(devpreperr.ErrToolFailed,
					"failed to install: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

// aptUpdate refreshes the package index.
func (p *Provisioner) aptUpdate(ctx context.Context) error {
	_, err := p.inv.Invoke(ctx, invoker.Request{
		Command:     "apt-get",
		Args:        []string{"update"},
		Timeout:     p.cfg.Invoke.NetworkTimeout.Std(),
		Interactive: true,
	})
	return err
}
