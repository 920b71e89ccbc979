package provision

import (
	"context"

	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/pkgmgr"
	"github.com/devprep/devprep/pkg/steps"
)

// Prepare runs the base developer-machine pipeline: package index
// update, optional upgrade, then the configured apt/snap/pip lists.
// The returned error is non-nil only when the operator declines the
// initial summary.
func (p *Provisioner) Prepare(ctx context.Context) (steps.RunResult, error) {
	plan := []string{
		"update the apt package index",
		"optionally upgrade installed packages",
		"install the configured apt, snap, and pip packages",
	}
	if err := p.confirmSummary("prepare", plan); err != nil {
		return steps.RunResult{}, err
	}

	pipeline := []steps.Step{
		{Name: "update package index", Run: p.aptUpdate},
		p.gatedStep("upgrade packages", "Upgrade installed packages?", false,
			func(ctx context.Context) error {
				_, err := p.inv.Invoke(ctx, invoker.Request{
					Command:     "apt-get",
					Args:        []string{"upgrade", "-y"},
					Timeout:     p.cfg.Invoke.NetworkTimeout.Std(),
					Interactive: true,
				})
				return err
			}),
		p.packagesStep("install apt packages",
			pkgmgr.SpecsFromEntries(p.cfg.Packages.Apt, pkgmgr.ManagerApt)),
		p.packagesStep("install snap packages",
			pkgmgr.SpecsFromEntries(p.cfg.Packages.Snap, pkgmgr.ManagerSnap)),
		p.packagesStep("install pip packages",
			pkgmgr.SpecsFromEntries(p.cfg.Packages.Pip, pkgmgr.ManagerPip)),
	}

	return p.runner.Run(ctx, pipeline), nil
}
