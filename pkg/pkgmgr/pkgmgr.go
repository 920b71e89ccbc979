// Package pkgmgr installs packages through apt, snap, and pip with a
// presence check first, so repeated runs converge without reinstalling
// anything already on the system.
package pkgmgr

import (
	"context"
	"strings"

	"github.com/devprep/devprep/pkg/config"
	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/logging"
	"github.com/devprep/devprep/pkg/prompt"
	"github.com/rs/zerolog"
)

// Manager identifies the package manager a spec belongs to.
type Manager string

const (
	ManagerApt  Manager = "apt"
	ManagerSnap Manager = "snap"
	ManagerPip  Manager = "pip"
)

// Spec is one package to ensure installed.
type Spec struct {
	Name     string
	Manager  Manager
	Optional bool
	Classic  bool
}

// Status is the result category of an EnsureInstalled call.
type Status string

const (
	StatusAlreadyPresent Status = "already-present"
	StatusInstalled      Status = "installed"
	StatusFailed         Status = "failed"
	StatusSkipped        Status = "skipped"
)

// Outcome reports what happened to one package.
type Outcome struct {
	Spec   Spec
	Status Status
	// Err is set when Status is StatusFailed.
	Err error
}

// SpecsFromEntries converts config entries into specs for one manager.
func SpecsFromEntries(entries []config.PackageEntry, manager Manager) []Spec {
	specs := make([]Spec, 0, len(entries))
	for _, entry := range entries {
		specs = append(specs, Spec{
			Name:     entry.Name,
			Manager:  manager,
			Optional: entry.Optional,
			Classic:  entry.Classic,
		})
	}
	return specs
}

// Installer checks and installs packages through an Invoker.
type Installer struct {
	inv    invoker.Invoker
	gate   *prompt.Gate
	logger zerolog.Logger
}

// NewInstaller creates an Installer. The gate guards optional packages.
func NewInstaller(inv invoker.Invoker, gate *prompt.Gate) *Installer {
	return &Installer{
		inv:    inv,
		gate:   gate,
		logger: logging.GetLogger("pkgmgr"),
	}
}

// EnsureInstalled checks presence first and only installs when the
// package is absent. Optional packages consult the prompt gate; a
// decline is a skip, never a failure.
func (i *Installer) EnsureInstalled(ctx context.Context, spec Spec) Outcome {
	if i.isInstalled(ctx, spec) {
		i.logger.Debug().Str("package", spec.Name).Str("manager", string(spec.Manager)).Msg("Already installed")
		return Outcome{Spec: spec, Status: StatusAlreadyPresent}
	}

	if spec.Optional {
		if i.gate.Confirm("Install optional package "+spec.Name+"?") == prompt.Declined {
			i.logger.Info().Str("package", spec.Name).Msg("Skipped by user")
			return Outcome{Spec: spec, Status: StatusSkipped}
		}
	}

	if err := i.install(ctx, spec); err != nil {
		i.logger.Warn().Err(err).Str("package", spec.Name).Msg("Install failed")
		return Outcome{Spec: spec, Status: StatusFailed, Err: err}
	}

	i.logger.Info().Str("package", spec.Name).Str("manager", string(spec.Manager)).Msg("Installed")
	return Outcome{Spec: spec, Status: StatusInstalled}
}

// EnsureAll runs EnsureInstalled for every spec in order.
func (i *Installer) EnsureAll(ctx context.Context, specs []Spec) []Outcome {
	outcomes := make([]Outcome, 0, len(specs))
	for _, spec := range specs {
		outcomes = append(outcomes, i.EnsureInstalled(ctx, spec))
	}
	return outcomes
}

func (i *Installer) isInstalled(ctx context.Context, spec Spec) bool {
	switch spec.Manager {
	case ManagerApt:
		result, err := i.inv.Invoke(ctx, invoker.Request{
			Command:  "dpkg-query",
			Args:     []string{"-W", "-f", "${Status}", spec.Name},
			ReadOnly: true,
		})
		return err == nil && strings.Contains(result.Stdout, "install ok installed")
	case ManagerSnap:
		_, err := i.inv.Invoke(ctx, invoker.Request{
			Command:  "snap",
			Args:     []string{"list", spec.Name},
			ReadOnly: true,
		})
		return err == nil
	case ManagerPip:
		_, err := i.inv.Invoke(ctx, invoker.Request{
			Command:  "python3",
			Args:     []string{"-m", "pip", "show", spec.Name},
			ReadOnly: true,
		})
		return err == nil
	default:
		return false
	}
}

func (i *Installer) install(ctx context.Context, spec Spec) error {
	var req invoker.Request
	switch spec.Manager {
	case ManagerApt:
		req = invoker.Request{
			Command:     "apt-get",
			Args:        []string{"install", "-y", spec.Name},
			Interactive: true,
		}
	case ManagerSnap:
		args := []string{"install", spec.Name}
		if spec.Classic {
			args = append(args, "--classic")
		}
		req = invoker.Request{Command: "snap", Args: args, Interactive: true}
	case ManagerPip:
		req = invoker.Request{
			Command:     "python3",
			Args:        []string{"-m", "pip", "install", spec.Name},
			Interactive: true,
		}
	default:
		return devpreperr.Newf(devpreperr.ErrInvalidInput, "unknown package manager %q", spec.Manager)
	}

	_, err := i.inv.Invoke(ctx, req)
	return err
}
