package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/pkgmgr"
	"github.com/devprep/devprep/pkg/steps"
)

// Docker installs the Docker engine: keyring, apt source, packages, and
// a hello-world functional test. When the engine is already installed
// the pipeline is a no-op.
func (p *Provisioner) Docker(ctx context.Context) (steps.RunResult, error) {
	if p.dockerInstalled(ctx) {
		p.logger.Info().Msg("Docker already installed, nothing to do")
		result := steps.RunResult{Status: steps.StatusCompleted}
		p.reporter.RunFinished(result)
		return result, nil
	}

	cfg := p.cfg.Docker
	plan := []string{
		fmt.Sprintf("download the Docker signing key to %s", cfg.KeyringPath),
		fmt.Sprintf("add the Docker apt repository (%s)", cfg.ListPath),
		"install " + strings.Join(cfg.Packages, ", "),
		"run the hello-world container as a functional test",
	}
	if err := p.confirmSummary("docker", plan); err != nil {
		return steps.RunResult{}, err
	}

	specs := make([]pkgmgr.Spec, 0, len(cfg.Packages))
	for _, name := range cfg.Packages {
		specs = append(specs, pkgmgr.Spec{Name: name, Manager: pkgmgr.ManagerApt})
	}

	pipeline := []steps.Step{
		p.packagesStep("install prerequisites", []pkgmgr.Spec{
			{Name: "ca-certificates", Manager: pkgmgr.ManagerApt},
			{Name: "curl", Manager: pkgmgr.ManagerApt},
		}),
		{Name: "download docker signing key", Fatal: true, Run: p.downloadDockerKey},
		{Name: "add docker apt repository", Fatal: true, Run: p.addDockerRepo},
		{Name: "update package index", Run: p.aptUpdate},
		p.packagesStep("install docker packages", specs),
		p.addUserToGroupStep(),
		{Name: "verify docker", Fatal: true, Run: func(ctx context.Context) error {
			_, err := p.inv.Invoke(ctx, invoker.Request{
				Command: "docker",
				Args:    []string{"run", "--rm", "hello-world"},
				Timeout: p.cfg.Invoke.NetworkTimeout.Std(),
			})
			return err
		}},
	}

	return p.runner.Run(ctx, pipeline), nil
}

// dockerInstalled is the live presence check: a working docker binary
// means the whole pipeline is already satisfied.
func (p *Provisioner) dockerInstalled(ctx context.Context) bool {
	if !p.inv.LookPath("docker") {
		return false
	}
	_, err := p.inv.Invoke(ctx, invoker.Request{
		Command:  "docker",
		Args:     []string{"--version"},
		ReadOnly: true,
	})
	return err == nil
}

func (p *Provisioner) downloadDockerKey(ctx context.Context) error {
	cfg := p.cfg.Docker

	if _, err := p.inv.Invoke(ctx, invoker.Request{
		Command: "install",
		Args:    []string{"-m", "0755", "-d", filepath.Dir(cfg.KeyringPath)},
	}); err != nil {
		return err
	}

	if _, err := p.inv.Invoke(ctx, invoker.Request{
		Command: "curl",
		Args:    []string{"-fsSL", cfg.KeyURL, "-o", cfg.KeyringPath},
		Timeout: p.cfg.Invoke.NetworkTimeout.Std(),
	}); err != nil {
		return err
	}

	_, err := p.inv.Invoke(ctx, invoker.Request{
		Command: "chmod",
		Args:    []string{"a+r", cfg.KeyringPath},
	})
	return err
}

func (p *Provisioner) addDockerRepo(ctx context.Context) error {
	cfg := p.cfg.Docker

	arch, err := p.inv.Invoke(ctx, invoker.Request{
		Command:  "dpkg",
		Args:     []string{"--print-architecture"},
		ReadOnly: true,
	})
	if err != nil {
		return err
	}

	codename, err := p.inv.Invoke(ctx, invoker.Request{
		Command:  "sh",
		Args:     []string{"-c", ". /etc/os-release && echo \"$VERSION_CODENAME\""},
		ReadOnly: true,
	})
	if err != nil {
		return err
	}

	line := fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s %s",
		strings.TrimSpace(arch.Stdout), cfg.KeyringPath, cfg.RepoURL,
		strings.TrimSpace(codename.Stdout), cfg.Channel)

	// Written through the shell so dry-run can intercept it like any
	// other mutation.
	_, err = p.inv.Invoke(ctx, invoker.Request{
		Command: "sh",
		Args:    []string{"-c", fmt.Sprintf("echo '%s' > %s", line, cfg.ListPath)},
	})
	return err
}

func (p *Provisioner) addUserToGroupStep() steps.Step {
	user := os.Getenv("SUDO_USER")
	if user == "" {
		user = os.Getenv("USER")
	}

	return p.gatedStep("add user to docker group",
		fmt.Sprintf("Add %s to the docker group (run docker without sudo)?", user), false,
		func(ctx context.Context) error {
			if !p.cfg.Docker.AddUserToGroup || user == "" || user == "root" {
				return nil
			}
			_, err := p.inv.Invoke(ctx, invoker.Request{
				Command: "usermod",
				Args:    []string{"-aG", "docker", user},
			})
			return err
		})
}
