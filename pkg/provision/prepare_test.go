package provision

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/devprep/devprep/pkg/config"
	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/prompt"
	"github.com/devprep/devprep/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.OpenCV.WorkDir = t.TempDir()
	return cfg
}

func yesProvisioner(t *testing.T, rec *invoker.Recorder) *Provisioner {
	t.Helper()
	return New(Options{
		Config:  testConfig(t),
		Invoker: rec,
		Gate:    prompt.New(prompt.WithAssumeYes(true)),
	})
}

func scriptedProvisioner(t *testing.T, rec *invoker.Recorder, answers string) *Provisioner {
	t.Helper()
	return New(Options{
		Config:  testConfig(t),
		Invoker: rec,
		Gate:    prompt.New(prompt.WithInput(strings.NewReader(answers)), prompt.WithOutput(io.Discard)),
	})
}

// markAllAbsent scripts every presence check to report "not installed".
func markAllAbsent(rec *invoker.Recorder) {
	rec.Fail("dpkg-query", 1, "no packages found")
	rec.Fail("snap list", 1, "not installed")
	rec.Fail("python3 -m pip show", 1, "not found")
}

// markAllPresent scripts every presence check to report "installed".
func markAllPresent(rec *invoker.Recorder) {
	rec.Respond("dpkg-query", invoker.Result{Stdout: "install ok installed"}, nil)
	rec.Succeed("snap list", "installed")
	rec.Succeed("python3 -m pip show", "Name: whatever")
}

func TestPrepareDeclineAtSummaryMutatesNothing(t *testing.T) {
	rec := invoker.NewRecorder()
	p := scriptedProvisioner(t, rec, "n\n")

	_, err := p.Prepare(context.Background())

	require.Error(t, err)
	assert.True(t, devpreperr.IsCode(err, devpreperr.ErrUserDeclined))
	// Declining the summary halts before any system-mutating call.
	assert.Empty(t, rec.Calls())
}

func TestPrepareCleanSystemInstallsEverythingInOrder(t *testing.T) {
	rec := invoker.NewRecorder()
	markAllAbsent(rec)
	p := yesProvisioner(t, rec)

	result, err := p.Prepare(context.Background())

	require.NoError(t, err)
	assert.Equal(t, steps.StatusCompleted, result.Status)
	assert.Equal(t, 1, rec.CallCount("apt-get update"))
	assert.Equal(t, 1, rec.CallCount("apt-get upgrade -y"))

	// One install per configured package, in configured order.
	cfg := p.cfg
	var aptInstalls []string
	for _, line := range rec.CallLines() {
		if strings.HasPrefix(line, "apt-get install -y ") {
			aptInstalls = append(aptInstalls, strings.TrimPrefix(line, "apt-get install -y "))
		}
	}
	require.Len(t, aptInstalls, len(cfg.Packages.Apt))
	for i, entry := range cfg.Packages.Apt {
		assert.Equal(t, entry.Name, aptInstalls[i])
	}

	assert.Equal(t, 1, rec.CallCount("snap install code --classic"))
	assert.Equal(t, 1, rec.CallCount("python3 -m pip install numpy"))
}

func TestPrepareSecondRunIsNoOp(t *testing.T) {
	rec := invoker.NewRecorder()
	markAllPresent(rec)
	p := yesProvisioner(t, rec)

	result, err := p.Prepare(context.Background())

	require.NoError(t, err)
	assert.Equal(t, steps.StatusCompleted, result.Status)
	// Every presence check reports true, so no installer ever runs.
	assert.Equal(t, 0, rec.CallCount("apt-get install"))
	assert.Equal(t, 0, rec.CallCount("snap install"))
	assert.Equal(t, 0, rec.CallCount("python3 -m pip install"))
}

func TestPrepareNonFatalInstallFailureStillCompletes(t *testing.T) {
	rec := invoker.NewRecorder()
	markAllAbsent(rec)
	rec.Fail("apt-get install -y build-essential", 100, "download error")
	p := yesProvisioner(t, rec)

	result, err := p.Prepare(context.Background())

	require.NoError(t, err)
	// The failed step is recorded, but the run proceeds to the end.
	assert.Equal(t, steps.StatusCompleted, result.Status)

	var aptStep steps.StepResult
	for _, step := range result.Steps {
		if step.Name == "install apt packages" {
			aptStep = step
		}
	}
	assert.True(t, aptStep.Failed())
	// Later steps still ran.
	assert.Greater(t, rec.CallCount("snap install"), 0)
}

func TestPrepareUpgradeDeclinedIsSkipped(t *testing.T) {
	rec := invoker.NewRecorder()
	markAllPresent(rec)
	// Summary: yes. Upgrade: no.
	p := scriptedProvisioner(t, rec, "y\nn\n")

	result, err := p.Prepare(context.Background())

	require.NoError(t, err)
	assert.Equal(t, steps.StatusCompleted, result.Status)
	assert.Equal(t, 0, rec.CallCount("apt-get upgrade"))

	for _, step := range result.Steps {
		if step.Name == "upgrade packages" {
			assert.True(t, step.Skipped)
		}
	}
}
