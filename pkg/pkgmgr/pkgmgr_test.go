package pkgmgr

import (
	"context"
	"strings"
	"testing"

	"github.com/devprep/devprep/pkg/config"
	"github.com/devprep/devprep/pkg/invoker"
	"github.com/devprep/devprep/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yesGate() *prompt.Gate {
	return prompt.New(prompt.WithAssumeYes(true))
}

func scriptedGate(answers string) *prompt.Gate {
	return prompt.New(prompt.WithInput(strings.NewReader(answers)), prompt.WithOutput(&strings.Builder{}))
}

func TestEnsureInstalledAlreadyPresentApt(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Succeed("dpkg-query -W -f ${Status} git", "install ok installed")
	installer := NewInstaller(rec, yesGate())

	outcome := installer.EnsureInstalled(context.Background(), Spec{Name: "git", Manager: ManagerApt})

	assert.Equal(t, StatusAlreadyPresent, outcome.Status)
	// Presence check reported true, so the installer must not run.
	assert.Equal(t, 0, rec.CallCount("apt-get install"))
}

func TestEnsureInstalledInstallsWhenAbsent(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("dpkg-query", 1, "no packages found matching git")
	installer := NewInstaller(rec, yesGate())

	outcome := installer.EnsureInstalled(context.Background(), Spec{Name: "git", Manager: ManagerApt})

	assert.Equal(t, StatusInstalled, outcome.Status)
	assert.Equal(t, 1, rec.CallCount("apt-get install -y git"))
}

func TestEnsureInstalledIdempotent(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("dpkg-query", 1, "not installed")
	installer := NewInstaller(rec, yesGate())

	first := installer.EnsureInstalled(context.Background(), Spec{Name: "cmake", Manager: ManagerApt})
	require.Equal(t, StatusInstalled, first.Status)

	// Simulate the system state change the install caused.
	rec.Succeed("dpkg-query -W -f ${Status} cmake", "install ok installed")

	second := installer.EnsureInstalled(context.Background(), Spec{Name: "cmake", Manager: ManagerApt})
	assert.Equal(t, StatusAlreadyPresent, second.Status)
	assert.Equal(t, 1, rec.CallCount("apt-get install -y cmake"))
}

func TestEnsureInstalledFailure(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("dpkg-query", 1, "not installed")
	rec.Fail("apt-get install -y bogus", 100, "unable to locate package bogus")
	installer := NewInstaller(rec, yesGate())

	outcome := installer.EnsureInstalled(context.Background(), Spec{Name: "bogus", Manager: ManagerApt})

	assert.Equal(t, StatusFailed, outcome.Status)
	require.Error(t, outcome.Err)
}

func TestEnsureInstalledOptionalDeclined(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("snap list", 1, "not installed")
	installer := NewInstaller(rec, scriptedGate("n\n"))

	outcome := installer.EnsureInstalled(context.Background(), Spec{
		Name: "pycharm-community", Manager: ManagerSnap, Optional: true, Classic: true,
	})

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.Equal(t, 0, rec.CallCount("snap install"))
}

func TestEnsureInstalledOptionalAccepted(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("snap list", 1, "not installed")
	installer := NewInstaller(rec, scriptedGate("y\n"))

	outcome := installer.EnsureInstalled(context.Background(), Spec{
		Name: "code", Manager: ManagerSnap, Optional: true, Classic: true,
	})

	assert.Equal(t, StatusInstalled, outcome.Status)
	assert.Equal(t, 1, rec.CallCount("snap install code --classic"))
}

func TestEnsureInstalledPip(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("python3 -m pip show numpy", 1, "not found")
	installer := NewInstaller(rec, yesGate())

	outcome := installer.EnsureInstalled(context.Background(), Spec{Name: "numpy", Manager: ManagerPip})

	assert.Equal(t, StatusInstalled, outcome.Status)
	assert.Equal(t, 1, rec.CallCount("python3 -m pip install numpy"))
}

func TestEnsureAllOrderAndOutcomes(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("dpkg-query", 1, "not installed")
	rec.Succeed("dpkg-query -W -f ${Status} git", "install ok installed")
	installer := NewInstaller(rec, yesGate())

	outcomes := installer.EnsureAll(context.Background(), []Spec{
		{Name: "git", Manager: ManagerApt},
		{Name: "cmake", Manager: ManagerApt},
	})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusAlreadyPresent, outcomes[0].Status)
	assert.Equal(t, StatusInstalled, outcomes[1].Status)

	// Installs run in configured order.
	lines := rec.CallLines()
	assert.Equal(t, "apt-get install -y cmake", lines[len(lines)-1])
}

func TestSpecsFromEntries(t *testing.T) {
	entries := []config.PackageEntry{
		{Name: "code", Classic: true},
		{Name: "pycharm-community", Classic: true, Optional: true},
	}

	specs := SpecsFromEntries(entries, ManagerSnap)

	require.Len(t, specs, 2)
	assert.Equal(t, Spec{Name: "code", Manager: ManagerSnap, Classic: true}, specs[0])
	assert.True(t, specs[1].Optional)
}

func TestUnknownManagerFails(t *testing.T) {
	rec := invoker.NewRecorder()
	rec.Fail("dpkg-query", 1, "not installed")
	installer := NewInstaller(rec, yesGate())

	outcome := installer.EnsureInstalled(context.Background(), Spec{Name: "x", Manager: "brew"})
	assert.Equal(t, StatusFailed, outcome.Status)
}
