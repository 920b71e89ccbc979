package invoker

import (
	"context"
	"errors"
	"testing"
	"time"

	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSInvokeSuccess(t *testing.T) {
	inv := NewOS()

	result, err := inv.Invoke(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", "echo hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello", result.Stdout)
}

func TestOSInvokeNonZeroExit(t *testing.T) {
	inv := NewOS()

	result, err := inv.Invoke(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", "echo oops >&2; exit 3"},
	})

	require.Error(t, err)
	assert.True(t, devpreperr.IsCode(err, devpreperr.ErrToolFailed))
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops", result.Stderr)
}

func TestOSInvokeMissingTool(t *testing.T) {
	inv := NewOS()

	_, err := inv.Invoke(context.Background(), Request{
		Command: "devprep-no-such-binary",
	})

	require.Error(t, err)
	assert.True(t, devpreperr.IsCode(err, devpreperr.ErrToolNotFound))
}

func TestOSInvokeTimeout(t *testing.T) {
	inv := NewOS()

	_, err := inv.Invoke(context.Background(), Request{
		Command: "sleep",
		Args:    []string{"5"},
		Timeout: 50 * time.Millisecond,
	})

	require.Error(t, err)
	assert.True(t, devpreperr.IsCode(err, devpreperr.ErrToolFailed))
}

func TestOSInvokeCancelledContext(t *testing.T) {
	inv := NewOS()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := inv.Invoke(ctx, Request{Command: "sleep", Args: []string{"5"}})
	require.Error(t, err)
}

func TestOSInvokeWorkingDir(t *testing.T) {
	inv := NewOS()
	dir := t.TempDir()

	result, err := inv.Invoke(context.Background(), Request{
		Command:    "pwd",
		WorkingDir: dir,
	})

	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}

func TestOSLookPath(t *testing.T) {
	inv := NewOS()
	assert.True(t, inv.LookPath("sh"))
	assert.False(t, inv.LookPath("devprep-no-such-binary"))
}

func TestRecorderScriptedResponses(t *testing.T) {
	rec := NewRecorder()
	rec.Succeed("dpkg-query -W git", "git")
	rec.Fail("apt-get install -y cmake", 100, "unable to locate package")

	result, err := rec.Invoke(context.Background(), Request{
		Command: "dpkg-query", Args: []string{"-W", "git"},
	})
	require.NoError(t, err)
	assert.Equal(t, "git", result.Stdout)

	result, err = rec.Invoke(context.Background(), Request{
		Command: "apt-get", Args: []string{"install", "-y", "cmake"},
	})
	require.Error(t, err)
	assert.Equal(t, 100, result.ExitCode)

	// Unscripted commands succeed.
	_, err = rec.Invoke(context.Background(), Request{Command: "ldconfig"})
	require.NoError(t, err)

	assert.Len(t, rec.Calls(), 3)
	assert.Equal(t, 1, rec.CallCount("apt-get install"))
}

func TestRecorderLaterScriptWins(t *testing.T) {
	rec := NewRecorder()
	rec.Fail("snap list code", 1, "not installed")
	rec.Succeed("snap list code", "code 1.92")

	result, err := rec.Invoke(context.Background(), Request{
		Command: "snap", Args: []string{"list", "code"},
	})
	require.NoError(t, err)
	assert.Equal(t, "code 1.92", result.Stdout)
}

func TestRecorderHonorsContext(t *testing.T) {
	rec := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rec.Invoke(ctx, Request{Command: "make"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || devpreperr.IsCode(err, devpreperr.ErrToolFailed))
	assert.Empty(t, rec.Calls())
}

func TestRecorderMarkMissing(t *testing.T) {
	rec := NewRecorder()
	assert.True(t, rec.LookPath("nvcc"))
	rec.MarkMissing("nvcc")
	assert.False(t, rec.LookPath("nvcc"))
}
