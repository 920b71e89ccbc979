// Package invoker runs external tools and captures their outcome. It is
// the only package in devprep that executes child processes; everything
// above it decides what to run and whether a failure is fatal.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	devpreperr "github.com/devprep/devprep/pkg/errors"
	"github.com/devprep/devprep/pkg/logging"
	"github.com/rs/zerolog"
)

// Result captures the outcome of one invocation.
type Result struct {
	Command  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Request describes a single external command invocation.
type Request struct {
	Command    string
	Args       []string
	WorkingDir string
	Env        map[string]string
	// Timeout bounds the invocation; zero means no limit (builds can
	// legitimately run for hours).
	Timeout time.Duration
	// Interactive connects the child to the parent's stdio instead of
	// capturing output. Used for package managers whose progress output
	// the operator wants to see.
	Interactive bool
	// ReadOnly marks requests that only query system state. Dry-run
	// mode lets these through and fakes everything else.
	ReadOnly bool
}

// Invoker runs external commands.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Result, error)
	// LookPath reports whether a tool exists on PATH.
	LookPath(tool string) bool
}

// OS is the production Invoker backed by os/exec.
type OS struct {
	logger zerolog.Logger
}

// NewOS creates an Invoker that runs real processes.
func NewOS() *OS {
	return &OS{logger: logging.GetLogger("invoker")}
}

// Invoke runs the command synchronously. A non-zero exit status is
// returned as a TOOL_FAILED error alongside the populated Result; a
// missing binary is TOOL_NOT_FOUND. Context cancellation kills the
// child process.
func (o *OS) Invoke(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	o.logger.Debug().
		Str("command", req.Command).
		Strs("args", req.Args).
		Str("workingDir", req.WorkingDir).
		Msg("Executing command")

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, req.Command, req.Args...)
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	cmd.Env = os.Environ()
	for key, value := range req.Env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	var stdout, stderr bytes.Buffer
	if req.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()

	result := Result{
		Command:  req.Command,
		Args:     req.Args,
		Stdout:   strings.TrimRight(stdout.String(), "\n"),
		Stderr:   strings.TrimRight(stderr.String(), "\n"),
		Duration: time.Since(start),
	}

	if err == nil {
		o.logger.Debug().
			Str("command", req.Command).
			Dur("duration", result.Duration).
			Msg("Command succeeded")
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound):
		result.ExitCode = -1
		return result, devpreperr.Wrapf(err, devpreperr.ErrToolNotFound,
			"%s not found on PATH", req.Command)
	default:
		result.ExitCode = -1
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, devpreperr.Wrapf(ctxErr, devpreperr.ErrToolFailed,
			"%s interrupted", req.Command)
	}

	o.logger.Debug().
		Str("command", req.Command).
		Int("exitCode", result.ExitCode).
		Str("stderr", result.Stderr).
		Msg("Command failed")

	return result, devpreperr.Wrapf(err, devpreperr.ErrToolFailed,
		"%s exited with status %d", req.Command, result.ExitCode).
		WithDetail("stderr", result.Stderr)
}

// LookPath reports whether tool resolves on PATH.
func (o *OS) LookPath(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}
