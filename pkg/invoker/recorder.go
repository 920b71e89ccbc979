package invoker

import (
	"context"
	"strings"
	"sync"

	devpreperr "github.com/devprep/devprep/pkg/errors"
)

// Recorder is an Invoker test double. It records every invocation and
// answers from a script of canned responses keyed by command line
// prefix. Unscripted commands succeed with empty output.
type Recorder struct {
	mu        sync.Mutex
	calls     []Request
	responses []cannedResponse
	missing   map[string]bool
}

type cannedResponse struct {
	prefix string
	result Result
	err    error
}

// NewRecorder creates an empty Recorder where every command succeeds.
func NewRecorder() *Recorder {
	return &Recorder{missing: make(map[string]bool)}
}

// Respond scripts a response for any invocation whose "command arg..."
// string starts with prefix. Later scripts win over earlier ones.
func (r *Recorder) Respond(prefix string, result Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, cannedResponse{prefix: prefix, result: result, err: err})
}

// Fail scripts a non-zero exit for matching invocations.
func (r *Recorder) Fail(prefix string, exitCode int, stderr string) {
	r.Respond(prefix, Result{ExitCode: exitCode, Stderr: stderr},
		devpreperr.Newf(devpreperr.ErrToolFailed, "%s exited with status %d", prefix, exitCode))
}

// Succeed scripts a zero exit with the given stdout.
func (r *Recorder) Succeed(prefix string, stdout string) {
	r.Respond(prefix, Result{Stdout: stdout}, nil)
}

// MarkMissing makes LookPath report tool as absent.
func (r *Recorder) MarkMissing(tool string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing[tool] = true
}

// Invoke records the request and answers from the script.
func (r *Recorder) Invoke(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, devpreperr.Wrapf(err, devpreperr.ErrToolFailed, "%s interrupted", req.Command)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)

	line := commandLine(req)
	for i := len(r.responses) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.responses[i].prefix) {
			res := r.responses[i].result
			res.Command = req.Command
			res.Args = req.Args
			return res, r.responses[i].err
		}
	}
	return Result{Command: req.Command, Args: req.Args}, nil
}

// LookPath honors MarkMissing, defaulting to present.
func (r *Recorder) LookPath(tool string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.missing[tool]
}

// Calls returns a copy of all recorded requests.
func (r *Recorder) Calls() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.calls...)
}

// CallLines returns the recorded invocations as "command arg..." strings.
func (r *Recorder) CallLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, 0, len(r.calls))
	for _, call := range r.calls {
		lines = append(lines, commandLine(call))
	}
	return lines
}

// CallCount returns how many invocations matched prefix.
func (r *Recorder) CallCount(prefix string) int {
	count := 0
	for _, line := range r.CallLines() {
		if strings.HasPrefix(line, prefix) {
			count++
		}
	}
	return count
}

func commandLine(req Request) string {
	if len(req.Args) == 0 {
		return req.Command
	}
	return req.Command + " " + strings.Join(req.Args, " ")
}
