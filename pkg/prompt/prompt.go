// Package prompt implements the yes/no confirmation gate used to guard
// system-mutating provisioning steps. Decision logic is isolated here so
// steps can be tested with scripted answers.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devprep/devprep/pkg/logging"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Decision is a resolved confirmation answer.
type Decision bool

const (
	Accepted Decision = true
	Declined Decision = false
)

// Gate asks yes/no questions on the terminal. The accept rule is an
// explicit allow-list: case-insensitive "y" or "yes". Anything else,
// including empty input and EOF, declines. There is no retry loop.
type Gate struct {
	in        *bufio.Scanner
	out       io.Writer
	assumeYes bool
	tty       bool
	logger    zerolog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithInput replaces stdin, for scripted answers in tests.
func WithInput(r io.Reader) Option {
	return func(g *Gate) {
		g.in = bufio.NewScanner(r)
		g.tty = true
	}
}

// WithOutput replaces the writer questions are printed to.
func WithOutput(w io.Writer) Option {
	return func(g *Gate) { g.out = w }
}

// WithAssumeYes makes every Confirm return Accepted without reading
// input (the --yes flag).
func WithAssumeYes(yes bool) Option {
	return func(g *Gate) { g.assumeYes = yes }
}

// New creates a Gate reading from stdin. When stdin is not a terminal
// and assume-yes is off, every confirmation declines instead of
// blocking forever.
func New(opts ...Option) *Gate {
	g := &Gate{
		in:     bufio.NewScanner(os.Stdin),
		out:    os.Stderr,
		tty:    isatty.IsTerminal(os.Stdin.Fd()),
		logger: logging.GetLogger("prompt"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AssumeYes reports whether the gate is in unattended mode.
func (g *Gate) AssumeYes() bool {
	return g.assumeYes
}

// Confirm asks one question and returns the decision.
func (g *Gate) Confirm(question string) Decision {
	if g.assumeYes {
		g.logger.Debug().Str("question", question).Msg("Auto-accepted (--yes)")
		return Accepted
	}

	if !g.tty {
		g.logger.Warn().Str("question", question).Msg("Stdin is not a terminal, declining")
		return Declined
	}

	fmt.Fprintf(g.out, "%s [y/N]: ", question)

	if !g.in.Scan() {
		// EOF or read error counts as a decline.
		return Declined
	}

	answer := strings.ToLower(strings.TrimSpace(g.in.Text()))
	if answer == "y" || answer == "yes" {
		return Accepted
	}
	return Declined
}
