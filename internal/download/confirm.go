package download

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Non-interactive policies for large downloads.
const (
	NonInteractiveSkip   = "skip"
	NonInteractiveAccept = "accept"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Interactive() bool
	Confirm(ctx context.Context, question string) (bool, error)
}

// TerminalPrompter reads answers from a terminal. A single goroutine owns
// the input stream, so a Confirm abandoned by cancellation does not leave a
// second reader behind; a line typed after that is taken as the next answer.
type TerminalPrompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	once  sync.Once
	lines chan string
}

// NewTerminalPrompter prompts on stdout and reads stdin. It is interactive
// only when stdin is a terminal.
func NewTerminalPrompter() *TerminalPrompter {
	fd := os.Stdin.Fd()
	return NewPrompter(os.Stdin, os.Stdout, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewPrompter builds a prompter over arbitrary streams.
func NewPrompter(in io.Reader, out io.Writer, interactive bool) *TerminalPrompter {
	return &TerminalPrompter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		lines:       make(chan string),
	}
}

// Interactive reports whether questions can be answered.
func (p *TerminalPrompter) Interactive() bool { return p.interactive }

// readLines feeds input lines to p.lines until the stream ends, then closes it.
func (p *TerminalPrompter) readLines() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		if line != "" {
			p.lines <- line
		}
		if err != nil {
			return
		}
	}
}

// Confirm prints question and accepts "y" or "yes". A closed input counts
// as "no".
func (p *TerminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s (y/n): ", question); err != nil {
		return false, err
	}
	p.once.Do(func() { go p.readLines() })
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return false, nil
		}
		reply := strings.ToLower(strings.TrimSpace(line))
		return reply == "y" || reply == "yes", nil
	}
}

// SizeGate decides whether a large download may proceed.
type SizeGate struct {
	Threshold      int64
	AssumeYes      bool
	NonInteractive string
	Prompter       Prompter
}

// Allow returns true when size is within the threshold or the user (or
// policy) accepts it.
func (g SizeGate) Allow(ctx context.Context, label string, size int64) (bool, error) {
	if g.Threshold <= 0 || size <= g.Threshold || g.AssumeYes {
		return true, nil
	}
	if g.Prompter == nil || !g.Prompter.Interactive() {
		return g.NonInteractive == NonInteractiveAccept, nil
	}
	question := fmt.Sprintf("Warning: %s is large (%.2f MB). Download?", label, float64(size)/(1024*1024))
	return g.Prompter.Confirm(ctx, question)
}
