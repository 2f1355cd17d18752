package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external binary and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. A failing command's stderr tail is folded into
// the returned error, and context expiry is reported as ErrTimeout.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return stdout.Bytes(), fmt.Errorf("%w: %s: %w", ErrTimeout, name, ctxErr)
		}
		return stdout.Bytes(), ctxErr
	}
	if tail := tailLines(stderr.String(), 5); tail != "" {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", name, err, tail)
	}
	return stdout.Bytes(), fmt.Errorf("%s: %w", name, err)
}

func tailLines(text string, limit int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
