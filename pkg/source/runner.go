package source

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external command and returns what it wrote to stdout.
// A failed command returns a *CommandError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type CommandError struct {
	Name   string
	Stderr string

	Err error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return e.Name + ": " + e.Err.Error()
	}

	return e.Name + ": " + e.Err.Error() + ": " + e.Stderr
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	r.logger.Debug("poppler", "cmd", name, "args", args, "duration", time.Since(start), "error", err)

	if err != nil {
		return nil, &CommandError{
			Name:   name,
			Stderr: firstLine(stderr.String()),
			Err:    err,
		}
	}

	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
