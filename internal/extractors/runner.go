// Package extractors holds the per-kind content extractors and the
// command runner they share for external tools.
package extractors

import (
	"context"
	"os/exec"
)

// CommandRunner executes external commands.
// This interface enables testing without the real binaries.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner is the default CommandRunner using os/exec.
type ExecRunner struct{}

// Run executes the command and returns its stdout.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// LookPathFunc resolves a binary name; exec.LookPath in production.
type LookPathFunc func(file string) (string, error)
