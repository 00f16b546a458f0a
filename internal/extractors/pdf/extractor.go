// Package pdf extracts text from PDF files using pdftotext.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
	"github.com/custodia-labs/refshelf/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// DefaultCommand is the pdftotext binary name.
const DefaultCommand = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler to extract PDF text")

// Extractor concatenates the text of every page.
type Extractor struct {
	command  string
	runner   extractors.CommandRunner
	lookPath extractors.LookPathFunc
}

// New creates a PDF extractor running command (pdftotext when empty).
func New(command string) *Extractor {
	return NewWithRunner(command, extractors.ExecRunner{})
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(command string, runner extractors.CommandRunner) *Extractor {
	if command == "" {
		command = DefaultCommand
	}
	return &Extractor{
		command:  command,
		runner:   runner,
		lookPath: exec.LookPath,
	}
}

// Extract returns the text of all pages joined by newlines.
// Page breaks (form feeds) become blank lines.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	if _, err := e.lookPath(e.command); err != nil {
		return "", ErrPDFToolNotFound
	}

	// "-" writes to stdout; -layout keeps column order readable.
	out, err := e.runner.Run(ctx, e.command, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext failed on %s: %w", domain.ErrExtraction, path, err)
	}

	text := strings.ReplaceAll(string(out), "\f", "\n")
	return strings.TrimSpace(text), nil
}

// CheckAvailable verifies pdftotext can be found.
func CheckAvailable() error {
	if _, err := exec.LookPath(DefaultCommand); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform install hints for pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}
