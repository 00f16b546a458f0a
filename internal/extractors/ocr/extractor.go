// Package ocr recovers embedded text from images with tesseract.
package ocr

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
	"github.com/custodia-labs/refshelf/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Defaults for the tesseract invocation.
const (
	DefaultCommand   = "tesseract"
	DefaultLanguages = "kor+eng"
)

// ErrOCRToolNotFound indicates tesseract is not installed.
var ErrOCRToolNotFound = errors.New("tesseract not found: install tesseract-ocr to read image text")

// Preparer writes an OCR-friendly copy of an image and returns its path.
type Preparer interface {
	PrepareForOCR(path string) (string, error)
}

// Config configures the OCR extractor.
type Config struct {
	Command   string
	Languages string
}

// Extractor runs tesseract over a grayscale, contrast-boosted copy of the
// image so line drawings and diagram labels are recognised.
type Extractor struct {
	command   string
	languages string
	preparer  Preparer
	runner    extractors.CommandRunner
	lookPath  extractors.LookPathFunc
}

// New creates an OCR extractor.
func New(cfg Config, preparer Preparer) *Extractor {
	return NewWithRunner(cfg, preparer, extractors.ExecRunner{})
}

// NewWithRunner creates an OCR extractor with a custom command runner.
func NewWithRunner(cfg Config, preparer Preparer, runner extractors.CommandRunner) *Extractor {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Languages == "" {
		cfg.Languages = DefaultLanguages
	}
	return &Extractor{
		command:   cfg.Command,
		languages: cfg.Languages,
		preparer:  preparer,
		runner:    runner,
		lookPath:  exec.LookPath,
	}
}

// Extract returns the recognised text, trimmed.
func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if _, err := e.lookPath(e.command); err != nil {
		return "", ErrOCRToolNotFound
	}

	prepared, err := e.preparer.PrepareForOCR(path)
	if err != nil {
		return "", fmt.Errorf("preparing %s for OCR: %w", path, err)
	}
	defer func() {
		if rmErr := os.Remove(prepared); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Debug("ocr: removing %s: %v", prepared, rmErr)
		}
	}()

	out, err := e.runner.Run(ctx, e.command, prepared, "stdout", "-l", e.languages)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract failed on %s: %w", domain.ErrExtraction, path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
