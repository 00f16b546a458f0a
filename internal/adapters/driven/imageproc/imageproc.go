// Package imageproc implements the image-side driven ports: perceptual
// hashing for dedup, vision payload encoding and OCR preprocessing.
package imageproc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"
	"strconv"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Ensure Processor implements the interfaces.
var (
	_ driven.PerceptualHasher = (*Processor)(nil)
	_ driven.ImagePreparer    = (*Processor)(nil)
)

const (
	// jpegQuality is used for vision payloads.
	jpegQuality = 85

	// ocrContrast is the contrast boost applied before OCR, in percent.
	ocrContrast = 40
)

// Processor decodes images with imaging and hashes them with goimagehash.
type Processor struct {
	tempDir string
}

// New creates a Processor. OCR copies are written to tempDir, or the
// system temp directory when empty.
func New(tempDir string) *Processor {
	return &Processor{tempDir: tempDir}
}

// Hash returns the 64-bit DCT perceptual hash of the image as 16 hex digits.
func (p *Processor) Hash(path string) (string, error) {
	img, err := open(path)
	if err != nil {
		return "", err
	}
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%016x", h.GetHash()), nil
}

// Distance returns the Hamming distance between two hashes from Hash.
func (p *Processor) Distance(a, b string) (int, error) {
	ha, err := parseHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := parseHash(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}

// EncodeForVision fits the image inside maxEdge x maxEdge and returns it
// as base64 JPEG. Images already small enough are re-encoded unscaled.
func (p *Processor) EncodeForVision(path string, maxEdge int) (string, error) {
	img, err := open(path)
	if err != nil {
		return "", err
	}

	b := img.Bounds()
	if maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Dimensions reads the image size without decoding pixels.
func (p *Processor) Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decoding %s: %w", domain.ErrExtraction, path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// PrepareForOCR writes a grayscale, contrast-boosted PNG copy of the image
// and returns its path. The caller removes the copy.
func (p *Processor) PrepareForOCR(path string) (string, error) {
	img, err := open(path)
	if err != nil {
		return "", err
	}

	prepared := imaging.AdjustContrast(imaging.Grayscale(img), ocrContrast)

	f, err := os.CreateTemp(p.tempDir, "refshelf-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("creating OCR copy: %w", err)
	}
	if err := imaging.Encode(f, prepared, imaging.PNG); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encoding OCR copy: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing OCR copy: %w", err)
	}
	return f.Name(), nil
}

// open decodes an image, honouring EXIF orientation.
func open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %w", domain.ErrExtraction, path, err)
	}
	return img, nil
}

func parseHash(s string) (*goimagehash.ImageHash, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed hash %q", domain.ErrInvalidInput, s)
	}
	return goimagehash.NewImageHash(v, goimagehash.PHash), nil
}
