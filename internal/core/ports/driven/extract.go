package driven

import "context"

// TextExtractor recovers raw text from one kind of file.
//
// Implementations:
//   - pdf: per-page text via pdftotext
//   - ocr: tesseract over a preprocessed copy of an image
//   - plaintext: file read with the spam filter applied
type TextExtractor interface {
	// Extract returns the text of the file at path.
	// Errors wrap domain.ErrExtraction.
	Extract(ctx context.Context, path string) (string, error)
}

// PerceptualHasher fingerprints images by visual content.
type PerceptualHasher interface {
	// Hash returns a stable hex fingerprint of the decoded image.
	Hash(path string) (string, error)

	// Distance returns the Hamming distance between two fingerprints.
	Distance(a, b string) (int, error)
}

// ImagePreparer produces image payloads for the classification service.
type ImagePreparer interface {
	// EncodeForVision returns the image as a base64 JPEG whose longest
	// edge is at most maxEdge pixels.
	EncodeForVision(path string, maxEdge int) (string, error)

	// Dimensions returns the pixel width and height of the image.
	Dimensions(path string) (width, height int, err error)
}
