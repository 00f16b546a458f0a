package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedKind indicates a file extension the pipeline does not ingest.
	ErrUnsupportedKind = errors.New("unsupported kind")

	// ErrDuplicate indicates an image whose perceptual hash is already indexed.
	ErrDuplicate = errors.New("duplicate content")

	// ErrInvalidTag indicates a tag outside the configured vocabulary.
	ErrInvalidTag = errors.New("tag not in vocabulary")

	// ErrExtraction indicates a file could not be read or decoded.
	ErrExtraction = errors.New("extraction failed")

	// ErrClassifierUnavailable indicates the classification service could not be reached.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrQueueClosed indicates a task was offered after shutdown was requested.
	ErrQueueClosed = errors.New("queue closed")
)
