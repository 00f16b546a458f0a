package driving

import (
	"context"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// Ingestor runs files through the ingestion pipeline.
type Ingestor interface {
	// Process runs one file found under root through extraction, dedup,
	// classification, reorganisation and storage. Category directories are
	// placed below root. Failures are reported in the result, never as a
	// panic or an aborted batch.
	Process(ctx context.Context, root, path string) domain.ProcessResult

	// Scan walks root once and processes every supported file, text files
	// first. The returned error is set only when the walk itself fails.
	Scan(ctx context.Context, root string) (domain.ScanResult, error)
}
