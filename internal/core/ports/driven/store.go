package driven

import (
	"context"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// RecordStore persists ContentRecords.
// Backed by SQLite with an FTS5 index over the record body.
type RecordStore interface {
	// Add upserts a record keyed by its ID.
	Add(ctx context.Context, rec *domain.ContentRecord) error

	// Get retrieves a record by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.ContentRecord, error)

	// Exists reports whether a record with the given ID is stored.
	Exists(ctx context.Context, id string) (bool, error)

	// UpdateTags rewrites the tags of an existing record, including the
	// tag header embedded in its body.
	UpdateTags(ctx context.Context, id string, tags []domain.Tag) error

	// Rename moves a record to a new ID, keeping its content.
	Rename(ctx context.Context, oldID, newID string) error

	// Query returns up to n records ranked by relevance to text.
	Query(ctx context.Context, text string, n int) ([]domain.SearchHit, error)

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter domain.ListFilter) ([]domain.ContentRecord, error)

	// ListByTags returns every record carrying at least one of tags.
	ListByTags(ctx context.Context, tags []domain.Tag) ([]domain.ContentRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// HashStore persists the dedup index.
// The full set is rewritten on every save.
type HashStore interface {
	LoadHashes(ctx context.Context) ([]string, error)
	SaveHashes(ctx context.Context, hashes []string) error
}

// PostContextStore persists the carousel cache.
// The full map is rewritten on every save.
type PostContextStore interface {
	LoadPostContexts(ctx context.Context) (map[string]domain.PostContext, error)
	SavePostContexts(ctx context.Context, contexts map[string]domain.PostContext) error
}
