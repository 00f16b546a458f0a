package driving

import (
	"context"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// CatalogService exposes the stored records to external actors.
type CatalogService interface {
	// Search returns up to n records ranked against a free-text query.
	Search(ctx context.Context, query string, n int) ([]domain.SearchHit, error)

	// Network returns up to n records sharing tags with the record id,
	// most shared tags first. The record itself is excluded.
	Network(ctx context.Context, id string, n int) ([]domain.SearchHit, error)

	// Get retrieves one record.
	Get(ctx context.Context, id string) (*domain.ContentRecord, error)

	// List returns records matching the filter.
	List(ctx context.Context, filter domain.ListFilter) ([]domain.ContentRecord, error)

	// UpdateTags replaces the tags of a record. Every token must belong to
	// the vocabulary; the result is hierarchy-expanded before persisting.
	UpdateTags(ctx context.Context, id string, tokens []string) (*domain.ContentRecord, error)

	// Vocabulary returns the permitted tags.
	Vocabulary() []domain.Tag
}

// RelinkService repairs record paths after files were moved outside the pipeline.
type RelinkService interface {
	// Relink matches every record whose file is missing against files of the
	// same base name under root and rewrites the record ID.
	Relink(ctx context.Context, root string) (domain.RelinkResult, error)
}
