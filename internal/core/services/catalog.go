package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
	"github.com/custodia-labs/refshelf/internal/core/ports/driving"
)

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

const (
	defaultSearchLimit = 10
	defaultListLimit   = 50
)

// CatalogService answers queries over stored records and applies tag edits.
type CatalogService struct {
	store     driven.RecordStore
	vocab     *domain.Vocabulary
	hierarchy domain.HierarchyMap
}

// NewCatalogService creates a catalog service.
func NewCatalogService(store driven.RecordStore, vocab *domain.Vocabulary, hierarchy domain.HierarchyMap) *CatalogService {
	if vocab == nil {
		vocab = domain.DefaultVocabulary()
	}
	if hierarchy == nil {
		hierarchy = domain.DefaultHierarchy()
	}
	return &CatalogService{store: store, vocab: vocab, hierarchy: hierarchy}
}

// Search returns up to n records ranked against query.
func (s *CatalogService) Search(ctx context.Context, query string, n int) ([]domain.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if n <= 0 {
		n = defaultSearchLimit
	}
	return s.store.Query(ctx, query, n)
}

// Network returns the records sharing the most tags with id.
func (s *CatalogService) Network(ctx context.Context, id string, n int) ([]domain.SearchHit, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = defaultSearchLimit
	}

	var tags []domain.Tag
	for _, t := range rec.Tags {
		if t != domain.Uncategorized {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return []domain.SearchHit{}, nil
	}

	candidates, err := s.store.ListByTags(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("list related records: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == rec.ID {
			continue
		}
		shared := sharedTags(tags, c.Tags)
		if len(shared) == 0 {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Record:     c,
			Score:      float64(len(shared)) / float64(len(tags)),
			SharedTags: shared,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

// Get retrieves one record.
func (s *CatalogService) Get(ctx context.Context, id string) (*domain.ContentRecord, error) {
	return s.store.Get(ctx, id)
}

// List returns records matching filter.
func (s *CatalogService) List(ctx context.Context, filter domain.ListFilter) ([]domain.ContentRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Tag != "" {
		tag, ok := s.vocab.Lookup(string(filter.Tag))
		if !ok && filter.Tag != domain.Uncategorized {
			return nil, &domain.TagError{Token: string(filter.Tag)}
		}
		if ok {
			filter.Tag = tag
		}
	}
	return s.store.List(ctx, filter)
}

// UpdateTags replaces the tags of a record after vocabulary validation and
// hierarchy expansion.
func (s *CatalogService) UpdateTags(ctx context.Context, id string, tokens []string) (*domain.ContentRecord, error) {
	tags, err := s.vocab.Validate(tokens)
	if err != nil {
		return nil, err
	}

	var real []domain.Tag
	for _, t := range tags {
		if t != domain.Uncategorized {
			real = append(real, t)
		}
	}
	tags = domain.WithFallback(s.hierarchy.Expand(real))

	if err := s.store.UpdateTags(ctx, id, tags); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Vocabulary returns the permitted tags.
func (s *CatalogService) Vocabulary() []domain.Tag {
	return s.vocab.Labels()
}

// sharedTags returns the members of want present in have, in want order.
func sharedTags(want, have []domain.Tag) []domain.Tag {
	set := make(map[domain.Tag]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	var out []domain.Tag
	for _, t := range want {
		if _, ok := set[t]; ok {
			out = append(out, t)
		}
	}
	return out
}
