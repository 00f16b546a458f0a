package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
// Query ranks by the number of query terms found in the record body.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.ContentRecord
	adds    int
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]domain.ContentRecord)}
}

// Add upserts a record.
func (s *RecordStore) Add(_ context.Context, rec *domain.ContentRecord) error {
	if rec == nil || rec.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *rec
	stored.Tags = append([]domain.Tag(nil), rec.Tags...)
	if prev, ok := s.records[rec.ID]; ok && !prev.CreatedAt.IsZero() {
		stored.CreatedAt = prev.CreatedAt
	}
	s.records[rec.ID] = stored
	s.adds++
	return nil
}

// Get retrieves a record by ID.
func (s *RecordStore) Get(_ context.Context, id string) (*domain.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Exists reports whether a record is stored under id.
func (s *RecordStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}

// UpdateTags rewrites the tags of a record.
func (s *RecordStore) UpdateTags(_ context.Context, id string, tags []domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Tags = append([]domain.Tag(nil), tags...)
	rec.UpdatedAt = time.Now()
	s.records[id] = rec
	return nil
}

// Rename moves a record to a new ID.
func (s *RecordStore) Rename(_ context.Context, oldID, newID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[oldID]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.records, oldID)
	rec.ID = newID
	rec.UpdatedAt = time.Now()
	s.records[newID] = rec
	return nil
}

// Query ranks records by how many query terms their body contains.
func (s *RecordStore) Query(_ context.Context, text string, n int) ([]domain.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(text))
	if len(terms) == 0 {
		return []domain.SearchHit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.SearchHit
	for _, rec := range s.records {
		body := strings.ToLower(rec.Body())
		matched := 0
		for _, term := range terms {
			if strings.Contains(body, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		hits = append(hits, domain.SearchHit{
			Record: rec,
			Score:  float64(matched) / float64(len(terms)),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.ID < hits[j].Record.ID
	})
	if n > 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits, nil
}

// List returns records matching filter, newest first. Limit <= 0 means all.
func (s *RecordStore) List(_ context.Context, filter domain.ListFilter) ([]domain.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ContentRecord, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if filter.Tag != "" && !hasTag(rec.Tags, filter.Tag) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []domain.ContentRecord{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// ListByTags returns records carrying any of tags, ordered by ID.
func (s *RecordStore) ListByTags(_ context.Context, tags []domain.Tag) ([]domain.ContentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ContentRecord
	for _, rec := range s.records {
		for _, t := range tags {
			if hasTag(rec.Tags, t) {
				out = append(out, rec)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the number of records.
func (s *RecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// AddCalls returns how many times Add was called.
func (s *RecordStore) AddCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.adds
}

func hasTag(tags []domain.Tag, want domain.Tag) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
