package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Ensure SideStore implements the interfaces.
var (
	_ driven.HashStore        = (*SideStore)(nil)
	_ driven.PostContextStore = (*SideStore)(nil)
)

// SideStore is an in-memory implementation of the dedup and carousel stores.
type SideStore struct {
	mu        sync.RWMutex
	hashes    []string
	contexts  map[string]domain.PostContext
	hashSaves int
	ctxSaves  int
	saveErr   error
}

// NewSideStore creates an empty side store.
func NewSideStore() *SideStore {
	return &SideStore{contexts: make(map[string]domain.PostContext)}
}

// LoadHashes returns the persisted hash set.
func (s *SideStore) LoadHashes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.hashes...), nil
}

// SaveHashes replaces the persisted hash set.
func (s *SideStore) SaveHashes(_ context.Context, hashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.hashes = append([]string(nil), hashes...)
	s.hashSaves++
	return nil
}

// LoadPostContexts returns the persisted post contexts.
func (s *SideStore) LoadPostContexts(_ context.Context) (map[string]domain.PostContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.PostContext, len(s.contexts))
	for k, v := range s.contexts {
		out[k] = v
	}
	return out, nil
}

// SavePostContexts replaces the persisted post contexts.
func (s *SideStore) SavePostContexts(_ context.Context, contexts map[string]domain.PostContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.contexts = make(map[string]domain.PostContext, len(contexts))
	for k, v := range contexts {
		s.contexts[k] = v
	}
	s.ctxSaves++
	return nil
}

// SetSaveError makes every subsequent save fail with err.
func (s *SideStore) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// HashSaves returns how many times the hash set was written.
func (s *SideStore) HashSaves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashSaves
}

// ContextSaves returns how many times the post contexts were written.
func (s *SideStore) ContextSaves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctxSaves
}
