package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// CarouselCache holds one PostContext per post group so later slides of a
// post can reuse the classification of the first. Every mutation rewrites
// the persisted map.
type CarouselCache struct {
	store driven.PostContextStore

	mu      sync.Mutex
	entries map[string]domain.PostContext
}

// NewCarouselCache loads the persisted post contexts.
func NewCarouselCache(ctx context.Context, store driven.PostContextStore) (*CarouselCache, error) {
	entries, err := store.LoadPostContexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load post contexts: %w", err)
	}
	if entries == nil {
		entries = make(map[string]domain.PostContext)
	}
	return &CarouselCache{store: store, entries: entries}, nil
}

// Lookup returns the cached context for a post group.
func (c *CarouselCache) Lookup(ref domain.PostRef) (domain.PostContext, bool) {
	if !ref.Valid() {
		return domain.PostContext{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pc, ok := c.entries[ref.Key()]
	return pc, ok
}

// Get returns the cached context, or a placeholder carrying a generic
// description and the sentinel tag when nothing is cached.
func (c *CarouselCache) Get(ref domain.PostRef) domain.PostContext {
	if pc, ok := c.Lookup(ref); ok {
		return pc
	}
	return domain.PostContext{
		Tags:        []domain.Tag{domain.Uncategorized},
		Description: linkedSlideDescription(ref),
	}
}

// Put stores the tags and description of a classified slide.
// Cached text is preserved.
func (c *CarouselCache) Put(ctx context.Context, ref domain.PostRef, tags []domain.Tag, description string) error {
	if !ref.Valid() {
		return nil
	}
	return c.mutate(ctx, ref.Key(), func(pc *domain.PostContext) {
		pc.Tags = append([]domain.Tag(nil), tags...)
		pc.Description = description
	})
}

// PutText stores the filtered caption text of a post.
func (c *CarouselCache) PutText(ctx context.Context, ref domain.PostRef, text string) error {
	if !ref.Valid() {
		return nil
	}
	return c.mutate(ctx, ref.Key(), func(pc *domain.PostContext) {
		pc.Text = text
	})
}

func (c *CarouselCache) mutate(ctx context.Context, key string, fn func(*domain.PostContext)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pc := c.entries[key]
	fn(&pc)
	c.entries[key] = pc

	snapshot := make(map[string]domain.PostContext, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	if err := c.store.SavePostContexts(ctx, snapshot); err != nil {
		return fmt.Errorf("save post contexts: %w", err)
	}
	return nil
}

// Len returns the number of cached post groups.
func (c *CarouselCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func linkedSlideDescription(ref domain.PostRef) string {
	if !ref.Valid() {
		return "Linked slide."
	}
	return fmt.Sprintf("Linked slide %d of post %s.", ref.Slide, ref.PostID)
}
