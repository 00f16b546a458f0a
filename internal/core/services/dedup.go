package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// DedupIndex is the persisted set of perceptual hashes of accepted images.
// Entries are never pruned.
type DedupIndex struct {
	store    driven.HashStore
	hasher   driven.PerceptualHasher
	distance int

	mu     sync.Mutex
	hashes []string
	set    map[string]struct{}
}

// NewDedupIndex loads the persisted hash set. distance > 0 treats hashes
// within that Hamming distance as duplicates.
func NewDedupIndex(
	ctx context.Context,
	store driven.HashStore,
	hasher driven.PerceptualHasher,
	distance int,
) (*DedupIndex, error) {
	hashes, err := store.LoadHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dedup index: %w", err)
	}

	d := &DedupIndex{
		store:    store,
		hasher:   hasher,
		distance: distance,
		set:      make(map[string]struct{}, len(hashes)),
	}
	for _, h := range hashes {
		if _, ok := d.set[h]; ok {
			continue
		}
		d.set[h] = struct{}{}
		d.hashes = append(d.hashes, h)
	}
	return d, nil
}

// ComputeHash fingerprints the image at path.
func (d *DedupIndex) ComputeHash(path string) (string, error) {
	return d.hasher.Hash(path)
}

// IsDuplicate reports whether hash is already indexed.
func (d *DedupIndex) IsDuplicate(hash string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.set[hash]; ok {
		return true
	}
	if d.distance <= 0 {
		return false
	}
	for _, known := range d.hashes {
		dist, err := d.hasher.Distance(hash, known)
		if err != nil {
			continue
		}
		if dist <= d.distance {
			return true
		}
	}
	return false
}

// Record adds hash to the index and rewrites the persisted set.
// Recording a known hash is a no-op.
func (d *DedupIndex) Record(ctx context.Context, hash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.set[hash]; ok {
		return nil
	}
	d.set[hash] = struct{}{}
	d.hashes = append(d.hashes, hash)

	snapshot := make([]string, len(d.hashes))
	copy(snapshot, d.hashes)
	if err := d.store.SaveHashes(ctx, snapshot); err != nil {
		return fmt.Errorf("save dedup index: %w", err)
	}
	return nil
}

// Len returns the number of indexed hashes.
func (d *DedupIndex) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hashes)
}
