package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Side-state keys.
const (
	keyDedupHashes      = "dedup_hashes"
	keyPostTags         = "post_tags"
	keyPostDescriptions = "post_descriptions"
	keyPostText         = "post_text"
)

// loadBlob decodes the JSON blob stored under key into v.
// A missing key leaves v untouched.
func loadBlob(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, key string, v any) error {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// saveBlob replaces the blob stored under key.
func saveBlob(ctx context.Context, tx *sql.Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(raw), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// ==================== Hash Store ====================

// hashStore implements driven.HashStore.
type hashStore struct {
	store *Store
}

var _ driven.HashStore = (*hashStore)(nil)

// LoadHashes returns the persisted hash set.
func (s *hashStore) LoadHashes(ctx context.Context) ([]string, error) {
	hashes := []string{}
	if err := loadBlob(ctx, s.store.db, keyDedupHashes, &hashes); err != nil {
		return nil, err
	}
	return hashes, nil
}

// SaveHashes rewrites the hash set. Hashes are stored sorted.
func (s *hashStore) SaveHashes(ctx context.Context, hashes []string) error {
	sorted := append([]string{}, hashes...)
	sort.Strings(sorted)
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		return saveBlob(ctx, tx, keyDedupHashes, sorted)
	})
}

// ==================== Post Context Store ====================

// postContextStore implements driven.PostContextStore over three blobs
// keyed by post: tags, descriptions and text.
type postContextStore struct {
	store *Store
}

var _ driven.PostContextStore = (*postContextStore)(nil)

// LoadPostContexts merges the three post blobs into one map.
func (s *postContextStore) LoadPostContexts(ctx context.Context) (map[string]domain.PostContext, error) {
	var (
		tags  = map[string][]string{}
		descs = map[string]string{}
		texts = map[string]string{}
	)
	if err := loadBlob(ctx, s.store.db, keyPostTags, &tags); err != nil {
		return nil, err
	}
	if err := loadBlob(ctx, s.store.db, keyPostDescriptions, &descs); err != nil {
		return nil, err
	}
	if err := loadBlob(ctx, s.store.db, keyPostText, &texts); err != nil {
		return nil, err
	}

	out := make(map[string]domain.PostContext)
	for key, list := range tags {
		pc := out[key]
		for _, t := range list {
			pc.Tags = append(pc.Tags, domain.Tag(t))
		}
		out[key] = pc
	}
	for key, d := range descs {
		pc := out[key]
		pc.Description = d
		out[key] = pc
	}
	for key, t := range texts {
		pc := out[key]
		pc.Text = t
		out[key] = pc
	}
	return out, nil
}

// SavePostContexts splits contexts into the three blobs and rewrites them together.
func (s *postContextStore) SavePostContexts(ctx context.Context, contexts map[string]domain.PostContext) error {
	var (
		tags  = map[string][]string{}
		descs = map[string]string{}
		texts = map[string]string{}
	)
	for key, pc := range contexts {
		if len(pc.Tags) > 0 {
			list := make([]string, len(pc.Tags))
			for i, t := range pc.Tags {
				list[i] = string(t)
			}
			tags[key] = list
		}
		if pc.Description != "" {
			descs[key] = pc.Description
		}
		if pc.Text != "" {
			texts[key] = pc.Text
		}
	}

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveBlob(ctx, tx, keyPostTags, tags); err != nil {
			return err
		}
		if err := saveBlob(ctx, tx, keyPostDescriptions, descs); err != nil {
			return err
		}
		return saveBlob(ctx, tx, keyPostText, texts)
	})
}
