package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
	"github.com/custodia-labs/refshelf/internal/core/ports/driving"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// Ensure Relinker implements the interface.
var _ driving.RelinkService = (*Relinker)(nil)

// Relinker repairs record IDs for files that were moved by hand.
type Relinker struct {
	store driven.RecordStore
}

// NewRelinker creates a relinker.
func NewRelinker(store driven.RecordStore) *Relinker {
	return &Relinker{store: store}
}

// Relink matches records whose file is missing against files with the same
// base name under root. When several files share a name, the first in
// lexical order that is not already a record wins.
func (r *Relinker) Relink(ctx context.Context, root string) (domain.RelinkResult, error) {
	var result domain.RelinkResult

	byName, err := indexByBaseName(root)
	if err != nil {
		return result, err
	}

	records, err := r.store.List(ctx, domain.ListFilter{})
	if err != nil {
		return result, fmt.Errorf("list records: %w", err)
	}

	known := make(map[string]struct{}, len(records))
	for _, rec := range records {
		known[rec.ID] = struct{}{}
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := os.Stat(rec.ID); err == nil {
			result.AlreadyCorrect++
			continue
		}

		target := ""
		for _, candidate := range byName[filepath.Base(rec.ID)] {
			if _, taken := known[candidate]; !taken {
				target = candidate
				break
			}
		}
		if target == "" {
			result.Missing++
			logger.Debug("relink: no file found for %s", rec.ID)
			continue
		}

		if err := r.store.Rename(ctx, rec.ID, target); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result.Missing++
				continue
			}
			return result, fmt.Errorf("rename %s: %w", rec.ID, err)
		}
		delete(known, rec.ID)
		known[target] = struct{}{}
		result.Updated++
		logger.Info("relinked %s -> %s", rec.ID, target)
	}
	return result, nil
}

func indexByBaseName(root string) (map[string][]string, error) {
	index := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := domain.KindFromPath(path); ok {
			index[d.Name()] = append(index[d.Name()], path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	for _, paths := range index {
		sort.Strings(paths)
	}
	return index, nil
}
