package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// Reorganizer moves ingested files into directories named after their
// primary tag and drops shortcut files pointing back at the source post.
// The tree root is passed per call, so one reorganizer serves the configured
// watch root and any directory scanned on demand.
type Reorganizer struct {
	enabled   bool
	vocab     *domain.Vocabulary
	generic   map[domain.Tag]struct{}
	shortcuts map[string]string
}

// NewReorganizer creates a reorganizer.
func NewReorganizer(settings domain.OrganizeSettings, vocab *domain.Vocabulary) *Reorganizer {
	if vocab == nil {
		vocab = domain.DefaultVocabulary()
	}
	generic := make(map[domain.Tag]struct{}, len(settings.GenericTags))
	for _, g := range settings.GenericTags {
		if tag, ok := vocab.Lookup(g); ok {
			generic[tag] = struct{}{}
		}
	}
	return &Reorganizer{
		enabled:   settings.Enabled,
		vocab:     vocab,
		generic:   generic,
		shortcuts: settings.ShortcutURLs,
	}
}

// PrimaryTag returns the first tag that is neither generic nor the sentinel.
func (r *Reorganizer) PrimaryTag(tags []domain.Tag) domain.Tag {
	for _, t := range tags {
		if t == domain.Uncategorized {
			continue
		}
		if _, ok := r.generic[t]; ok {
			continue
		}
		return t
	}
	return domain.Uncategorized
}

// Target computes the category path for a file found under root without
// touching the disk. Files are never hoisted above root. An empty root
// means the file's own directory.
func (r *Reorganizer) Target(root, path string, tags []domain.Tag) string {
	dir := filepath.Dir(path)
	if root == "" {
		root = dir
	}
	if r.isCategoryDir(root, dir) {
		dir = filepath.Dir(dir)
	}
	return filepath.Join(dir, string(r.PrimaryTag(tags)), filepath.Base(path))
}

// isCategoryDir reports whether dir was created by a previous placement and
// sits strictly below root.
func (r *Reorganizer) isCategoryDir(root, dir string) bool {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(dir)
	if err != nil || abs == absRoot {
		return false
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	name := domain.Tag(filepath.Base(abs))
	return name == domain.Uncategorized || r.vocab.Contains(name)
}

// Move places the file under its category directory and returns the new path.
// Moving onto the current location is a no-op. An existing file at the
// target is never overwritten.
func (r *Reorganizer) Move(root, path string, tags []domain.Tag) (string, error) {
	target := r.Target(root, path, tags)
	if filepath.Clean(target) == filepath.Clean(path) {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return path, fmt.Errorf("create category directory: %w", err)
	}
	if err := rename(path, target); err != nil {
		return path, err
	}
	return target, nil
}

// Revert moves a file placed by Move back to its original path.
func (r *Reorganizer) Revert(final, original string) error {
	if filepath.Clean(final) == filepath.Clean(original) {
		return nil
	}
	return rename(final, original)
}

func rename(from, to string) error {
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("move %s: target %s already exists", from, to)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("move %s: %w", from, err)
	}
	return nil
}

// Organize moves the file when reorganising is enabled. Failures are logged
// and leave the file at its original path, which is returned.
func (r *Reorganizer) Organize(root, path string, tags []domain.Tag) string {
	if !r.enabled {
		return path
	}

	final, err := r.Move(root, path, tags)
	if err != nil {
		logger.Warn("reorganize: %v", err)
	} else if final != path {
		logger.Info("moved %s -> %s", filepath.Base(path), filepath.Dir(final))
	}
	return final
}

// LinkPost writes the post shortcut into dir when reorganising is enabled.
func (r *Reorganizer) LinkPost(dir string, ref domain.PostRef) {
	if !r.enabled {
		return
	}
	if _, err := r.WriteShortcut(dir, ref); err != nil {
		logger.Warn("shortcut for %s: %v", ref.Key(), err)
	}
}

// WriteShortcut writes <prefix>_<postId>_link.url into dir when the post
// prefix has a configured URL. It reports whether a file was created;
// an existing shortcut is left untouched.
func (r *Reorganizer) WriteShortcut(dir string, ref domain.PostRef) (bool, error) {
	if !ref.Valid() {
		return false, nil
	}
	tmpl, ok := r.shortcuts[ref.Prefix]
	if !ok || tmpl == "" {
		return false, nil
	}

	path := filepath.Join(dir, ShortcutName(ref))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	content := fmt.Sprintf("[InternetShortcut]\nURL=%s\nIconIndex=0\n", fmt.Sprintf(tmpl, ref.PostID))
	if _, err := f.WriteString(content); err != nil {
		return false, err
	}
	return true, nil
}

// ShortcutName returns the shortcut file name for a post.
func ShortcutName(ref domain.PostRef) string {
	return ref.Key() + "_link.url"
}

// SourceURL returns the canonical post URL, or "" when no template matches.
func (r *Reorganizer) SourceURL(ref domain.PostRef) string {
	if !ref.Valid() {
		return ""
	}
	tmpl, ok := r.shortcuts[ref.Prefix]
	if !ok || tmpl == "" {
		return ""
	}
	return fmt.Sprintf(tmpl, ref.PostID)
}
