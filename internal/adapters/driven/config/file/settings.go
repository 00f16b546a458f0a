package file

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Configuration keys.
const (
	KeyWatchRoot         = "watch.root"
	KeyWatchSettle       = "watch.settle"
	KeyOllamaBaseURL     = "ollama.base_url"
	KeyOllamaModel       = "ollama.model"
	KeyOllamaTextTimeout = "ollama.text_timeout"
	KeyOllamaImgTimeout  = "ollama.image_timeout"
	KeyOllamaRPM         = "ollama.requests_per_minute"
	KeyMaxAttempts       = "classify.max_attempts"
	KeyRetryDelay        = "classify.retry_delay"
	KeyMaxTags           = "classify.max_tags"
	KeyMinTextLength     = "ingest.min_text_length"
	KeyHashDistance      = "ingest.hash_distance"
	KeyVisionMaxEdge     = "ingest.vision_max_edge"
	KeyOrganizeEnabled   = "organize.enabled"
	KeyGenericTags       = "organize.generic_tags"
	KeyShortcutURLs      = "organize.shortcut_urls"
	KeyOCRCommand        = "ocr.command"
	KeyOCRLanguages      = "ocr.languages"
	KeyPDFCommand        = "pdf.command"
	KeyDataDir           = "data.dir"
	KeyVocabulary        = "tags.vocabulary"
)

// LoadSettings maps the config store onto domain.Settings. Keys that are
// absent keep their defaults; present keys override them even when zero.
func LoadSettings(store driven.ConfigStore) (domain.Settings, error) {
	s := domain.DefaultSettings()

	has := func(key string) bool {
		_, ok := store.Get(key)
		return ok
	}

	if has(KeyWatchRoot) {
		s.Watch.Root = expandHome(store.GetString(KeyWatchRoot))
	}
	if has(KeyWatchSettle) {
		s.Watch.Settle = store.GetDuration(KeyWatchSettle)
	}

	if has(KeyOllamaBaseURL) {
		s.Model.BaseURL = strings.TrimRight(store.GetString(KeyOllamaBaseURL), "/")
	}
	if has(KeyOllamaModel) {
		s.Model.Model = store.GetString(KeyOllamaModel)
	}
	if has(KeyOllamaTextTimeout) {
		s.Model.TextTimeout = store.GetDuration(KeyOllamaTextTimeout)
	}
	if has(KeyOllamaImgTimeout) {
		s.Model.ImageTimeout = store.GetDuration(KeyOllamaImgTimeout)
	}
	if has(KeyOllamaRPM) {
		s.Model.RequestsPerMinute = store.GetInt(KeyOllamaRPM)
	}

	if has(KeyMaxAttempts) {
		s.Classify.MaxAttempts = store.GetInt(KeyMaxAttempts)
	}
	if has(KeyRetryDelay) {
		s.Classify.RetryDelay = store.GetDuration(KeyRetryDelay)
	}
	if has(KeyMaxTags) {
		s.Classify.MaxTags = store.GetInt(KeyMaxTags)
	}

	if has(KeyMinTextLength) {
		s.Ingest.MinTextLength = store.GetInt(KeyMinTextLength)
	}
	if has(KeyHashDistance) {
		s.Ingest.HashDistance = store.GetInt(KeyHashDistance)
	}
	if has(KeyVisionMaxEdge) {
		s.Ingest.VisionMaxEdge = store.GetInt(KeyVisionMaxEdge)
	}

	if has(KeyOrganizeEnabled) {
		s.Organize.Enabled = store.GetBool(KeyOrganizeEnabled)
	}
	if has(KeyGenericTags) {
		s.Organize.GenericTags = store.GetStringSlice(KeyGenericTags)
	}
	if urls := store.GetStringMap(KeyShortcutURLs); urls != nil {
		s.Organize.ShortcutURLs = urls
	}

	if has(KeyOCRCommand) {
		s.Tools.OCRCommand = store.GetString(KeyOCRCommand)
	}
	if has(KeyOCRLanguages) {
		s.Tools.OCRLanguages = store.GetString(KeyOCRLanguages)
	}
	if has(KeyPDFCommand) {
		s.Tools.PDFCommand = store.GetString(KeyPDFCommand)
	}

	if has(KeyDataDir) {
		s.DataDir = expandHome(store.GetString(KeyDataDir))
	}
	if has(KeyVocabulary) {
		s.Vocabulary = store.GetStringSlice(KeyVocabulary)
	}

	if err := s.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
