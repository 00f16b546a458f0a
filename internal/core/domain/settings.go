package domain

import (
	"fmt"
	"time"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	Watch    WatchSettings
	Model    ModelSettings
	Classify ClassifySettings
	Ingest   IngestSettings
	Organize OrganizeSettings
	Tools    ToolSettings

	// DataDir holds the SQLite database.
	DataDir string

	// Vocabulary overrides DefaultLabels when non-empty.
	Vocabulary []string
}

// WatchSettings configures the directory watcher.
type WatchSettings struct {
	// Root is the watched directory tree.
	Root string

	// Settle is how long a file must be quiet before it is enqueued.
	Settle time.Duration
}

// ModelSettings configures the classification service.
type ModelSettings struct {
	BaseURL           string
	Model             string
	TextTimeout       time.Duration
	ImageTimeout      time.Duration
	RequestsPerMinute int
}

// ClassifySettings configures prompting and retries.
type ClassifySettings struct {
	// MaxAttempts is the total number of calls per classification, including the first.
	MaxAttempts int

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration

	// MaxTags caps the number of labels taken from one response.
	MaxTags int

	// TextPrompt and ImagePrompt open the classification prompts.
	// The vocabulary constraint is always appended after them.
	TextPrompt  string
	ImagePrompt string
}

// IngestSettings configures per-file processing.
type IngestSettings struct {
	// MinTextLength is the minimum filtered rune count for text records.
	MinTextLength int

	// HashDistance is the Hamming distance under which two image hashes collide.
	HashDistance int

	// VisionMaxEdge bounds the longest image edge sent to the classifier.
	VisionMaxEdge int
}

// OrganizeSettings configures the file reorganiser.
type OrganizeSettings struct {
	Enabled bool

	// GenericTags are skipped when choosing the primary tag.
	GenericTags []string

	// ShortcutURLs maps a file name prefix to a URL template taking the post id.
	ShortcutURLs map[string]string
}

// ToolSettings names the external extraction binaries.
type ToolSettings struct {
	OCRCommand   string
	OCRLanguages string
	PDFCommand   string
}

// Default values.
const (
	DefaultWatchRoot         = "./watched_files"
	DefaultSettle            = 500 * time.Millisecond
	DefaultModelURL          = "http://localhost:11434"
	DefaultModel             = "llava"
	DefaultTextTimeout       = 60 * time.Second
	DefaultImageTimeout      = 120 * time.Second
	DefaultMaxAttempts       = 2
	DefaultRetryDelay        = 2 * time.Second
	DefaultMaxTags           = 5
	DefaultMinTextLength     = 30
	DefaultVisionMaxEdge     = 1024
	DefaultOCRCommand        = "tesseract"
	DefaultOCRLanguages      = "kor+eng"
	DefaultPDFCommand        = "pdftotext"
	DefaultInstagramShortcut = "https://www.instagram.com/p/%s/"
)

// Default prompt openings.
const (
	DefaultTextPrompt  = "Analyze the following text."
	DefaultImagePrompt = "Analyze this image and describe what you see in detail, within 3-4 sentences."
)

// DefaultGenericTags are wrapper labels that never become a primary tag.
var DefaultGenericTags = []string{"design", "mixed", "work", "expression"}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	return Settings{
		Watch: WatchSettings{
			Root:   DefaultWatchRoot,
			Settle: DefaultSettle,
		},
		Model: ModelSettings{
			BaseURL:      DefaultModelURL,
			Model:        DefaultModel,
			TextTimeout:  DefaultTextTimeout,
			ImageTimeout: DefaultImageTimeout,
		},
		Classify: ClassifySettings{
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetryDelay,
			MaxTags:     DefaultMaxTags,
			TextPrompt:  DefaultTextPrompt,
			ImagePrompt: DefaultImagePrompt,
		},
		Ingest: IngestSettings{
			MinTextLength: DefaultMinTextLength,
			VisionMaxEdge: DefaultVisionMaxEdge,
		},
		Organize: OrganizeSettings{
			Enabled:      true,
			GenericTags:  append([]string(nil), DefaultGenericTags...),
			ShortcutURLs: map[string]string{"ig": DefaultInstagramShortcut},
		},
		Tools: ToolSettings{
			OCRCommand:   DefaultOCRCommand,
			OCRLanguages: DefaultOCRLanguages,
			PDFCommand:   DefaultPDFCommand,
		},
	}
}

// Validate checks invariants that defaults cannot repair.
func (s Settings) Validate() error {
	if s.Classify.MaxAttempts < 1 {
		return fmt.Errorf("%w: classify.max_attempts must be >= 1", ErrInvalidInput)
	}
	if s.Classify.MaxTags < 1 {
		return fmt.Errorf("%w: classify.max_tags must be >= 1", ErrInvalidInput)
	}
	if s.Ingest.HashDistance < 0 {
		return fmt.Errorf("%w: ingest.hash_distance must be >= 0", ErrInvalidInput)
	}
	if s.Watch.Root == "" {
		return fmt.Errorf("%w: watch.root is required", ErrInvalidInput)
	}
	return nil
}

// VocabularyOrDefault builds the configured vocabulary.
func (s Settings) VocabularyOrDefault() *Vocabulary {
	if len(s.Vocabulary) == 0 {
		return DefaultVocabulary()
	}
	return NewVocabulary(s.Vocabulary)
}
