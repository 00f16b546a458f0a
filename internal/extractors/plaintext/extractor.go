// Package plaintext reads caption and note files and strips social-media noise.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Filter thresholds.
const (
	// maxHashtags is the hashtag count a line may carry before the ratio check applies.
	maxHashtags = 3

	// chromeMaxRunes bounds the length of UI chrome lines such as "View all 12 comments".
	chromeMaxRunes = 15
)

var mentionPattern = regexp.MustCompile(`@[a-zA-Z0-9_.]+`)

// Extractor reads UTF-8 text and applies Clean.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract reads the file and returns its filtered text.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	return Clean(strings.ToValidUTF8(string(data), "")), nil
}

// Clean drops hashtag walls and short UI chrome lines, strips @mentions,
// and removes blank lines. Surviving lines are trimmed and joined by "\n".
func Clean(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		hashtags := 0
		for _, w := range words {
			if strings.HasPrefix(w, "#") {
				hashtags++
			}
		}
		if hashtags > maxHashtags && hashtags*2 > len(words) {
			continue
		}

		cleaned := strings.TrimSpace(mentionPattern.ReplaceAllString(line, ""))
		if cleaned == "" || isChrome(cleaned) {
			continue
		}
		kept = append(kept, cleaned)
	}
	return strings.Join(kept, "\n")
}

// isChrome matches short lines mentioning "view", e.g. "View replies".
func isChrome(line string) bool {
	return utf8.RuneCountInString(line) < chromeMaxRunes &&
		strings.Contains(strings.ToLower(line), "view")
}
