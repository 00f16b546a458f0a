package domain

import (
	"strings"
)

// Tag is a category label from the closed vocabulary.
type Tag string

// Uncategorized is the sentinel tag used when no vocabulary label applies.
// It keeps tag lists non-empty for routing and storage.
const Uncategorized Tag = "UNCATEGORIZED"

// String returns the string representation.
func (t Tag) String() string {
	return string(t)
}

// DefaultLabels is the built-in category vocabulary.
var DefaultLabels = []string{
	"architecture", "spatial_design", "interior", "residential", "commercial",
	"public_building", "exhibition_space", "facade", "drawing", "floor_plan",
	"perspective", "aerial_view", "architectural_model", "model", "architect",
	"furniture", "chair", "sofa", "table", "desk", "storage", "shelf", "lighting",
	"bed", "props", "object", "hardware", "fittings", "woodwork", "metalwork",
	"furniture_making", "design", "visual_design", "motion_design", "product_design",
	"typography", "branding", "logo", "ux", "ui", "packaging", "fashion",
	"photography", "portrait", "studio", "film", "video", "music", "exhibition",
	"artwork", "expression", "book", "magazine", "interview", "essay", "review",
	"critique", "editorial", "column", "planning", "strategy", "announcement",
	"advice", "work", "grid", "color", "diagram", "texture", "type_layout",
	"minimalism", "food", "plating", "ai", "mixed",
}

// Vocabulary is the closed set of permissible tags.
type Vocabulary struct {
	labels []Tag
	index  map[string]Tag
}

// NewVocabulary builds a vocabulary from labels. Labels are normalised
// to lower snake case; duplicates and blanks are dropped.
func NewVocabulary(labels []string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]Tag, len(labels))}
	for _, l := range labels {
		key := normaliseToken(l)
		if key == "" {
			continue
		}
		if _, ok := v.index[key]; ok {
			continue
		}
		tag := Tag(key)
		v.labels = append(v.labels, tag)
		v.index[key] = tag
	}
	return v
}

// DefaultVocabulary returns a vocabulary built from DefaultLabels.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(DefaultLabels)
}

// Labels returns the vocabulary in declaration order.
func (v *Vocabulary) Labels() []Tag {
	out := make([]Tag, len(v.labels))
	copy(out, v.labels)
	return out
}

// Len returns the number of labels.
func (v *Vocabulary) Len() int {
	return len(v.labels)
}

// Lookup resolves a free-form token to a vocabulary tag.
// Case, surrounding punctuation and space/hyphen separators are ignored.
func (v *Vocabulary) Lookup(token string) (Tag, bool) {
	tag, ok := v.index[normaliseToken(token)]
	return tag, ok
}

// Contains reports whether tag is part of the vocabulary or is the sentinel.
func (v *Vocabulary) Contains(tag Tag) bool {
	if tag == Uncategorized {
		return true
	}
	_, ok := v.index[string(tag)]
	return ok
}

// ParseList splits a comma separated list and keeps only vocabulary tags,
// in order of first appearance. max <= 0 means unlimited.
func (v *Vocabulary) ParseList(list string, max int) []Tag {
	var tags []Tag
	seen := make(map[Tag]struct{})
	for _, token := range strings.FieldsFunc(list, isListSeparator) {
		tag, ok := v.Lookup(token)
		if !ok {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if max > 0 && len(tags) == max {
			break
		}
	}
	return tags
}

// Validate resolves every token and fails on the first unknown one.
func (v *Vocabulary) Validate(tokens []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(tokens))
	seen := make(map[Tag]struct{}, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}
		tag, ok := v.Lookup(token)
		if !ok {
			if normaliseToken(token) != strings.ToLower(string(Uncategorized)) {
				return nil, &TagError{Token: token}
			}
			tag = Uncategorized
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

// TagError reports a token rejected by the vocabulary.
type TagError struct {
	Token string
}

func (e *TagError) Error() string {
	return "tag " + `"` + e.Token + `"` + " not in vocabulary"
}

// Unwrap lets errors.Is match ErrInvalidTag.
func (e *TagError) Unwrap() error {
	return ErrInvalidTag
}

// WithFallback returns tags, or the sentinel when tags is empty.
func WithFallback(tags []Tag) []Tag {
	if len(tags) == 0 {
		return []Tag{Uncategorized}
	}
	return tags
}

// IsDegenerate reports whether tags carries no real category:
// empty, or only the sentinel.
func IsDegenerate(tags []Tag) bool {
	for _, t := range tags {
		if t != Uncategorized {
			return false
		}
	}
	return true
}

// JoinTags renders tags as "a, b, c".
func JoinTags(tags []Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// SplitTags parses a stored "a, b, c" list without vocabulary checks.
func SplitTags(s string) []Tag {
	var tags []Tag
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			tags = append(tags, Tag(p))
		}
	}
	return tags
}

func isListSeparator(r rune) bool {
	return r == ',' || r == '\n' || r == ';'
}

func normaliseToken(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.Trim(s, " \t\"'`*#.[](){}:-")
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	}), "_")
	return s
}
