package domain

import (
	"path/filepath"
	"strconv"
	"strings"
)

// PostRef identifies the post group a file belongs to. It is parsed once
// from the file name <prefix>_<postId>_<timestamp>[_<slide>].<ext> and
// threaded through the pipeline. The timestamp may be <date>_<time>.
type PostRef struct {
	// Prefix names the harvesting source (e.g. "ig").
	Prefix string

	// PostID is the external origin identifier. Empty when the name is malformed.
	PostID string

	// Slide is the carousel index; zero when HasSlide is false.
	Slide int

	// HasSlide is true when the name carried an explicit slide index.
	HasSlide bool
}

// ParsePostRef extracts a PostRef from a path. A missing or malformed
// post identifier yields a PostRef for which Valid returns false.
func ParsePostRef(path string) PostRef {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return PostRef{}
	}

	ref := PostRef{Prefix: parts[0]}
	if ref.Prefix == "" || !validPostID(parts[1]) {
		return PostRef{}
	}
	ref.PostID = parts[1]

	if len(parts) >= 4 {
		if n, ok := slideIndex(parts[len(parts)-1]); ok {
			ref.Slide = n
			ref.HasSlide = true
		}
	}
	return ref
}

// maxSlideDigits bounds the slide segment so the time half of a
// <date>_<time> timestamp (e.g. 20240101_120000) is not read as a slide.
const maxSlideDigits = 3

func slideIndex(s string) (int, bool) {
	if s == "" || len(s) > maxSlideDigits {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Valid reports whether the reference carries a usable post identifier.
func (p PostRef) Valid() bool {
	return p.PostID != ""
}

// IsFollowerSlide reports whether this file is slide 1..N of a carousel.
func (p PostRef) IsFollowerSlide() bool {
	return p.Valid() && p.HasSlide && p.Slide > 0
}

// Key returns the cache key for the post group.
func (p PostRef) Key() string {
	if !p.Valid() {
		return ""
	}
	return p.Prefix + "_" + p.PostID
}

func validPostID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}
	return true
}

// PostContext is the carousel cache entry for one post group.
type PostContext struct {
	// Tags is the tag set of the first classified slide.
	Tags []Tag

	// Description is the vision description of the first classified slide.
	Description string

	// Text is the filtered caption text of the post, if one was ingested.
	Text string
}

// HasTags reports whether the context holds a non-degenerate tag set.
func (c PostContext) HasTags() bool {
	return !IsDegenerate(c.Tags)
}
