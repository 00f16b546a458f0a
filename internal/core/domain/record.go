package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind identifies the extraction strategy for a file.
type Kind string

// Supported kinds.
const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// KindFromPath maps a file extension onto a Kind.
// The second return value is false for unsupported files.
func KindFromPath(path string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF, true
	case ".jpg", ".jpeg", ".png":
		return KindImage, true
	case ".txt":
		return KindText, true
	default:
		return "", false
	}
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Metadata describes the file backing a ContentRecord.
type Metadata struct {
	// SizeBytes is the file size at ingestion time.
	SizeBytes int64 `json:"size_bytes"`

	// ModifiedTime is the file mtime at ingestion time.
	ModifiedTime time.Time `json:"modified_time"`

	// Kind mirrors ContentRecord.Kind for store-side filtering.
	Kind Kind `json:"kind"`

	// Width and Height are set for images only.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// PostID is the carousel group the file belongs to, if any.
	PostID string `json:"post_id,omitempty"`

	// SourceURL points at the canonical remote post, if known.
	SourceURL string `json:"source_url,omitempty"`
}

// ContentRecord is the unit persisted to the record store.
type ContentRecord struct {
	// ID is the canonical file path after reorganisation.
	ID string

	// Kind is the extraction kind.
	Kind Kind

	// RawText is the OCR, extracted or read text.
	RawText string

	// VisionDescription is the classifier's image description.
	VisionDescription string

	// Tags is ordered, vocabulary-constrained and never empty.
	Tags []Tag

	// Metadata describes the backing file.
	Metadata Metadata

	// CreatedAt is when the record was first persisted.
	CreatedAt time.Time

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// Content returns the searchable text body without the tag header.
func (r *ContentRecord) Content() string {
	if r.Kind != KindImage {
		return r.RawText
	}
	return strings.TrimSpace("Vision Description:\n" + r.VisionDescription + "\n\nOCR Text:\n" + r.RawText)
}

// Body returns the document text handed to the store: a tag header
// followed by the content.
func (r *ContentRecord) Body() string {
	return ComposeBody(r.Tags, r.Content())
}

const (
	tagHeaderPrefix = "Tags: "
	contentMarker   = "\nContent: "
)

// ComposeBody builds "Tags: a, b\nContent: text".
func ComposeBody(tags []Tag, content string) string {
	return tagHeaderPrefix + JoinTags(tags) + contentMarker + content
}

// RewriteTagHeader replaces the tag header of a body produced by ComposeBody.
// Bodies without a content marker get a header prepended.
func RewriteTagHeader(body string, tags []Tag) string {
	if idx := strings.Index(body, contentMarker); idx >= 0 {
		return ComposeBody(tags, body[idx+len(contentMarker):])
	}
	return tagHeaderPrefix + JoinTags(tags) + "\n" + body
}
