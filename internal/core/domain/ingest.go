package domain

// ProcessStatus is the outcome of processing one file.
type ProcessStatus string

// Process outcomes.
const (
	// StatusStored means a ContentRecord was persisted.
	StatusStored ProcessStatus = "stored"

	// StatusDuplicate means the image matched the dedup index and was deleted.
	StatusDuplicate ProcessStatus = "duplicate"

	// StatusSkipped means the file was ignored (unsupported, too short, already indexed, unreadable).
	StatusSkipped ProcessStatus = "skipped"

	// StatusFailed means processing aborted with an error.
	StatusFailed ProcessStatus = "failed"
)

// ProcessResult reports what happened to one file.
type ProcessResult struct {
	// Path is the path the file was discovered at.
	Path string

	// FinalPath is where the file lives after reorganisation.
	FinalPath string

	// Kind is the detected kind, empty for unsupported files.
	Kind Kind

	// Status is the outcome.
	Status ProcessStatus

	// Tags are the persisted tags for stored records.
	Tags []Tag

	// Reason explains skipped and failed outcomes.
	Reason string
}

// Success reports whether a record was stored.
func (r ProcessResult) Success() bool {
	return r.Status == StatusStored
}

// ScanResult aggregates one directory scan.
type ScanResult struct {
	PDFs       int
	Images     int
	Texts      int
	Duplicates int
	Skipped    int
	Failed     int
}

// Add folds a single result into the aggregate.
func (s *ScanResult) Add(r ProcessResult) {
	switch r.Status {
	case StatusStored:
		switch r.Kind {
		case KindPDF:
			s.PDFs++
		case KindImage:
			s.Images++
		case KindText:
			s.Texts++
		}
	case StatusDuplicate:
		s.Duplicates++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Stored returns the number of persisted records.
func (s ScanResult) Stored() int {
	return s.PDFs + s.Images + s.Texts
}

// RelinkResult reports a path repair pass over the record store.
type RelinkResult struct {
	AlreadyCorrect int
	Updated        int
	Missing        int
}

// SearchHit is a ranked record returned by catalogue queries.
type SearchHit struct {
	Record ContentRecord

	// Score is higher for better matches.
	Score float64

	// SharedTags is set by network queries.
	SharedTags []Tag
}

// ListFilter narrows record listings.
type ListFilter struct {
	Kind   Kind
	Tag    Tag
	Limit  int
	Offset int
}
