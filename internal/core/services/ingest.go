package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
	"github.com/custodia-labs/refshelf/internal/core/ports/driving"
	"github.com/custodia-labs/refshelf/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestDeps holds the collaborators of the ingestion pipeline.
type IngestDeps struct {
	Store       driven.RecordStore
	Dedup       *DedupIndex
	Carousel    *CarouselCache
	Classifier  *Classifier
	Reorganizer *Reorganizer
	Images      driven.ImagePreparer

	PDF  driven.TextExtractor
	OCR  driven.TextExtractor
	Text driven.TextExtractor
}

// Validate checks that all required collaborators are set.
func (d IngestDeps) Validate() error {
	switch {
	case d.Store == nil:
		return errors.New("record store is required")
	case d.Dedup == nil:
		return errors.New("dedup index is required")
	case d.Carousel == nil:
		return errors.New("carousel cache is required")
	case d.Classifier == nil:
		return errors.New("classifier is required")
	case d.Reorganizer == nil:
		return errors.New("reorganizer is required")
	case d.Images == nil:
		return errors.New("image preparer is required")
	case d.PDF == nil || d.OCR == nil || d.Text == nil:
		return errors.New("pdf, ocr and text extractors are required")
	}
	return nil
}

// IngestService runs files through extraction, dedup, classification,
// reorganisation and storage. Calls are serialised so the watcher worker and
// manual scans never classify concurrently.
type IngestService struct {
	deps     IngestDeps
	settings domain.IngestSettings

	mu sync.Mutex
}

// NewIngestService creates the pipeline.
func NewIngestService(deps IngestDeps, settings domain.IngestSettings) (*IngestService, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("ingest service: %w", err)
	}
	if settings.VisionMaxEdge <= 0 {
		settings.VisionMaxEdge = domain.DefaultVisionMaxEdge
	}
	return &IngestService{deps: deps, settings: settings}, nil
}

// Process runs one file found under root through the pipeline. Category
// directories are created below root.
func (s *IngestService) Process(ctx context.Context, root, path string) domain.ProcessResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.ProcessResult{Path: path, FinalPath: path}

	kind, ok := domain.KindFromPath(path)
	if !ok {
		return skip(result, "unsupported file type")
	}
	result.Kind = kind

	info, err := os.Stat(path)
	if err != nil {
		return skip(result, fmt.Sprintf("stat: %v", err))
	}
	if info.IsDir() {
		return skip(result, "directory")
	}

	indexed, err := s.deps.Store.Exists(ctx, path)
	if err != nil {
		return fail(result, fmt.Errorf("check index: %w", err))
	}
	if indexed {
		return skip(result, "already indexed")
	}

	logger.Section("Process " + filepath.Base(path))

	switch kind {
	case domain.KindPDF:
		return s.processPDF(ctx, root, result, info)
	case domain.KindImage:
		return s.processImage(ctx, root, result, info)
	case domain.KindText:
		return s.processText(ctx, root, result, info)
	default:
		return skip(result, "unsupported file type")
	}
}

func (s *IngestService) processPDF(ctx context.Context, root string, result domain.ProcessResult, info os.FileInfo) domain.ProcessResult {
	text, err := s.deps.PDF.Extract(ctx, result.Path)
	if err != nil {
		logger.Warn("pdf %s: %v", result.Path, err)
		return skip(result, "extraction failed")
	}

	tags := []domain.Tag{domain.Uncategorized}
	if strings.TrimSpace(text) != "" {
		if tags, err = s.deps.Classifier.ClassifyText(ctx, text); err != nil {
			return fail(result, err)
		}
	}

	ref := domain.ParsePostRef(result.Path)
	return s.store(ctx, root, result, &domain.ContentRecord{
		Kind:     domain.KindPDF,
		RawText:  text,
		Tags:     tags,
		Metadata: s.metadata(info, domain.KindPDF, ref),
	}, ref, "")
}

func (s *IngestService) processText(ctx context.Context, root string, result domain.ProcessResult, info os.FileInfo) domain.ProcessResult {
	text, err := s.deps.Text.Extract(ctx, result.Path)
	if err != nil {
		logger.Warn("text %s: %v", result.Path, err)
		return skip(result, "extraction failed")
	}

	ref := domain.ParsePostRef(result.Path)
	if text != "" {
		if err := s.deps.Carousel.PutText(ctx, ref, text); err != nil {
			return fail(result, err)
		}
	}

	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < s.settings.MinTextLength {
		return skip(result, fmt.Sprintf("text too short (%d < %d)", n, s.settings.MinTextLength))
	}

	tags, err := s.deps.Classifier.ClassifyText(ctx, text)
	if err != nil {
		return fail(result, err)
	}
	return s.store(ctx, root, result, &domain.ContentRecord{
		Kind:     domain.KindText,
		RawText:  text,
		Tags:     tags,
		Metadata: s.metadata(info, domain.KindText, ref),
	}, ref, "")
}

func (s *IngestService) processImage(ctx context.Context, root string, result domain.ProcessResult, info os.FileInfo) domain.ProcessResult {
	path := result.Path

	hash, err := s.deps.Dedup.ComputeHash(path)
	if err != nil {
		logger.Warn("hash %s: %v; continuing without dedup", path, err)
		hash = ""
	} else if s.deps.Dedup.IsDuplicate(hash) {
		if err := os.Remove(path); err != nil {
			logger.Warn("remove duplicate %s: %v", path, err)
		}
		logger.Info("duplicate image removed: %s", path)
		result.Status = domain.StatusDuplicate
		result.Reason = domain.ErrDuplicate.Error()
		return result
	}

	ref := domain.ParsePostRef(path)
	meta := s.metadata(info, domain.KindImage, ref)
	if w, h, err := s.deps.Images.Dimensions(path); err == nil {
		meta.Width, meta.Height = w, h
	} else {
		logger.Debug("dimensions %s: %v", path, err)
	}

	ocrText, err := s.deps.OCR.Extract(ctx, path)
	if err != nil {
		logger.Warn("ocr %s: %v", path, err)
		ocrText = ""
	}

	related := s.relatedText(ctx, path, ref)

	description, tags, err := s.deps.Classifier.ClassifySlide(ctx, ref, func() (string, error) {
		return s.deps.Images.EncodeForVision(path, s.settings.VisionMaxEdge)
	}, ocrText, related)
	if err != nil {
		if ctx.Err() != nil {
			return fail(result, err)
		}
		logger.Warn("classify %s: %v", path, err)
	}

	return s.store(ctx, root, result, &domain.ContentRecord{
		Kind:              domain.KindImage,
		RawText:           ocrText,
		VisionDescription: description,
		Tags:              tags,
		Metadata:          meta,
	}, ref, hash)
}

// relatedText returns the cached caption for the post, falling back to a
// sibling caption file in the same directory.
func (s *IngestService) relatedText(ctx context.Context, path string, ref domain.PostRef) string {
	if !ref.Valid() {
		return ""
	}
	if pc, ok := s.deps.Carousel.Lookup(ref); ok && pc.Text != "" {
		return pc.Text
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ref.Key()+"_*.txt"))
	if err != nil {
		return ""
	}
	sort.Strings(matches)
	for _, m := range matches {
		text, err := s.deps.Text.Extract(ctx, m)
		if err != nil || text == "" {
			continue
		}
		if err := s.deps.Carousel.PutText(ctx, ref, text); err != nil {
			logger.Warn("cache caption for %s: %v", ref.Key(), err)
		}
		return text
	}
	return ""
}

// store places the file and persists its record. The dedup hash and the post
// shortcut are only written once the record is in the store; a failed add
// moves the file back so a retry starts from the original state.
func (s *IngestService) store(
	ctx context.Context,
	root string,
	result domain.ProcessResult,
	rec *domain.ContentRecord,
	ref domain.PostRef,
	hash string,
) domain.ProcessResult {
	if err := ctx.Err(); err != nil {
		return fail(result, fmt.Errorf("interrupted: %w", err))
	}

	rec.Tags = domain.WithFallback(rec.Tags)

	final := s.deps.Reorganizer.Organize(root, result.Path, rec.Tags)
	rec.ID = final

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.deps.Store.Add(ctx, rec); err != nil {
		if rerr := s.deps.Reorganizer.Revert(final, result.Path); rerr != nil {
			logger.Warn("restore %s: %v", result.Path, rerr)
			result.FinalPath = final
		}
		return fail(result, fmt.Errorf("store record: %w", err))
	}
	result.FinalPath = final

	if hash != "" {
		if err := s.deps.Dedup.Record(ctx, hash); err != nil {
			logger.Warn("record hash for %s: %v", final, err)
		}
	}
	s.deps.Reorganizer.LinkPost(filepath.Dir(final), ref)

	result.Status = domain.StatusStored
	result.Tags = rec.Tags
	logger.Info("stored %s %s tags=[%s]", rec.Kind, final, domain.JoinTags(rec.Tags))
	return result
}

func (s *IngestService) metadata(info os.FileInfo, kind domain.Kind, ref domain.PostRef) domain.Metadata {
	return domain.Metadata{
		SizeBytes:    info.Size(),
		ModifiedTime: info.ModTime(),
		Kind:         kind,
		PostID:       ref.PostID,
		SourceURL:    s.deps.Reorganizer.SourceURL(ref),
	}
}

// Scan processes every supported file under root once. Text files go
// first so captions are cached before their images are classified.
func (s *IngestService) Scan(ctx context.Context, root string) (domain.ScanResult, error) {
	var summary domain.ScanResult

	paths, err := CollectFiles(root)
	if err != nil {
		return summary, err
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Add(s.Process(ctx, root, p))
	}
	return summary, nil
}

// CollectFiles lists supported files under root in walk order, text files
// first. Hidden files and directories are skipped.
func CollectFiles(root string) ([]string, error) {
	var texts, others []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := domain.KindFromPath(path)
		if !ok {
			return nil
		}
		if kind == domain.KindText {
			texts = append(texts, path)
		} else {
			others = append(others, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return append(texts, others...), nil
}

func skip(r domain.ProcessResult, reason string) domain.ProcessResult {
	r.Status = domain.StatusSkipped
	r.Reason = reason
	logger.Debug("skip %s: %s", r.Path, reason)
	return r
}

func fail(r domain.ProcessResult, err error) domain.ProcessResult {
	r.Status = domain.StatusFailed
	r.Reason = err.Error()
	logger.Error("process %s: %v", r.Path, err)
	return r
}
