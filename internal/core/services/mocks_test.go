package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVision implements driven.VisionModel with scripted responses.
type mockVision struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     []driven.GenerateRequest
}

func (m *mockVision) Generate(_ context.Context, req driven.GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.calls)
	m.calls = append(m.calls, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	switch {
	case len(m.responses) == 0:
		return "", nil
	case i < len(m.responses):
		return m.responses[i], nil
	default:
		return m.responses[len(m.responses)-1], nil
	}
}

func (m *mockVision) ModelName() string { return "mock" }

func (m *mockVision) Ping(_ context.Context) error { return nil }

func (m *mockVision) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockVision) imageCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if len(c.Images) > 0 {
			n++
		}
	}
	return n
}

// mockHasher implements driven.PerceptualHasher keyed by file base name.
type mockHasher struct {
	hashes map[string]string
}

func (m *mockHasher) Hash(path string) (string, error) {
	h, ok := m.hashes[filepath.Base(path)]
	if !ok {
		return "", errors.New("image: unknown format")
	}
	return h, nil
}

// Distance counts differing characters of equal-length hashes.
func (m *mockHasher) Distance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, errors.New("length mismatch")
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d, nil
}

// mockImages implements driven.ImagePreparer.
type mockImages struct {
	mu      sync.Mutex
	encodes int
	err     error
}

func (m *mockImages) EncodeForVision(path string, _ int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encodes++
	if m.err != nil {
		return "", m.err
	}
	return "b64:" + filepath.Base(path), nil
}

func (m *mockImages) Dimensions(_ string) (int, int, error) {
	return 640, 480, nil
}

// extractorFunc adapts a function to driven.TextExtractor.
type extractorFunc func(ctx context.Context, path string) (string, error)

func (f extractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

func readFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Join(domain.ErrExtraction, err)
	}
	return string(data), nil
}

func noText(_ context.Context, _ string) (string, error) {
	return "", nil
}

// pipeline bundles an IngestService with its test doubles.
type pipeline struct {
	root    string
	svc     *IngestService
	store   *memory.RecordStore
	side    *memory.SideStore
	vision  *mockVision
	hasher  *mockHasher
	images  *mockImages
	dedup   *DedupIndex
	cache   *CarouselCache
	ocr     extractorFunc
	seedFns []func(*memory.SideStore)
}

type pipelineOption func(*pipeline)

func withHashes(hashes ...string) pipelineOption {
	return func(p *pipeline) {
		p.seedFns = append(p.seedFns, func(s *memory.SideStore) {
			_ = s.SaveHashes(context.Background(), hashes)
		})
	}
}

func withOCR(fn extractorFunc) pipelineOption {
	return func(p *pipeline) { p.ocr = fn }
}

func newPipeline(t *testing.T, vision *mockVision, opts ...pipelineOption) *pipeline {
	t.Helper()
	ctx := context.Background()

	p := &pipeline{
		root:   t.TempDir(),
		store:  memory.NewRecordStore(),
		side:   memory.NewSideStore(),
		vision: vision,
		hasher: &mockHasher{hashes: map[string]string{}},
		images: &mockImages{},
		ocr:    noText,
	}
	for _, o := range opts {
		o(p)
	}
	for _, fn := range p.seedFns {
		fn(p.side)
	}

	settings := domain.DefaultSettings()
	settings.Classify.RetryDelay = 0
	vocab := domain.DefaultVocabulary()

	var err error
	p.dedup, err = NewDedupIndex(ctx, p.side, p.hasher, 0)
	require.NoError(t, err)
	p.cache, err = NewCarouselCache(ctx, p.side)
	require.NoError(t, err)

	var model driven.VisionModel
	if vision != nil {
		model = vision
	}

	p.svc, err = NewIngestService(IngestDeps{
		Store:       p.store,
		Dedup:       p.dedup,
		Carousel:    p.cache,
		Classifier:  NewClassifier(model, vocab, domain.DefaultHierarchy(), settings.Classify, p.cache),
		Reorganizer: NewReorganizer(settings.Organize, vocab),
		Images:      p.images,
		PDF:         extractorFunc(readFile),
		OCR:         p.ocr,
		Text:        extractorFunc(readFile),
	}, settings.Ingest)
	require.NoError(t, err)
	return p
}

// write creates a file under the pipeline root and returns its path.
func (p *pipeline) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(p.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
