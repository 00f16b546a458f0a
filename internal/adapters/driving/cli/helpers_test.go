package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// mockIngestor implements driving.Ingestor.
type mockIngestor struct {
	mu        sync.Mutex
	processed []string
	roots     []string
	scan      domain.ScanResult
	scanErr   error
	scanRoot  string
}

func (m *mockIngestor) Process(_ context.Context, root, path string) domain.ProcessResult {
	m.mu.Lock()
	m.processed = append(m.processed, path)
	m.roots = append(m.roots, root)
	m.mu.Unlock()
	kind, _ := domain.KindFromPath(path)
	return domain.ProcessResult{Path: path, FinalPath: path, Kind: kind, Status: domain.StatusStored}
}

func (m *mockIngestor) Scan(_ context.Context, root string) (domain.ScanResult, error) {
	m.scanRoot = root
	return m.scan, m.scanErr
}

// mockCatalogService implements driving.CatalogService.
type mockCatalogService struct {
	hits    []domain.SearchHit
	records []domain.ContentRecord
	record  *domain.ContentRecord
	vocab   []domain.Tag
	err     error

	lastQuery  string
	lastID     string
	lastN      int
	lastTokens []string
	lastFilter domain.ListFilter
}

func (m *mockCatalogService) Search(_ context.Context, query string, n int) ([]domain.SearchHit, error) {
	m.lastQuery, m.lastN = query, n
	return m.hits, m.err
}

func (m *mockCatalogService) Network(_ context.Context, id string, n int) ([]domain.SearchHit, error) {
	m.lastID, m.lastN = id, n
	return m.hits, m.err
}

func (m *mockCatalogService) Get(_ context.Context, id string) (*domain.ContentRecord, error) {
	m.lastID = id
	return m.record, m.err
}

func (m *mockCatalogService) List(_ context.Context, filter domain.ListFilter) ([]domain.ContentRecord, error) {
	m.lastFilter = filter
	return m.records, m.err
}

func (m *mockCatalogService) UpdateTags(_ context.Context, id string, tokens []string) (*domain.ContentRecord, error) {
	m.lastID, m.lastTokens = id, tokens
	return m.record, m.err
}

func (m *mockCatalogService) Vocabulary() []domain.Tag {
	return m.vocab
}

// mockRelinkService implements driving.RelinkService.
type mockRelinkService struct {
	result   domain.RelinkResult
	err      error
	lastRoot string
}

func (m *mockRelinkService) Relink(_ context.Context, root string) (domain.RelinkResult, error) {
	m.lastRoot = root
	return m.result, m.err
}

// setupServices swaps the package services for mocks.
func setupServices(ing *mockIngestor, cat *mockCatalogService, rel *mockRelinkService) func() {
	oldIngestor, oldCatalog, oldRelink := ingestor, catalogService, relinkService
	oldRoot, oldSettle, oldBootstrap := watchRoot, watchSettle, bootstrap

	ingestor, catalogService, relinkService = nil, nil, nil
	if ing != nil {
		ingestor = ing
	}
	if cat != nil {
		catalogService = cat
	}
	if rel != nil {
		relinkService = rel
	}
	bootstrap = nil

	return func() {
		ingestor, catalogService, relinkService = oldIngestor, oldCatalog, oldRelink
		watchRoot, watchSettle, bootstrap = oldRoot, oldSettle, oldBootstrap
	}
}

// withBootstrap installs a bootstrap that reports its call and yields mocks.
func withBootstrap(onCall func()) func() {
	restore := setupServices(nil, nil, nil)
	bootstrap = func(_ context.Context, _ string) (*Services, func() error, error) {
		onCall()
		return &Services{
			Ingestor: &mockIngestor{},
			Catalog:  &mockCatalogService{},
			Relink:   &mockRelinkService{},
		}, func() error { return nil }, nil
	}
	return restore
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores flag defaults so earlier runs do not leak into later ones.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
