package mcp

import (
	"context"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
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

// mockIngestor is a mock implementation of driving.Ingestor.
type mockIngestor struct {
	scan     domain.ScanResult
	err      error
	lastRoot string
}

func (m *mockIngestor) Process(_ context.Context, _, path string) domain.ProcessResult {
	return domain.ProcessResult{Path: path, Status: domain.StatusSkipped}
}

func (m *mockIngestor) Scan(_ context.Context, root string) (domain.ScanResult, error) {
	m.lastRoot = root
	return m.scan, m.err
}

// mockRelinkService is a mock implementation of driving.RelinkService.
type mockRelinkService struct {
	result domain.RelinkResult
	err    error
}

func (m *mockRelinkService) Relink(_ context.Context, _ string) (domain.RelinkResult, error) {
	return m.result, m.err
}
