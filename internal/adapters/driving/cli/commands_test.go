package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

func sampleHit() domain.SearchHit {
	return domain.SearchHit{
		Record: domain.ContentRecord{
			ID:   "/shelf/chair/ig_C1_20240101_0.jpg",
			Kind: domain.KindImage,
			Tags: []domain.Tag{"furniture", "chair"},
		},
		Score:      0.75,
		SharedTags: []domain.Tag{"chair"},
	}
}

func TestRootCmd_BootstrapsOnce(t *testing.T) {
	calls := 0
	restore := withBootstrap(func() { calls++ })
	defer restore()

	_, err := execute(t, "tags")
	require.NoError(t, err)
	_, err = execute(t, "tags")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestRootCmd_BootstrapError(t *testing.T) {
	restore := setupServices(nil, nil, nil)
	defer restore()
	bootstrap = func(_ context.Context, _ string) (*Services, func() error, error) {
		return nil, nil, errors.New("open store: locked")
	}

	_, err := execute(t, "tags")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "startup: open store: locked")
}

func TestRootCmd_PassesConfigDir(t *testing.T) {
	restore := setupServices(nil, nil, nil)
	defer restore()
	var got string
	bootstrap = func(_ context.Context, dir string) (*Services, func() error, error) {
		got = dir
		return &Services{Catalog: &mockCatalogService{}}, nil, nil
	}

	_, err := execute(t, "--config-dir", "/tmp/shelfcfg", "tags")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/shelfcfg", got)
}

func TestSetServices(t *testing.T) {
	restore := setupServices(nil, nil, nil)
	defer restore()

	SetServices(&Services{
		Catalog:     &mockCatalogService{},
		WatchRoot:   "/inbox",
		WatchSettle: 0,
	})

	assert.NotNil(t, catalogService)
	assert.Equal(t, "/inbox", watchRoot)
	assert.Positive(t, int64(watchSettle))

	SetServices(nil)
	assert.NotNil(t, catalogService)
}

func TestCommands_RequireServices(t *testing.T) {
	restore := setupServices(nil, nil, nil)
	defer restore()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"search", "chair"}, "catalog service not configured"},
		{[]string{"network", "/a.jpg"}, "catalog service not configured"},
		{[]string{"list"}, "catalog service not configured"},
		{[]string{"tags"}, "catalog service not configured"},
		{[]string{"tags", "set", "/a.jpg", "chair"}, "catalog service not configured"},
		{[]string{"scan", "/inbox"}, "ingest service not configured"},
		{[]string{"watch", "/inbox"}, "ingest service not configured"},
		{[]string{"relink"}, "relink service not configured"},
		{[]string{"mcp", "serve"}, "catalog service is required"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSearchCmd(t *testing.T) {
	t.Run("prints results", func(t *testing.T) {
		cat := &mockCatalogService{hits: []domain.SearchHit{sampleHit()}}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "search", "wooden", "chair", "-n", "3")

		require.NoError(t, err)
		assert.Equal(t, "wooden chair", cat.lastQuery)
		assert.Equal(t, 3, cat.lastN)
		assert.Contains(t, out, "[1] /shelf/chair/ig_C1_20240101_0.jpg (0.75)")
		assert.Contains(t, out, "Tags: furniture, chair")
	})

	t.Run("default limit", func(t *testing.T) {
		cat := &mockCatalogService{}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "search", "chair")

		require.NoError(t, err)
		assert.Equal(t, 10, cat.lastN)
		assert.Contains(t, out, "No results found.")
	})

	t.Run("json", func(t *testing.T) {
		cat := &mockCatalogService{hits: []domain.SearchHit{sampleHit()}}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "search", "chair", "--json")

		require.NoError(t, err)
		var views []map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &views))
		require.Len(t, views, 1)
		assert.Equal(t, "/shelf/chair/ig_C1_20240101_0.jpg", views[0]["id"])
		assert.Equal(t, 0.75, views[0]["score"])
	})

	t.Run("failure", func(t *testing.T) {
		cat := &mockCatalogService{err: domain.ErrInvalidInput}
		defer setupServices(nil, cat, nil)()

		_, err := execute(t, "search", "chair")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("requires query", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{}, nil)()

		_, err := execute(t, "search")

		assert.Error(t, err)
	})
}

func TestNetworkCmd(t *testing.T) {
	t.Run("prints shared tags", func(t *testing.T) {
		cat := &mockCatalogService{hits: []domain.SearchHit{sampleHit()}}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "network", "/shelf/chair/other.jpg")

		require.NoError(t, err)
		assert.Equal(t, "/shelf/chair/other.jpg", cat.lastID)
		assert.Contains(t, out, "Related to /shelf/chair/other.jpg")
		assert.Contains(t, out, "Shared: chair")
	})

	t.Run("no neighbours", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{}, nil)()

		out, err := execute(t, "network", "/a.jpg")

		require.NoError(t, err)
		assert.Contains(t, out, "No related references for /a.jpg.")
	})

	t.Run("missing record", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{err: domain.ErrNotFound}, nil)()

		_, err := execute(t, "network", "/nope.jpg")

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestListCmd(t *testing.T) {
	t.Run("filters", func(t *testing.T) {
		cat := &mockCatalogService{records: []domain.ContentRecord{sampleHit().Record}}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "list", "--kind", "image", "--tag", "chair", "-n", "5", "--offset", "10")

		require.NoError(t, err)
		assert.Equal(t, domain.ListFilter{Kind: domain.KindImage, Tag: "chair", Limit: 5, Offset: 10}, cat.lastFilter)
		assert.Contains(t, out, "/shelf/chair/ig_C1_20240101_0.jpg")
		assert.Contains(t, out, "furniture, chair")
	})

	t.Run("unknown kind", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{}, nil)()

		_, err := execute(t, "list", "--kind", "video")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{}, nil)()

		out, err := execute(t, "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No records found.")
	})

	t.Run("json", func(t *testing.T) {
		cat := &mockCatalogService{records: []domain.ContentRecord{sampleHit().Record}}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "list", "--json")

		require.NoError(t, err)
		var views []recordView
		require.NoError(t, json.Unmarshal([]byte(out), &views))
		require.Len(t, views, 1)
		assert.Equal(t, []string{"furniture", "chair"}, views[0].Tags)
	})
}

func TestTagsCmd(t *testing.T) {
	t.Run("lists vocabulary", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{vocab: []domain.Tag{"chair", "sofa"}}, nil)()

		out, err := execute(t, "tags")

		require.NoError(t, err)
		assert.Equal(t, "chair\nsofa\n", out)
	})

	t.Run("set splits commas", func(t *testing.T) {
		rec := domain.ContentRecord{ID: "/a.jpg", Tags: []domain.Tag{"furniture", "chair", "sofa"}}
		cat := &mockCatalogService{record: &rec}
		defer setupServices(nil, cat, nil)()

		out, err := execute(t, "tags", "set", "/a.jpg", "chair, sofa", "furniture")

		require.NoError(t, err)
		assert.Equal(t, "/a.jpg", cat.lastID)
		assert.Equal(t, []string{"chair", "sofa", "furniture"}, cat.lastTokens)
		assert.Contains(t, out, "Updated /a.jpg")
		assert.Contains(t, out, "Tags: furniture, chair, sofa")
	})

	t.Run("set rejects unknown tag", func(t *testing.T) {
		defer setupServices(nil, &mockCatalogService{err: &domain.TagError{Token: "spaceship"}}, nil)()

		_, err := execute(t, "tags", "set", "/a.jpg", "spaceship")

		assert.ErrorIs(t, err, domain.ErrInvalidTag)
	})
}

func TestRelinkCmd(t *testing.T) {
	t.Run("uses watch root by default", func(t *testing.T) {
		rel := &mockRelinkService{result: domain.RelinkResult{AlreadyCorrect: 4, Updated: 2, Missing: 1}}
		defer setupServices(nil, nil, rel)()
		watchRoot = "/inbox"

		out, err := execute(t, "relink")

		require.NoError(t, err)
		assert.Equal(t, "/inbox", rel.lastRoot)
		assert.Contains(t, out, "Already correct: 4")
		assert.Contains(t, out, "Updated:         2")
		assert.Contains(t, out, "Missing:         1")
	})

	t.Run("explicit root", func(t *testing.T) {
		rel := &mockRelinkService{}
		defer setupServices(nil, nil, rel)()

		_, err := execute(t, "relink", "/elsewhere")

		require.NoError(t, err)
		assert.Equal(t, "/elsewhere", rel.lastRoot)
	})
}

func TestScanCmd(t *testing.T) {
	t.Run("prints summary", func(t *testing.T) {
		ing := &mockIngestor{scan: domain.ScanResult{PDFs: 1, Images: 2, Texts: 3, Duplicates: 1, Skipped: 2, Failed: 1}}
		defer setupServices(ing, nil, nil)()

		out, err := execute(t, "scan", "/inbox")

		require.NoError(t, err)
		assert.Equal(t, "/inbox", ing.scanRoot)
		assert.Contains(t, out, "Scan complete: /inbox")
		assert.Contains(t, out, "Images:     2")
		assert.Contains(t, out, "Duplicates: 1")
	})

	t.Run("json", func(t *testing.T) {
		ing := &mockIngestor{scan: domain.ScanResult{PDFs: 1, Texts: 2}}
		defer setupServices(ing, nil, nil)()
		watchRoot = "/default"

		out, err := execute(t, "scan", "--json")

		require.NoError(t, err)
		var view scanView
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		assert.Equal(t, "/default", view.Root)
		assert.Equal(t, 3, view.Stored)
		assert.Len(t, view.Session, 36)
	})

	t.Run("walk failure", func(t *testing.T) {
		defer setupServices(&mockIngestor{scanErr: errors.New("permission denied")}, nil, nil)()

		_, err := execute(t, "scan", "/root-only")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "scan failed: permission denied")
	})
}
