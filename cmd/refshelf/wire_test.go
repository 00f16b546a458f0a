package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))
}

func TestBootstrap_WiresServices(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "inbox")
	writeConfig(t, dir, `
[watch]
root = "`+root+`"
settle = "250ms"

[ollama]
base_url = "http://127.0.0.1:1"

[tags]
vocabulary = ["chair", "sofa"]
`)

	svc, closeFn, err := bootstrap(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	defer func() { assert.NoError(t, closeFn()) }()

	assert.NotNil(t, svc.Ingestor)
	assert.NotNil(t, svc.Catalog)
	assert.NotNil(t, svc.Relink)
	assert.Equal(t, root, svc.WatchRoot)
	assert.Equal(t, "250ms", svc.WatchSettle.String())
	assert.Equal(t, filepath.Join(dir, "logs", "watch.log"), svc.LogFile)
	assert.Equal(t, []domain.Tag{"chair", "sofa"}, svc.Catalog.Vocabulary())

	assert.FileExists(t, filepath.Join(dir, "data", "refshelf.db"))
	assert.FileExists(t, filepath.Join(dir, "prompts", "classify_text.txt"))
}

func TestBootstrap_EmptyStoreIsSearchable(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[ollama]\nbase_url = \"http://127.0.0.1:1\"\n")

	svc, closeFn, err := bootstrap(context.Background(), dir)
	require.NoError(t, err)
	defer closeFn()

	hits, err := svc.Catalog.Search(context.Background(), "chair", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[classify]\nmax_attempts = 0\n")

	_, _, err := bootstrap(context.Background(), dir)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBootstrap_MalformedConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "this is = = not toml")

	_, _, err := bootstrap(context.Background(), dir)

	assert.Error(t, err)
}
