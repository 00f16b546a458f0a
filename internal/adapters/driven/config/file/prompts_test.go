package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/core/domain"
	"github.com/custodia-labs/refshelf/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".refshelf", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptClassifyText)
	require.NoError(t, err)

	for _, f := range []string{"classify_text.txt", "classify_image.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(dir, f))
	}
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	text, err := store.Load(driven.PromptClassifyText)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTextPrompt, text)

	image, err := store.Load(driven.PromptClassifyImage)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultImagePrompt, image)
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_text.txt"), []byte("  Custom opening.\n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	text, err := store.Load(driven.PromptClassifyText)
	require.NoError(t, err)
	assert.Equal(t, "Custom opening.", text)
}

func TestPromptStore_Load_EmptyFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_image.txt"), []byte("\n  \n"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	image, err := store.Load(driven.PromptClassifyImage)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultImagePrompt, image)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("does_not_exist")
	assert.Error(t, err)
}

func TestPromptStore_DoesNotOverwriteExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classify_text.txt")
	require.NoError(t, os.WriteFile(path, []byte("Mine."), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptClassifyImage)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Mine.", string(data))
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	first, err := store.Load(driven.PromptClassifyText)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_text.txt"), []byte("Edited."), 0600))

	cached, err := store.Load(driven.PromptClassifyText)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptClassifyText)
	require.NoError(t, err)
	assert.Equal(t, "Edited.", fresh)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptClassifyImage)
			assert.NoError(t, err)
			assert.Equal(t, domain.DefaultImagePrompt, p)
		}()
	}
	wg.Wait()
}

func TestApplyPrompts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classify_image.txt"), []byte("Look closely."), 0600))
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	var settings domain.ClassifySettings
	require.NoError(t, ApplyPrompts(store, &settings))

	assert.Equal(t, domain.DefaultTextPrompt, settings.TextPrompt)
	assert.Equal(t, "Look closely.", settings.ImagePrompt)
}
