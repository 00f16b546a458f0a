package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/refshelf/internal/core/domain"
)

func TestSideStore_Hashes(t *testing.T) {
	store := NewSideStore()
	ctx := context.Background()

	hashes, err := store.LoadHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)

	require.NoError(t, store.SaveHashes(ctx, []string{"a", "b"}))
	require.NoError(t, store.SaveHashes(ctx, []string{"a", "b", "c"}))

	hashes, err = store.LoadHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, hashes)
	assert.Equal(t, 2, store.HashSaves())
}

func TestSideStore_PostContexts(t *testing.T) {
	store := NewSideStore()
	ctx := context.Background()

	in := map[string]domain.PostContext{"ig_P1": {Tags: []domain.Tag{"chair"}, Text: "caption"}}
	require.NoError(t, store.SavePostContexts(ctx, in))

	in["ig_P2"] = domain.PostContext{}
	out, err := store.LoadPostContexts(ctx)
	require.NoError(t, err)
	assert.Len(t, out, 1, "saved map must be copied")
	assert.Equal(t, "caption", out["ig_P1"].Text)
	assert.Equal(t, 1, store.ContextSaves())
}

func TestSideStore_SaveError(t *testing.T) {
	store := NewSideStore()
	boom := errors.New("disk full")
	store.SetSaveError(boom)

	assert.ErrorIs(t, store.SaveHashes(context.Background(), []string{"a"}), boom)
	assert.ErrorIs(t, store.SavePostContexts(context.Background(), nil), boom)
}
