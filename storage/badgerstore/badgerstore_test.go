package badgerstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featuregate "github.com/closetspace/featuregate-go-client"
	"github.com/closetspace/featuregate-go-client/storage/badgerstore"
)

func openTestStore(t *testing.T) *badgerstore.Store {
	t.Helper()
	store, err := badgerstore.Open(badgerstore.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	// Given
	store := openTestStore(t)
	ctx := context.Background()

	// When
	require.NoError(t, store.Set(ctx, "flag_cache", `{"enabled":true}`))
	value, err := store.Get(ctx, "flag_cache")

	// Then
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":true}`, value)
}

func TestStoreMissingKeyReturnsNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "absent")

	assert.ErrorIs(t, err, featuregate.ErrNotFound)
}

func TestStoreRemove(t *testing.T) {
	// Given
	store := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "flag_cache", "value"))

	// When
	require.NoError(t, store.Remove(ctx, "flag_cache"))

	// Then
	_, err := store.Get(ctx, "flag_cache")
	assert.ErrorIs(t, err, featuregate.ErrNotFound)

	// Removing an absent key is not an error
	assert.NoError(t, store.Remove(ctx, "flag_cache"))
}

func TestStoreOverwrite(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "flag_cache", "first"))
	require.NoError(t, store.Set(ctx, "flag_cache", "second"))

	value, err := store.Get(ctx, "flag_cache")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}

func TestStoreHonorsCancelledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "flag_cache")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Set(ctx, "flag_cache", "value"), context.Canceled)
	assert.ErrorIs(t, store.Remove(ctx, "flag_cache"), context.Canceled)
}
