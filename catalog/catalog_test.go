package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *SQLite {
	t.Helper()
	c, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalogPutGet(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	m := Model{
		ID:      42,
		Name:    "bracket.stl",
		Format:  "stl",
		BlobKey: "models/42.stl",
		Vector:  []float32{0.1, 0.2, 0.3, 0.4},
	}
	require.NoError(t, c.Put(ctx, m))

	got, err := c.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.Format, got.Format)
	assert.Equal(t, m.BlobKey, got.BlobKey)
	assert.Equal(t, m.Vector, got.Vector)
	assert.False(t, got.CreatedAt.IsZero())

	t.Run("duplicate id rejected", func(t *testing.T) {
		assert.Error(t, c.Put(ctx, m))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := c.Get(ctx, 7)
		assert.ErrorIs(t, err, ErrModelNotFound)
	})
}

func TestCatalogDelete(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	require.NoError(t, c.Put(ctx, Model{ID: 1, Name: "a", Format: "obj", BlobKey: "k", Vector: []float32{1}}))
	require.NoError(t, c.Delete(ctx, 1))

	_, err := c.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.ErrorIs(t, c.Delete(ctx, 1), ErrModelNotFound)
}

func TestCatalogSnapshot(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	for id := int64(1); id <= 3; id++ {
		err := c.Put(ctx, Model{
			ID:      id,
			Name:    "m",
			Format:  "obj",
			BlobKey: "k",
			Vector:  []float32{float32(id), 0},
		})
		require.NoError(t, err)
	}

	entries, err := c.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.ID)
		assert.Equal(t, []float32{float32(i + 1), 0}, e.Vector)
	}

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCatalogReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, Model{ID: 9, Name: "n", Format: "ply", BlobKey: "k", Vector: []float32{1, 2}}))
	require.NoError(t, c.Close())

	c, err = OpenSQLite(path)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.Vector)
}

func TestVectorCodec(t *testing.T) {
	_, err := encodeVector(nil)
	assert.Error(t, err)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
