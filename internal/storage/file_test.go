package storage

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()

	store, err := NewFileStoreFs(fs, "/data/notes")
	require.NoError(t, err)

	exists, err := afero.DirExists(fs, "/data/notes")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Read(ctx, "smartnotes")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Write(ctx, "smartnotes", []byte(`[{"id":1}]`)))
	require.NoError(t, store.Write(ctx, "smartnotes", []byte(`[{"id":2}]`)))

	value, err := store.Read(ctx, "smartnotes")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":2}]`, string(value))

	onDisk, err := afero.ReadFile(fs, "/data/notes/smartnotes.json")
	require.NoError(t, err)
	assert.Equal(t, value, onDisk)

	// no temp files left behind
	entries, err := afero.ReadDir(fs, "/data/notes")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "smartnotes.json", entries[0].Name())

	assert.NoError(t, store.Close())
}

func TestFileStore_KeyEscaping(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store, err := NewFileStoreFs(fs, "/data")
	require.NoError(t, err)

	require.NoError(t, store.Write(ctx, "../escape/me", []byte("x")))

	exists, err := afero.Exists(fs, "/data/..%2Fescape%2Fme.json")
	require.NoError(t, err)
	assert.True(t, exists)

	value, err := store.Read(ctx, "../escape/me")
	require.NoError(t, err)
	assert.Equal(t, "x", string(value))
}

func TestFileStore_WriteFailure(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))
	require.NoError(t, afero.WriteFile(base, "/data/smartnotes.json", []byte("[]"), 0o644))

	store := &FileStore{
		fs:   afero.NewReadOnlyFs(base),
		root: "/data",
	}

	err := store.Write(ctx, "smartnotes", []byte(`[{"id":1}]`))
	assert.ErrorContains(t, err, "create temp file")

	value, err := store.Read(ctx, "smartnotes")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
}

func TestNewFileStore(t *testing.T) {
	_, err := NewFileStoreFs(afero.NewMemMapFs(), "")
	assert.EqualError(t, err, "file store root dir not set")

	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Write(ctx, "smartnotes", []byte("[]")))
	value, err := store.Read(ctx, "smartnotes")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
}
