package services

import (
	"context"
	"os"
	"testing"

	"audionav/types"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// favoritesContractTest runs the behavior every FavoritesStore must share.
func favoritesContractTest(t *testing.T, newStore func(t *testing.T) FavoritesStore) {
	ctx := context.Background()
	song := types.Entry{Path: "/storage/emulated/0/Music/b.mp3", Name: "b.mp3"}
	album := types.Entry{Path: "/storage/emulated/0/Music/A", Name: "A", IsDirectory: true}

	t.Run("empty store", func(t *testing.T) {
		store := newStore(t)

		pinned, err := store.Get(ctx, song.Path)
		require.NoError(t, err)
		assert.False(t, pinned)

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("pin and unpin", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Set(ctx, song, true))
		require.NoError(t, store.Set(ctx, album, true))

		pinned, err := store.Get(ctx, song.Path)
		require.NoError(t, err)
		assert.True(t, pinned)

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, types.Entry{Path: song.Path, Name: "b.mp3", IsPinned: true}, list[0])
		assert.Equal(t, types.Entry{Path: album.Path, Name: "A", IsDirectory: true, IsPinned: true}, list[1])

		require.NoError(t, store.Set(ctx, song, false))
		pinned, err = store.Get(ctx, song.Path)
		require.NoError(t, err)
		assert.False(t, pinned)

		list, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, album.Path, list[0].Path)
	})

	t.Run("pinning twice keeps one record", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Set(ctx, song, true))
		require.NoError(t, store.Set(ctx, song, true))

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("unpinning an unknown path is a no-op", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, song, false))

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("paths are compared cleaned", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Set(ctx, types.Entry{Path: "/storage/emulated/0/Music/A/", Name: "A", IsDirectory: true}, true))

		pinned, err := store.Get(ctx, album.Path)
		require.NoError(t, err)
		assert.True(t, pinned)
	})
}

func TestMemoryFavorites(t *testing.T) {
	favoritesContractTest(t, func(t *testing.T) FavoritesStore {
		return NewMemoryFavorites()
	})
}

func TestFileFavorites(t *testing.T) {
	favoritesContractTest(t, func(t *testing.T) FavoritesStore {
		store, err := NewFileFavorites(afero.NewMemMapFs(), "/home/user/.audionav-favorites.json")
		require.NoError(t, err)
		return store
	})
}

func TestFileFavoritesPersist(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	path := "/home/user/.config/audionav/favorites.json"

	store, err := NewFileFavorites(fs, path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, types.Entry{Path: "/storage/ABCD-1234", Name: "SD Card", IsDirectory: true}, true))

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)

	reloaded, err := NewFileFavorites(fs, path)
	require.NoError(t, err)
	pinned, err := reloaded.Get(ctx, "/storage/ABCD-1234")
	require.NoError(t, err)
	assert.True(t, pinned)

	list, err := reloaded.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Entry{{Path: "/storage/ABCD-1234", Name: "SD Card", IsDirectory: true, IsPinned: true}}, list)
}

func TestFileFavoritesRejectsCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/favorites.json", []byte("{not json"), 0o644))

	_, err := NewFileFavorites(fs, "/favorites.json")
	assert.Error(t, err)
}

func TestFileFavoritesWriteFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	base := afero.NewMemMapFs()
	store, err := NewFileFavorites(base, "/favorites.json")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, types.Entry{Path: "/a.mp3", Name: "a.mp3"}, true))

	store.fs = afero.NewReadOnlyFs(base)
	assert.Error(t, store.Set(ctx, types.Entry{Path: "/b.mp3", Name: "b.mp3"}, true))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/a.mp3", list[0].Path)
}

func TestPostgresFavorites(t *testing.T) {
	url := os.Getenv("AUDIONAV_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("AUDIONAV_TEST_DATABASE_URL not set")
	}

	favoritesContractTest(t, func(t *testing.T) FavoritesStore {
		ctx := context.Background()
		store, err := NewPostgresFavorites(ctx, url)
		require.NoError(t, err)
		_, err = store.db.ExecContext(ctx, `DELETE FROM audionav_favorites`)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}
