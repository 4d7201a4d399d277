package cursor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghlicense/models"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cursor.db")
	store, err := Open(path)
	require.NoError(t, err)
	return store, path
}

func TestLoadEmpty(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAdvanceSurvivesReopen(t *testing.T) {
	store, path := openTestStore(t)

	require.NoError(t, store.Advance(models.Cursor{NextURL: "https://api.github.com/repositories?since=2", LastRepoID: 2}))
	require.NoError(t, store.Advance(models.Cursor{NextURL: "https://api.github.com/repositories?since=4", LastRepoID: 4}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	c, ok, err := reopened.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://api.github.com/repositories?since=4", c.NextURL)
	assert.Equal(t, int64(4), c.LastRepoID)
	assert.False(t, c.UpdatedAt.IsZero())
}

func TestAdvanceRejectsRewind(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	require.NoError(t, store.Advance(models.Cursor{NextURL: "b", LastRepoID: 10}))

	err := store.Advance(models.Cursor{NextURL: "a", LastRepoID: 5})
	assert.ErrorIs(t, err, ErrCursorRewind)

	c, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "b", c.NextURL)
}

func TestOverrideRewinds(t *testing.T) {
	store, _ := openTestStore(t)
	defer store.Close()

	require.NoError(t, store.Advance(models.Cursor{NextURL: "b", LastRepoID: 10}))
	require.NoError(t, store.Override(models.Cursor{NextURL: "a", LastRepoID: 5}))

	c, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", c.NextURL)
	assert.Equal(t, int64(5), c.LastRepoID)
}
