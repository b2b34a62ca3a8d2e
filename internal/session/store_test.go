package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, TokenKey, "first"))
	v, err := s.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	require.NoError(t, s.Set(ctx, TokenKey, "second"))
	v, err = s.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "second", v)

	require.NoError(t, s.Delete(ctx, TokenKey))
	_, err = s.Get(ctx, TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, s.Delete(ctx, TokenKey))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestSQLiteStore_Durable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, TokenKey, "persisted"))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "persisted", v)
}
