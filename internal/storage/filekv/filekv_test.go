package filekv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_GetSet(t *testing.T) {
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "data"))
	require.NoError(t, err)

	ctx := context.Background()
	_, ok, err := s.Get(ctx, "parcels")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "parcels", []byte(`[1]`)))
	require.NoError(t, s.Set(ctx, "parcels", []byte(`[1,2]`)))

	b, ok, err := s.Get(ctx, "parcels")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[1,2]`), b)

	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_KeyIsEscaped(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "../escape", []byte(`{}`)))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	require.True(t, os.IsNotExist(err))

	b, ok, err := s.Get(context.Background(), "../escape")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{}`), b)
}

func TestStore_CanceledContext(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Set(ctx, "users", []byte(`[]`)), context.Canceled)
}

func TestNew_EmptyDir(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}
