package screenshot_test

import (
	"context"
	"os"
	"path/filepath"
	"phishvault/pkg/screenshot"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	store, err := screenshot.NewFileStore(dir, "/screenshots/")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/screenshots/"))
	require.True(t, strings.HasSuffix(ref, ".png"))

	b, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/screenshots/")))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(b))

	// no temporary files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileStore_UniqueNames(t *testing.T) {
	store, err := screenshot.NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	a, err := store.Save(context.Background(), []byte("a"))
	require.NoError(t, err)
	b, err := store.Save(context.Background(), []byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.False(t, strings.Contains(a, "/"))
}

func TestFileStore_PrefixWithoutSlash(t *testing.T) {
	store, err := screenshot.NewFileStore(t.TempDir(), "/static/shots")
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), []byte("a"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/static/shots/"))
}

func TestFileStore_CanceledContext(t *testing.T) {
	store, err := screenshot.NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Save(ctx, []byte("a"))
	require.ErrorIs(t, err, context.Canceled)
}
