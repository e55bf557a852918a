package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RaiVaibhav/coala/internal/testutil"
)

func TestDataDir_PerBear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dir, err := DataDir("KeywordBear")
	require.NoError(t, err)
	require.Equal(t, "KeywordBear", filepath.Base(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	other, err := DataDir("LineLengthBear")
	require.NoError(t, err)
	require.NotEqual(t, dir, other)
}

func TestDownloadCachedFile_CacheHitSkipsNetwork(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	ctx, rec := testutil.NewContext()

	f, err := NewFetcher("KeywordBear")
	require.NoError(t, err)
	defer f.Close()

	// Pre-seed the cache; the URL is unreachable on purpose, so any network
	// attempt would fail the test.
	cached := filepath.Join(f.dir, "dict.txt")
	require.NoError(t, os.WriteFile(cached, []byte("words"), 0o644))

	path, err := f.DownloadCachedFile(ctx, "http://127.0.0.1:1/dict.txt", "dict.txt")
	require.NoError(t, err)
	require.Equal(t, cached, path)
	require.Empty(t, rec.Containing("Downloading file for bear."))
}
