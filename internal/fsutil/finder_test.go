package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension_Recursive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.coafile.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "b.coafile.hcl"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), nil, 0o644))

	files, err := FindFilesByExtension(dir, ".coafile.hcl")
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestFindFilesByExtension_FileRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.coafile.hcl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	files, err := FindFilesByExtension(path, ".coafile.hcl")
	require.NoError(t, err)
	require.Equal(t, []string{path}, files)

	// A file root with the wrong suffix yields nothing.
	other := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(other, nil, 0o644))
	files, err = FindFilesByExtension(other, ".coafile.hcl")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestFindFilesByExtension_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "missing"), ".hcl")
	require.Error(t, err)
}
