package batch

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTIFF(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("II*\x00\x08\x00\x00\x00\x00\x00"), 0o644))
}

func writeJunk(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("not a container"), 0o644))
}

func TestEnumerateSortsAlphabeticallyAndSkipsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	writeTIFF(t, filepath.Join(dir, "b.tif"))
	writeTIFF(t, filepath.Join(dir, "a.tif"))
	writeJunk(t, filepath.Join(dir, "c.txt"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	candidates, err := enumerate(logger, []string{dir}, false)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "a.tif", filepath.Base(candidates[0].path))
	assert.Equal(t, "b.tif", filepath.Base(candidates[1].path))
}

func TestEnumerateNonRecursiveSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeTIFF(t, filepath.Join(dir, "top.tif"))
	writeTIFF(t, filepath.Join(sub, "deep.tif"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	candidates, err := enumerate(logger, []string{dir}, false)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "top.tif", filepath.Base(candidates[0].path))
}

func TestEnumerateRecursiveDescendsAndPreservesRelPath(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeTIFF(t, filepath.Join(dir, "top.tif"))
	writeTIFF(t, filepath.Join(sub, "deep.tif"))

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	candidates, err := enumerate(logger, []string{dir}, true)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	var relPaths []string
	for _, c := range candidates {
		relPaths = append(relPaths, c.relPath)
	}
	assert.Contains(t, relPaths, "top.tif")
	assert.Contains(t, relPaths, filepath.Join("nested", "deep.tif"))
}

func TestEnumerateSkipsUnreadableInputPath(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	candidates, err := enumerate(logger, []string{"/does/not/exist"}, false)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestEnumerateDirectFilePathHonorsFormatGate(t *testing.T) {
	dir := t.TempDir()
	tiffPath := filepath.Join(dir, "x.tif")
	junkPath := filepath.Join(dir, "x.txt")
	writeTIFF(t, tiffPath)
	writeJunk(t, junkPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	candidates, err := enumerate(logger, []string{tiffPath, junkPath}, false)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, tiffPath, candidates[0].path)
}
