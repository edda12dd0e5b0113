package batch

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestManifestWriterWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	mw, err := newManifestWriter(path)
	require.NoError(t, err)

	mw.add(manifestRow{InputPath: "in/a.tif", OutputPath: "out/a.tif"})
	mw.add(manifestRow{InputPath: "in/b.tif", Detail: "incomprehensible plan: missing rules for some elements"})
	require.NoError(t, mw.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"input_path", "output_path", "detail"}, rows[0])
	assert.Equal(t, []string{"in/a.tif", "out/a.tif", ""}, rows[1])
	assert.Equal(t, []string{"in/b.tif", "", "incomprehensible plan: missing rules for some elements"}, rows[2])
}

func TestWriteFailureManifestRendersYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failure_manifest.yaml")
	failures := []failureEntry{
		{basename: "a.tif", missingTags: []string{"Make"}},
		{basename: "b.dcm", missingTags: nil},
	}

	require.NoError(t, writeFailureManifest(path, failures, "slideredactctl run ."))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc yamlFailureManifest
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.FailedImagesCount)
	assert.Equal(t, "slideredactctl run .", doc.Command)
	require.Len(t, doc.FailedImages, 2)
	assert.Equal(t, []string{"Make"}, doc.FailedImages[0]["a.tif"].MissingTags)
}
