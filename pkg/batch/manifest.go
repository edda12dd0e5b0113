package batch

import (
	"encoding/csv"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// manifestRow is one line of the output CSV manifest. OutputPath is left
// empty for a file that was skipped or quarantined rather than written.
type manifestRow struct {
	InputPath  string
	OutputPath string
	Detail     string
}

// manifestWriter streams rows to a CSV file as the batch progresses, so a
// crash partway through a long run still leaves a manifest for everything
// processed up to that point.
type manifestWriter struct {
	f *os.File
	w *csv.Writer
}

func newManifestWriter(path string) (*manifestWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating manifest %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"input_path", "output_path", "detail"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing manifest header: %w", err)
	}
	w.Flush()
	return &manifestWriter{f: f, w: w}, nil
}

func (m *manifestWriter) add(row manifestRow) {
	m.w.Write([]string{row.InputPath, row.OutputPath, row.Detail})
	m.w.Flush()
}

func (m *manifestWriter) Close() error {
	m.w.Flush()
	if err := m.w.Error(); err != nil {
		m.f.Close()
		return err
	}
	return m.f.Close()
}

// failureEntry is one incomprehensible-plan failure: the quarantined
// file's basename and the tags/description keys that had no rule.
type failureEntry struct {
	basename    string
	missingTags []string
}

type yamlFailedImageDetail struct {
	MissingTags []string `yaml:"missing_tags"`
}

type yamlFailureManifest struct {
	FailedImages      []map[string]yamlFailedImageDetail `yaml:"failed_images"`
	FailedImagesCount int                                 `yaml:"failed_images_count"`
	Command           string                              `yaml:"command,omitempty"`
}

// writeFailureManifest renders failures to path as the YAML-like document
// described in §6, with resumeCmd as the trailing resume invocation.
func writeFailureManifest(path string, failures []failureEntry, resumeCmd string) error {
	doc := yamlFailureManifest{
		FailedImagesCount: len(failures),
		Command:           resumeCmd,
	}
	for _, f := range failures {
		doc.FailedImages = append(doc.FailedImages, map[string]yamlFailedImageDetail{
			f.basename: {MissingTags: f.missingTags},
		})
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding failure manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing failure manifest %s: %w", path, err)
	}
	return nil
}
