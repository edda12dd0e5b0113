package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/clinical-imaging/slideredact/pkg/sniff"
)

// candidate is one file slated for redaction. relPath is its location
// relative to the root it was discovered under (itself for a file passed
// directly, or the enclosing directory for one found during a walk); it
// is what lets recursive mode and the failure tree recreate the input's
// directory structure.
type candidate struct {
	path    string
	relPath string
}

// enumerate resolves inputPaths to the ordered list of files a batch run
// will process, per §4.10 step 1: files are included only if the sniffer
// recognizes their format, directories are expanded to their immediate
// children (or the full subtree under recursive), entries within a
// directory are sorted alphabetically. An input path that cannot be
// stat'd, or a file whose format cannot be sniffed, is skipped with a
// log line; a directory that cannot be listed returns an error.
func enumerate(logger *slog.Logger, inputPaths []string, recursive bool) ([]candidate, error) {
	var out []candidate
	for _, in := range inputPaths {
		info, err := os.Stat(in)
		if err != nil {
			logger.Warn("skipping unreadable input path", "path", in, "error", err)
			continue
		}
		if info.IsDir() {
			children, err := walkDir(logger, in, in, recursive)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
			continue
		}
		if !isKnownFormat(logger, in) {
			continue
		}
		out = append(out, candidate{path: in, relPath: filepath.Base(in)})
	}
	return out, nil
}

func walkDir(logger *slog.Logger, root, dir string, recursive bool) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []candidate
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if recursive {
				children, err := walkDir(logger, root, full, recursive)
				if err != nil {
					return nil, err
				}
				out = append(out, children...)
			}
			continue
		}
		if !isKnownFormat(logger, full) {
			continue
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			rel = e.Name()
		}
		out = append(out, candidate{path: full, relPath: rel})
	}
	return out, nil
}

func isKnownFormat(logger *slog.Logger, path string) bool {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("skipping unreadable file", "path", path, "error", err)
		return false
	}
	defer f.Close()

	format, err := sniff.Sniff(f)
	if err != nil {
		logger.Warn("skipping unreadable file", "path", path, "error", err)
		return false
	}
	return format != sniff.Unknown
}
