package batch

import (
	"io"
	"os"
	"path/filepath"
)

// quarantine places src at dst, creating dst's parent directories first.
// A hardlink is tried before falling back to a metadata-preserving copy,
// per §4.10 step 2: hardlinking avoids doubling disk usage for the common
// case of same-filesystem input and output trees.
func quarantine(dst, src string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyPreservingMode(src, dst)
}

func copyPreservingMode(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
