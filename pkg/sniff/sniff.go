// Package sniff classifies a container's format from its leading bytes,
// never from its file extension.
package sniff

import (
	"bytes"
	"io"
)

// Format is a container family recognized by the redaction engine.
type Format string

const (
	// Unknown is any file whose header does not match a recognized
	// container family.
	Unknown Format = ""
	TIFF    Format = "tiff"
	DICOM   Format = "dicom"
)

// headerBytes is the number of leading bytes sniff inspects: enough to
// reach DICOM's "DICM" magic at offset 128.
const headerBytes = 132

var tiffMagics = [][]byte{
	[]byte("II*\x00"), // classic TIFF, little-endian
	[]byte("MM\x00*"), // classic TIFF, big-endian
	[]byte("II+\x00"), // BigTIFF, little-endian
	[]byte("MM\x00+"), // BigTIFF, big-endian
}

// Sniff reads up to headerBytes from r and classifies the container.
// DICOM's "DICM" magic at offset 128 takes precedence over a TIFF magic at
// offset 0 for files valid as both (the sniffer never tries to
// disambiguate SVS from plain TIFF; that happens later, during plan
// construction, by inspecting the first IFD's ImageDescription).
func Sniff(r io.Reader) (Format, error) {
	buf := make([]byte, headerBytes)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, err
	}
	buf = buf[:n]

	if len(buf) >= headerBytes && bytes.Equal(buf[128:132], []byte("DICM")) {
		return DICOM, nil
	}

	if len(buf) >= 4 {
		for _, magic := range tiffMagics {
			if bytes.Equal(buf[:4], magic) {
				return TIFF, nil
			}
		}
	}

	return Unknown, nil
}
