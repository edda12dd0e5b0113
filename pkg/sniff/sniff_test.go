package sniff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func padded(prefix []byte, total int) []byte {
	buf := make([]byte, total)
	copy(buf, prefix)
	return buf
}

func TestSniffClassicTIFFLittleEndian(t *testing.T) {
	f, err := Sniff(bytes.NewReader(padded([]byte("II*\x00"), 132)))
	require.NoError(t, err)
	assert.Equal(t, TIFF, f)
}

func TestSniffClassicTIFFBigEndian(t *testing.T) {
	f, err := Sniff(bytes.NewReader(padded([]byte("MM\x00*"), 132)))
	require.NoError(t, err)
	assert.Equal(t, TIFF, f)
}

func TestSniffBigTIFF(t *testing.T) {
	f, err := Sniff(bytes.NewReader(padded([]byte("II+\x00"), 132)))
	require.NoError(t, err)
	assert.Equal(t, TIFF, f)
}

func TestSniffDICOM(t *testing.T) {
	buf := make([]byte, 132)
	copy(buf[128:], []byte("DICM"))
	f, err := Sniff(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, DICOM, f)
}

func TestSniffDICOMPrecedesTIFFForDualFlavorFiles(t *testing.T) {
	buf := make([]byte, 132)
	copy(buf[0:], []byte("II*\x00")) // also has a valid TIFF magic
	copy(buf[128:], []byte("DICM"))
	f, err := Sniff(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, DICOM, f)
}

func TestSniffUnknown(t *testing.T) {
	f, err := Sniff(bytes.NewReader(padded([]byte("PK\x03\x04"), 132)))
	require.NoError(t, err)
	assert.Equal(t, Unknown, f)
}

func TestSniffShortFile(t *testing.T) {
	f, err := Sniff(bytes.NewReader([]byte("II")))
	require.NoError(t, err)
	assert.Equal(t, Unknown, f)
}
