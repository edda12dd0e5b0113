package dicos

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/clinical-imaging/slideredact/pkg/dicos/tag"
)

// Reader reads DICOM files into a Dataset.
type Reader struct {
	r              io.Reader
	transferSyntax string
	explicitVR     bool
	littleEndian   bool
}

// NewReader creates a new DICOM reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:            r,
		explicitVR:   true,
		littleEndian: true,
	}
}

// Parse reads a complete DICOM file.
func Parse(r io.Reader) (*Dataset, error) {
	reader := NewReader(r)
	return reader.ReadDataset()
}

// ReadDataset reads the complete dataset.
func (r *Reader) ReadDataset() (*Dataset, error) {
	ds := &Dataset{
		Elements: make(map[Tag]*Element),
	}

	// Read preamble (128 bytes) and DICM magic
	preamble := make([]byte, 128)
	if _, err := io.ReadFull(r.r, preamble); err != nil {
		return nil, fmt.Errorf("failed to read preamble: %w", err)
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.r, magic); err != nil {
		return nil, fmt.Errorf("failed to read DICM magic: %w", err)
	}
	if string(magic) != "DICM" {
		return nil, errors.New("invalid DICOM file: missing DICM magic")
	}

	// Group 0002 (File Meta Information) is always Explicit VR Little Endian
	r.explicitVR = true
	r.littleEndian = true

	for {
		tag, err := r.readTag()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tag: %w", err)
		}

		if tag.Group != 0x0002 && r.transferSyntax == "" {
			// Default to Implicit VR if no File Meta Information was present.
			r.transferSyntax = "1.2.840.10008.1.2"
			r.updateTransferSyntax()
		}

		elem, err := r.readElementWithTag(tag)
		if err != nil {
			return nil, fmt.Errorf("failed to read element %v: %w", tag, err)
		}

		ds.Elements[elem.Tag] = elem

		if tag.Group == 0x0002 && tag.Element == 0x0010 {
			if tsStr, ok := elem.Value.(string); ok {
				r.transferSyntax = tsStr
				r.updateTransferSyntax()
			}
		}
	}

	return ds, nil
}

// readElementWithTag reads a DICOM element after the tag has been read.
func (r *Reader) readElementWithTag(tag Tag) (*Element, error) {
	var vr string
	var vl uint32

	if r.explicitVR {
		vrBytes := make([]byte, 2)
		if _, err := io.ReadFull(r.r, vrBytes); err != nil {
			return nil, err
		}
		vr = string(vrBytes)

		if isLongVR(vr) {
			reserved := make([]byte, 2)
			if _, err := io.ReadFull(r.r, reserved); err != nil {
				return nil, err
			}
			if err := binary.Read(r.r, binary.LittleEndian, &vl); err != nil {
				return nil, err
			}
		} else {
			var vl16 uint16
			if err := binary.Read(r.r, binary.LittleEndian, &vl16); err != nil {
				return nil, err
			}
			vl = uint32(vl16)
		}
	} else {
		if err := binary.Read(r.r, binary.LittleEndian, &vl); err != nil {
			return nil, err
		}
		vr = getImplicitVR(tag)
	}

	value, err := r.readValue(tag, vr, vl)
	if err != nil {
		return nil, err
	}

	return &Element{
		Tag:   tag,
		VR:    vr,
		Value: value,
	}, nil
}

// readTag reads a DICOM tag.
func (r *Reader) readTag() (Tag, error) {
	var group, element uint16
	if err := binary.Read(r.r, binary.LittleEndian, &group); err != nil {
		return Tag{}, err
	}
	if err := binary.Read(r.r, binary.LittleEndian, &element); err != nil {
		return Tag{}, err
	}
	return Tag{Group: group, Element: element}, nil
}

// readValue reads the value based on VR and VL.
func (r *Reader) readValue(tag Tag, vr string, vl uint32) (interface{}, error) {
	if vr == "SQ" {
		return r.readSequence(vl)
	}

	if vl == 0xFFFFFFFF {
		return r.readUndefinedLengthValue(tag)
	}

	data := make([]byte, vl)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, err
	}

	return parseValue(vr, data)
}

// readUndefinedLengthValue handles elements declared with undefined length
// (0xFFFFFFFF) whose VR was not already recognized as SQ.
func (r *Reader) readUndefinedLengthValue(tag Tag) (interface{}, error) {
	if tag.Group == 0x7FE0 && tag.Element == 0x0010 {
		return r.readEncapsulatedPixelData()
	}

	// Per PS3.5, an element with VR UN and undefined length is itself encoded
	// as an implicit-VR sequence of items; this also covers private/vendor
	// elements whose VR we could not resolve in implicit-VR streams.
	return r.readSequence(0xFFFFFFFF)
}

// readSequence reads a sequence (VR=SQ) value, defined or undefined length,
// returning its items as a slice of nested Datasets.
func (r *Reader) readSequence(vl uint32) ([]*Dataset, error) {
	if vl == 0xFFFFFFFF {
		return r.readSequenceItems()
	}

	bounded := &Reader{
		r:              io.LimitReader(r.r, int64(vl)),
		explicitVR:     r.explicitVR,
		littleEndian:   r.littleEndian,
		transferSyntax: r.transferSyntax,
	}
	return bounded.readSequenceItems()
}

// readSequenceItems reads Item (FFFE,E000) elements until either a Sequence
// Delimitation Item (FFFE,E0DD) is seen, or the underlying reader is
// exhausted (the defined-length case, via an io.LimitReader).
func (r *Reader) readSequenceItems() ([]*Dataset, error) {
	var items []*Dataset
	for {
		itemTag, err := r.readTag()
		if err != nil {
			if err == io.EOF {
				return items, nil
			}
			return nil, fmt.Errorf("reading sequence item tag: %w", err)
		}

		if itemTag.Group == 0xFFFE && itemTag.Element == 0xE0DD {
			var delimLen uint32
			if err := binary.Read(r.r, binary.LittleEndian, &delimLen); err != nil {
				return nil, fmt.Errorf("reading sequence delimiter length: %w", err)
			}
			return items, nil
		}

		if itemTag.Group != 0xFFFE || itemTag.Element != 0xE000 {
			return nil, fmt.Errorf("expected sequence item tag, got %v", itemTag)
		}

		var itemLen uint32
		if err := binary.Read(r.r, binary.LittleEndian, &itemLen); err != nil {
			return nil, fmt.Errorf("reading sequence item length: %w", err)
		}

		item, err := r.readSequenceItem(itemLen)
		if err != nil {
			return nil, fmt.Errorf("reading sequence item: %w", err)
		}
		items = append(items, item)
	}
}

// readSequenceItem reads the element content of a single sequence item,
// defined or undefined length.
func (r *Reader) readSequenceItem(itemLen uint32) (*Dataset, error) {
	ds := &Dataset{Elements: make(map[Tag]*Element)}

	itemReader := r
	undefinedLength := itemLen == 0xFFFFFFFF
	if !undefinedLength {
		itemReader = &Reader{
			r:              io.LimitReader(r.r, int64(itemLen)),
			explicitVR:     r.explicitVR,
			littleEndian:   r.littleEndian,
			transferSyntax: r.transferSyntax,
		}
	}

	for {
		elemTag, err := itemReader.readTag()
		if err != nil {
			if err == io.EOF {
				return ds, nil
			}
			return nil, err
		}

		if undefinedLength && elemTag.Group == 0xFFFE && elemTag.Element == 0xE00D {
			var delimLen uint32
			if err := binary.Read(itemReader.r, binary.LittleEndian, &delimLen); err != nil {
				return nil, fmt.Errorf("reading item delimiter length: %w", err)
			}
			return ds, nil
		}

		elem, err := itemReader.readElementWithTag(elemTag)
		if err != nil {
			return nil, err
		}
		ds.Elements[elem.Tag] = elem
	}
}

// readEncapsulatedPixelData reads encapsulated (compressed) pixel data.
func (r *Reader) readEncapsulatedPixelData() (*PixelData, error) {
	pd := &PixelData{
		IsEncapsulated: true,
		Frames:         []Frame{},
	}

	botTag, err := r.readTag()
	if err != nil {
		return nil, err
	}
	if botTag.Group != 0xFFFE || botTag.Element != 0xE000 {
		return nil, fmt.Errorf("expected BOT item tag, got %v", botTag)
	}

	var botLength uint32
	if err := binary.Read(r.r, binary.LittleEndian, &botLength); err != nil {
		return nil, err
	}

	if botLength > 0 {
		numOffsets := botLength / 4
		pd.Offsets = make([]uint32, numOffsets)
		for i := range pd.Offsets {
			if err := binary.Read(r.r, binary.LittleEndian, &pd.Offsets[i]); err != nil {
				return nil, err
			}
		}
	}

	for {
		itemTag, err := r.readTag()
		if err != nil {
			return nil, err
		}

		if itemTag.Group == 0xFFFE && itemTag.Element == 0xE0DD {
			var delimLength uint32
			if err := binary.Read(r.r, binary.LittleEndian, &delimLength); err != nil {
				return nil, err
			}
			break
		}

		if itemTag.Group != 0xFFFE || itemTag.Element != 0xE000 {
			return nil, fmt.Errorf("expected item tag, got %v", itemTag)
		}

		var itemLength uint32
		if err := binary.Read(r.r, binary.LittleEndian, &itemLength); err != nil {
			return nil, err
		}

		frameData := make([]byte, itemLength)
		if _, err := io.ReadFull(r.r, frameData); err != nil {
			return nil, err
		}

		pd.Frames = append(pd.Frames, Frame{
			CompressedData: frameData,
		})
	}

	return pd, nil
}

// updateTransferSyntax updates reader settings based on transfer syntax.
func (r *Reader) updateTransferSyntax() {
	switch r.transferSyntax {
	case "1.2.840.10008.1.2": // Implicit VR Little Endian
		r.explicitVR = false
		r.littleEndian = true
	case "1.2.840.10008.1.2.1": // Explicit VR Little Endian
		r.explicitVR = true
		r.littleEndian = true
	case "1.2.840.10008.1.2.4.80": // JPEG-LS Lossless
		r.explicitVR = true
		r.littleEndian = true
	case "1.2.840.10008.1.2.4.70": // JPEG Lossless (Process 14 SV1)
		r.explicitVR = true
		r.littleEndian = true
	case "1.2.840.10008.1.2.5": // RLE Lossless
		r.explicitVR = true
		r.littleEndian = true
	case "1.2.840.10008.1.2.4.90", "1.2.840.10008.1.2.4.91": // JPEG 2000
		r.explicitVR = true
		r.littleEndian = true
	}
}

// Helper functions

// isLongVR returns true if VR uses 4-byte VL (OB, OD, OF, OL, OW, SQ, UC, UR, UT, UN)
func isLongVR(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OW", "SQ", "UC", "UR", "UT", "UN":
		return true
	}
	return false
}

// getImplicitVR returns VR for a tag when using Implicit VR transfer syntax.
func getImplicitVR(t Tag) string {
	switch t {
	case tag.ReferencedImageSequence, tag.ReferencedSeriesSequence,
		tag.OpticalPathSequence, tag.SpecimenDescriptionSequence,
		tag.TotalPixelMatrixOriginSequence, tag.ConditionsForLensPower,
		tag.IssuerOfTheContainerIdentifierSequence:
		return "SQ"
	}

	switch {
	case t.Group == 0x0002: // File Meta Information
		return "UL"
	case t.Group == 0x7FE0 && t.Element == 0x0010:
		return "OW" // Pixel Data
	case t.Group == 0x0028: // Image Pixel Module
		switch t.Element {
		case 0x0010, 0x0011, 0x0100, 0x0101, 0x0102, 0x0103, 0x0002:
			return "US"
		case 0x0008:
			return "IS" // Number of Frames
		case 0x0030, 0x1050, 0x1051, 0x1052, 0x1053, 0x1054:
			return "DS" // Spacing, Windowing, Rescale
		case 0x0004:
			return "CS" // Photometric Interpretation
		}
	case t.Group == 0x0008: // General Information
		switch t.Element {
		case 0x0016, 0x0018:
			return "UI"
		case 0x0060, 0x0008, 0x0080:
			return "CS"
		}
	}
	return "UN" // Unknown
}

// parseValue converts raw bytes to typed value based on VR
func parseValue(vr string, data []byte) (interface{}, error) {
	switch vr {
	case "UI", "SH", "LO", "ST", "LT", "UT", "PN", "CS", "DA", "TM", "DT", "AS", "IS", "DS":
		// String types - trim null padding
		s := string(data)
		for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
			s = s[:len(s)-1]
		}
		return s, nil
	case "US": // Unsigned Short
		if len(data) == 2 {
			return binary.LittleEndian.Uint16(data), nil
		}
		// Multiple values
		values := make([]uint16, len(data)/2)
		for i := range values {
			values[i] = binary.LittleEndian.Uint16(data[i*2:])
		}
		return values, nil
	case "UL": // Unsigned Long
		if len(data) == 4 {
			return binary.LittleEndian.Uint32(data), nil
		}
		values := make([]uint32, len(data)/4)
		for i := range values {
			values[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		return values, nil
	case "SS": // Signed Short
		if len(data) == 2 {
			return int16(binary.LittleEndian.Uint16(data)), nil
		}
	case "SL": // Signed Long
		if len(data) == 4 {
			return int32(binary.LittleEndian.Uint32(data)), nil
		}
	case "FL": // Float
		if len(data) == 4 {
			var f float32
			binary.Read(bytes.NewReader(data), binary.LittleEndian, &f)
			return f, nil
		}
	case "FD": // Double
		if len(data) == 8 {
			var f float64
			binary.Read(bytes.NewReader(data), binary.LittleEndian, &f)
			return f, nil
		}
	case "OB", "OW", "UN":
		// Binary data
		return data, nil
	}
	return data, nil
}
