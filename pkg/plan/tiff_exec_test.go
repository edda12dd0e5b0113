package plan

import (
	"bytes"
	"encoding/binary"
	"image/jpeg"
	"testing"

	"github.com/garyhouston/tiff66"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-imaging/slideredact/pkg/rule"
)

func fieldByTag(n *tiff66.IFDNode, t tiff66.Tag) (tiff66.Field, bool) {
	for _, f := range n.Fields {
		if f.Tag == t {
			return f, true
		}
	}
	return tiff66.Field{}, false
}

func buildAndExecuteTIFF(t *testing.T, root *tiff66.IFDNode, order binary.ByteOrder, rules rule.Set) ([]byte, *TIFFPlan) {
	t.Helper()
	data := serializeTIFF(root, order)
	p, err := BuildTIFF("t.tif", data, rules)
	require.NoError(t, err)
	out, err := ExecuteTIFF(p)
	require.NoError(t, err)
	return out, p
}

func TestExecuteTIFFDeletesField(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, asciiField(tiff66.Make, "Aperio"))
	rules := tiffRules(map[string]rule.MetadataRule{
		"Make": {KeyName: "Make", Action: rule.Delete{}},
	}, nil)

	out, _ := buildAndExecuteTIFF(t, root, order, rules)

	valid, readOrder, ifdPos := tiff66.GetHeader(out)
	require.True(t, valid)
	got, err := tiff66.GetIFDTree(out, readOrder, ifdPos, tiff66.TIFFSpace)
	require.NoError(t, err)
	_, ok := fieldByTag(got, tiff66.Make)
	assert.False(t, ok)
}

func TestExecuteTIFFReplaceField(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, asciiField(tiff66.Make, "Aperio"))
	rules := tiffRules(map[string]rule.MetadataRule{
		"Make": {KeyName: "Make", Action: rule.Replace{Value: "redacted"}},
	}, nil)

	out, _ := buildAndExecuteTIFF(t, root, order, rules)

	valid, readOrder, ifdPos := tiff66.GetHeader(out)
	require.True(t, valid)
	got, err := tiff66.GetIFDTree(out, readOrder, ifdPos, tiff66.TIFFSpace)
	require.NoError(t, err)
	f, ok := fieldByTag(got, tiff66.Make)
	require.True(t, ok)
	assert.Equal(t, "redacted", f.ASCII())
}

func TestExecuteTIFFCheckTypeDeletesMismatch(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, asciiField(tiff66.Make, "Aperio"))
	rules := tiffRules(map[string]rule.MetadataRule{
		"Make": {KeyName: "Make", Action: rule.CheckType{Kind: "integer"}},
	}, nil)

	out, _ := buildAndExecuteTIFF(t, root, order, rules)

	valid, readOrder, ifdPos := tiff66.GetHeader(out)
	require.True(t, valid)
	got, err := tiff66.GetIFDTree(out, readOrder, ifdPos, tiff66.TIFFSpace)
	require.NoError(t, err)
	_, ok := fieldByTag(got, tiff66.Make)
	assert.False(t, ok)
}

func TestExecuteTIFFReplaceAssociatedImageWithBlankJPEG(t *testing.T) {
	order := binary.LittleEndian
	macro := ifdNode(order,
		longField(tiff66.ImageWidth, order, 64),
		longField(tiff66.ImageLength, order, 32),
		asciiField(tiff66.ImageDescription, "macro"),
	)
	root := ifdNode(order, longField(tiff66.TileWidth, order, 256))
	root.SubIFDs = []tiff66.SubIFD{{Tag: tiff66.SubIFDs, Node: macro}}

	rules := tiffRules(nil, map[string]rule.ImageRule{
		"macro": {Action: rule.Replace{}},
	})

	data := serializeTIFF(root, order)
	p, err := BuildTIFF("t.tif", data, rules)
	require.NoError(t, err)

	out, err := ExecuteTIFF(p)
	require.NoError(t, err)

	valid, readOrder, ifdPos := tiff66.GetHeader(out)
	require.True(t, valid)
	got, err := tiff66.GetIFDTree(out, readOrder, ifdPos, tiff66.TIFFSpace)
	require.NoError(t, err)
	require.Len(t, got.SubIFDs, 1)

	blank := got.SubIFDs[0].Node
	widthField, ok := fieldByTag(blank, tiff66.ImageWidth)
	require.True(t, ok)
	assert.Equal(t, uint32(64), widthField.Long(0, readOrder))

	offField, ok := fieldByTag(blank, tiff66.StripOffsets)
	require.True(t, ok)
	countField, ok := fieldByTag(blank, tiff66.StripByteCounts)
	require.True(t, ok)
	start := offField.Long(0, readOrder)
	size := countField.Long(0, readOrder)
	_, err = jpeg.Decode(bytes.NewReader(out[start : start+size]))
	require.NoError(t, err)
}

func TestExecuteTIFFDeleteAssociatedImageRemovesSubIFD(t *testing.T) {
	order := binary.LittleEndian
	macro := ifdNode(order, longField(tiff66.ImageWidth, order, 16))
	root := ifdNode(order, longField(tiff66.TileWidth, order, 256))
	root.SubIFDs = []tiff66.SubIFD{{Tag: tiff66.SubIFDs, Node: macro}}

	rules := tiffRules(nil, map[string]rule.ImageRule{
		"default": {Action: rule.Delete{}},
	})

	out, _ := buildAndExecuteTIFF(t, root, order, rules)

	valid, readOrder, ifdPos := tiff66.GetHeader(out)
	require.True(t, valid)
	got, err := tiff66.GetIFDTree(out, readOrder, ifdPos, tiff66.TIFFSpace)
	require.NoError(t, err)
	assert.Empty(t, got.SubIFDs)
}

// TestExecuteTIFFReplaceRootWithSiblingDeletion is a regression test: it
// replaces the root IFD (a non-tiled image treated as the default
// associated image) while a second associated image in the same file is
// deleted, exercising the link-map reparenting in replaceNode.
func TestExecuteTIFFReplaceRootWithSiblingDeletion(t *testing.T) {
	order := binary.LittleEndian
	second := ifdNode(order,
		longField(tiff66.ImageWidth, order, 8),
		asciiField(tiff66.ImageDescription, "label"),
	)
	root := ifdNode(order,
		longField(tiff66.ImageWidth, order, 64),
		longField(tiff66.ImageLength, order, 32),
	)
	root.Next = second

	rules := tiffRules(nil, map[string]rule.ImageRule{
		"default": {Action: rule.Replace{}},
		"label":   {Action: rule.Delete{}},
	})

	data := serializeTIFF(root, order)
	p, err := BuildTIFF("t.tif", data, rules)
	require.NoError(t, err)

	out, err := ExecuteTIFF(p)
	require.NoError(t, err)

	valid, readOrder, ifdPos := tiff66.GetHeader(out)
	require.True(t, valid)
	got, err := tiff66.GetIFDTree(out, readOrder, ifdPos, tiff66.TIFFSpace)
	require.NoError(t, err)

	widthField, ok := fieldByTag(got, tiff66.ImageWidth)
	require.True(t, ok)
	assert.Equal(t, uint32(64), widthField.Long(0, readOrder))
	assert.Nil(t, got.Next)
}
