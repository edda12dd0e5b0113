package tiffmeta

import (
	"encoding/binary"
	"testing"

	"github.com/garyhouston/tiff66"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longField(tag tiff66.Tag, order binary.ByteOrder, val uint32) tiff66.Field {
	data := make([]byte, 4)
	order.PutUint32(data, val)
	return tiff66.Field{Tag: tag, Type: tiff66.LONG, Count: 1, Data: data}
}

func asciiField(tag tiff66.Tag, s string) tiff66.Field {
	data := append([]byte(s), 0)
	return tiff66.Field{Tag: tag, Type: tiff66.ASCII, Count: uint32(len(data)), Data: data}
}

func node(order binary.ByteOrder, fields ...tiff66.Field) *tiff66.IFDNode {
	n := &tiff66.IFDNode{}
	n.Order = order
	n.Fields = fields
	n.SpaceRec = tiff66.TIFFSpaceRec{Space: tiff66.TIFFSpace}
	return n
}

func TestWalkVisitsSubIFDsBeforeParent(t *testing.T) {
	order := binary.LittleEndian
	child := node(order, longField(tiff66.ImageWidth, order, 100))
	parent := node(order, longField(tiff66.ImageWidth, order, 200))
	parent.SubIFDs = []tiff66.SubIFD{{Tag: tiff66.SubIFDs, Node: child}}

	nodes := Walk(parent)
	require.Len(t, nodes, 2)
	assert.Same(t, child, nodes[0])
	assert.Same(t, parent, nodes[1])
}

func TestWalkFollowsNextChain(t *testing.T) {
	order := binary.LittleEndian
	second := node(order)
	first := node(order)
	first.Next = second

	nodes := Walk(first)
	require.Len(t, nodes, 2)
	assert.Same(t, first, nodes[0])
	assert.Same(t, second, nodes[1])
}

func TestIdentitiesAreStableAndUnique(t *testing.T) {
	order := binary.LittleEndian
	a := node(order)
	b := node(order)
	a.Next = b

	ids := Identities(a)
	assert.NotEqual(t, ids[a], ids[b])
}

func TestIsTiledDetectsTileWidth(t *testing.T) {
	order := binary.LittleEndian
	tiled := node(order, longField(tiff66.TileWidth, order, 256))
	stripped := node(order, longField(tiff66.RowsPerStrip, order, 256))

	assert.True(t, IsTiled(tiled))
	assert.False(t, IsTiled(stripped))
}

func TestSortedNonIFDFieldsExcludesSubIFDPointerAndSorts(t *testing.T) {
	order := binary.LittleEndian
	n := node(order,
		longField(tiff66.ImageLength, order, 10),
		longField(tiff66.ImageWidth, order, 20),
		longField(tiff66.SubIFDs, order, 0),
	)
	n.SubIFDs = []tiff66.SubIFD{{Tag: tiff66.SubIFDs, Node: node(order)}}

	fields := SortedNonIFDFields(n)
	require.Len(t, fields, 2)
	assert.Equal(t, tiff66.ImageWidth, fields[0].Tag)
	assert.Equal(t, tiff66.ImageLength, fields[1].Tag)
}

func TestIsMacroImageByDescription(t *testing.T) {
	order := binary.LittleEndian
	n := node(order, asciiField(tiff66.ImageDescription, "slide macro image"))
	assert.True(t, IsMacroImage(n))
}

func TestIsMacroImageBySubfileType(t *testing.T) {
	order := binary.LittleEndian
	n := node(order, longField(tiff66.NewSubfileType, order, subfileReducedImage|subfileMacro))
	assert.True(t, IsMacroImage(n))
}

func TestIsLabelImageRequiresNonTiled(t *testing.T) {
	order := binary.LittleEndian
	tiled := node(order,
		longField(tiff66.TileWidth, order, 256),
		asciiField(tiff66.ImageDescription, "label"),
	)
	assert.False(t, IsLabelImage(tiled), "a tiled IFD is never classified as a label image")

	nonTiled := node(order, asciiField(tiff66.ImageDescription, "barcode label"))
	assert.True(t, IsLabelImage(nonTiled))
}

func TestLookupNameResolvesBaselineTag(t *testing.T) {
	tag, ok := LookupName("ImageDescription")
	require.True(t, ok)
	assert.Equal(t, tiff66.ImageDescription, tag)
}

func TestLookupNameUnknownReturnsFalse(t *testing.T) {
	_, ok := LookupName("NotARealTag")
	assert.False(t, ok)
}

func tiledNode(order binary.ByteOrder, w, h uint32) *tiff66.IFDNode {
	return node(order,
		longField(tiff66.TileWidth, order, 256),
		longField(tiff66.ImageWidth, order, w),
		longField(tiff66.ImageLength, order, h),
	)
}

func TestSelectThumbnailPrefersSmallestAboveMinimum(t *testing.T) {
	order := binary.LittleEndian
	small := tiledNode(order, 500, 500)
	medium := tiledNode(order, 1000, 1000)
	large := tiledNode(order, 4000, 4000)

	got := SelectThumbnail([]*tiff66.IFDNode{large, small, medium}, 900, 900)
	assert.Same(t, medium, got)
}

func TestSelectThumbnailFallsBackToSmallestWhenNoneLargeEnough(t *testing.T) {
	order := binary.LittleEndian
	small := tiledNode(order, 500, 500)
	smaller := tiledNode(order, 100, 100)

	got := SelectThumbnail([]*tiff66.IFDNode{small, smaller}, 10000, 10000)
	assert.Same(t, smaller, got)
}

func TestSelectThumbnailExcludesOversizedIFDs(t *testing.T) {
	order := binary.LittleEndian
	huge := tiledNode(order, 100000, 100000) // 10B pixels > MaxPixels
	ok := tiledNode(order, 1000, 1000)

	got := SelectThumbnail([]*tiff66.IFDNode{huge, ok}, 0, 0)
	assert.Same(t, ok, got)
}

func TestSelectThumbnailReturnsNilWithNoTiledCandidates(t *testing.T) {
	order := binary.LittleEndian
	stripped := node(order, longField(tiff66.RowsPerStrip, order, 1))
	assert.Nil(t, SelectThumbnail([]*tiff66.IFDNode{stripped}, 0, 0))
}
