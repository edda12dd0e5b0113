package plan

import (
	"encoding/binary"
	"testing"

	"github.com/garyhouston/tiff66"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-imaging/slideredact/pkg/rule"
)

func tiffRules(metadata map[string]rule.MetadataRule, images map[string]rule.ImageRule) rule.Set {
	s := rule.New("test")
	if metadata != nil {
		s.TIFF.Metadata = metadata
	}
	if images != nil {
		s.TIFF.AssociatedImages = images
	}
	return s
}

func TestBuildTIFFResolvesMetadataRuleByName(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, asciiField(tiff66.Make, "Aperio"))
	data := serializeTIFF(root, order)

	rules := tiffRules(map[string]rule.MetadataRule{
		"Make": {KeyName: "Make", Action: rule.Delete{}},
	}, nil)

	p, err := BuildTIFF("t.tif", data, rules)
	require.NoError(t, err)
	assert.True(t, p.Comprehensive())
	assert.Len(t, p.MetadataSteps, 1)
}

func TestBuildTIFFRecordsUnmatchedTagAsNoMatch(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, asciiField(tiff66.Make, "Aperio"))
	data := serializeTIFF(root, order)

	p, err := BuildTIFF("t.tif", data, tiffRules(nil, nil))
	require.NoError(t, err)
	assert.False(t, p.Comprehensive())
	assert.Len(t, p.NoMatchTags, 1)
}

func TestBuildTIFFRejectsImageJFile(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, longField(imageJMetadataTag, order, 1))
	data := serializeTIFF(root, order)

	_, err := BuildTIFF("t.tif", data, tiffRules(nil, nil))
	require.Error(t, err)
	var uErr *UnsupportedFileTypeError
	require.ErrorAs(t, err, &uErr)
}

func TestBuildTIFFClassifiesNonTiledIFDAsDefaultAssociatedImage(t *testing.T) {
	order := binary.LittleEndian
	thumb := ifdNode(order, longField(tiff66.RowsPerStrip, order, 16))
	root := ifdNode(order, longField(tiff66.TileWidth, order, 256))
	root.SubIFDs = []tiff66.SubIFD{{Tag: tiff66.SubIFDs, Node: thumb}}
	data := serializeTIFF(root, order)

	rules := tiffRules(nil, map[string]rule.ImageRule{
		"default": {Action: rule.Delete{}},
	})

	p, err := BuildTIFF("t.tif", data, rules)
	require.NoError(t, err)
	assert.Len(t, p.AssociatedImageSteps, 1)
}
