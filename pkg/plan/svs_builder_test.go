package plan

import (
	"encoding/binary"
	"testing"

	"github.com/garyhouston/tiff66"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-imaging/slideredact/pkg/rule"
)

func aperioDescription(body string) string {
	return "Aperio Image Library v12.0.15\r\n46000x32000 (256x256) JPEG/RGB Q=70|" + body
}

func TestDetectSVSRequiresAperioMention(t *testing.T) {
	order := binary.LittleEndian
	svs := ifdNode(order, asciiField(tiff66.ImageDescription, aperioDescription("Date=08/06/08")))
	plain := ifdNode(order, asciiField(tiff66.ImageDescription, "just a plain TIFF"))

	assert.True(t, DetectSVS(svs))
	assert.False(t, DetectSVS(plain))
}

func TestBuildSVSRejectsFileWithoutImageDescription(t *testing.T) {
	order := binary.LittleEndian
	root := ifdNode(order, longField(tiff66.ImageWidth, order, 10))
	data := serializeTIFF(root, order)

	_, err := BuildSVS("t.svs", data, rule.New("test"))
	require.Error(t, err)
	var mErr *MalformedAperioFileError
	require.ErrorAs(t, err, &mErr)
}

func TestBuildSVSResolvesDescriptionKeyAgainstImageDescriptionTable(t *testing.T) {
	order := binary.LittleEndian
	desc := aperioDescription("Date = 08/06/08|Time = 12:34:56|Time Zone = GMT-0500")
	root := ifdNode(order, asciiField(tiff66.ImageDescription, desc))
	data := serializeTIFF(root, order)

	rules := rule.New("test")
	rules.SVS.ImageDescription = map[string]rule.MetadataRule{
		"Date":      {KeyName: "Date", Action: rule.ModifyDate{}},
		"Time":      {KeyName: "Time", Action: rule.ModifyDate{}},
		"Time Zone": {KeyName: "Time Zone", Action: rule.ModifyDate{}},
	}

	p, err := BuildSVS("t.svs", data, rules)
	require.NoError(t, err)
	assert.Empty(t, p.NoMatchDescriptionKeys)
	assert.Len(t, p.DescriptionSteps, 3)
	// The first IFD's ImageDescription tag itself is pulled out of
	// MetadataSteps: it's resolved only via the description sub-layer.
	_, stillThere := p.MetadataSteps[ElementID{IFD: p.IDs[p.Root], Tag: tiff66.ImageDescription}]
	assert.False(t, stillThere)
}

func TestBuildSVSStrictSkipsDescriptionLayer(t *testing.T) {
	order := binary.LittleEndian
	desc := aperioDescription("Date = 08/06/08")
	root := ifdNode(order, asciiField(tiff66.ImageDescription, desc))
	data := serializeTIFF(root, order)

	rules := rule.New("test")
	rules.Strict = true
	rules.TIFF.Metadata = map[string]rule.MetadataRule{
		"ImageDescription": {KeyName: "ImageDescription", Action: rule.Keep{}},
	}

	p, err := BuildSVS("t.svs", data, rules)
	require.NoError(t, err)
	assert.Empty(t, p.DescriptionSteps)
	_, stillThere := p.MetadataSteps[ElementID{IFD: p.IDs[p.Root], Tag: tiff66.ImageDescription}]
	assert.True(t, stillThere)
}
