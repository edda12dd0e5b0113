package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidatesClosedActionSet(t *testing.T) {
	_, err := Decode([]byte(`
tiff:
  metadata:
    Make:
      action: frobnicate
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown rule action")
}

func TestDecodePopulatesKeyNameFromMapKey(t *testing.T) {
	set, err := Decode([]byte(`
tiff:
  metadata:
    Make:
      action: keep
    Model:
      action: delete
`))
	require.NoError(t, err)
	require.Contains(t, set.TIFF.Metadata, "Make")
	assert.Equal(t, "Make", set.TIFF.Metadata["Make"].KeyName)
	assert.IsType(t, Keep{}, set.TIFF.Metadata["Make"].Action)
	assert.IsType(t, Delete{}, set.TIFF.Metadata["Model"].Action)
}

func TestDecodeReplaceCarriesValue(t *testing.T) {
	set, err := Decode([]byte(`
dicom:
  metadata:
    PatientName:
      action: replace
      value: "ANONYMOUS"
`))
	require.NoError(t, err)
	r := set.DICOM.Metadata["PatientName"].Action.(Replace)
	assert.Equal(t, "ANONYMOUS", r.Value)
}

func TestDecodeCheckTypeCarriesKindAndCount(t *testing.T) {
	set, err := Decode([]byte(`
tiff:
  metadata:
    PixelSpacing:
      action: check_type
      kind: rational
      count: 2
`))
	require.NoError(t, err)
	ct := set.TIFF.Metadata["PixelSpacing"].Action.(CheckType)
	assert.Equal(t, Kind("rational"), ct.Kind)
	assert.Equal(t, 2, ct.Count)
}

func TestDecodeRejectsInvalidCustomMetadataAction(t *testing.T) {
	_, err := Decode([]byte(`
dicom:
  custom_metadata_action: maybe
`))
	require.Error(t, err)
}

func TestMergeNonStrictOverlaysKeyByKey(t *testing.T) {
	base, err := Decode([]byte(`
tiff:
  metadata:
    Make: {action: keep}
    Model: {action: keep}
`))
	require.NoError(t, err)

	override, err := Decode([]byte(`
tiff:
  metadata:
    Model: {action: delete}
`))
	require.NoError(t, err)

	merged, err := Merge(base, override)
	require.NoError(t, err)
	assert.IsType(t, Keep{}, merged.TIFF.Metadata["Make"].Action)
	assert.IsType(t, Delete{}, merged.TIFF.Metadata["Model"].Action)
}

func TestMergeStrictReplacesTablesWholesale(t *testing.T) {
	base, err := Decode([]byte(`
tiff:
  metadata:
    Make: {action: keep}
    Model: {action: keep}
`))
	require.NoError(t, err)

	override, err := Decode([]byte(`
strict: true
tiff:
  metadata:
    Model: {action: delete}
`))
	require.NoError(t, err)

	merged, err := Merge(base, override)
	require.NoError(t, err)
	assert.NotContains(t, merged.TIFF.Metadata, "Make")
	assert.IsType(t, Delete{}, merged.TIFF.Metadata["Model"].Action)
	assert.Empty(t, merged.SVS.ImageDescription, "strict merges drop the SVS description layer entirely")
}

func TestMergeStrictDICOMIsConfigError(t *testing.T) {
	base := New("base")
	override, err := Decode([]byte(`
strict: true
dicom:
  metadata:
    PatientName: {action: delete}
`))
	require.NoError(t, err)

	_, err = Merge(base, override)
	assert.ErrorIs(t, err, ErrDICOMStrictUnsupported)
}

func TestMergeCustomMetadataActionOverride(t *testing.T) {
	base, err := Decode([]byte(`
dicom:
  custom_metadata_action: keep
`))
	require.NoError(t, err)
	override, err := Decode([]byte(`
dicom:
  custom_metadata_action: delete
`))
	require.NoError(t, err)

	merged, err := Merge(base, override)
	require.NoError(t, err)
	assert.Equal(t, CustomDelete, merged.DICOM.CustomMetadataAction)
}
