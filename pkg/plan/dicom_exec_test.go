package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinical-imaging/slideredact/pkg/dicos"
	"github.com/clinical-imaging/slideredact/pkg/dicos/tag"
	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/uidmap"
)

func buildAndExecute(t *testing.T, ds *dicos.Dataset, rules rule.Set, uidMap *uidmap.Map) (*DICOMPlan, bool) {
	t.Helper()
	p, err := BuildDICOM("t.dcm", ds, uidMap, rules)
	require.NoError(t, err)
	ok, err := ExecuteDICOM(p)
	require.NoError(t, err)
	return p, ok
}

func TestExecuteDICOMDeletesElement(t *testing.T) {
	ds := dataset(elem(tag.PatientName, "PN", "DOE^JANE"))
	rules := rule.New("test")
	rules.DICOM.Metadata["PatientName"] = rule.MetadataRule{KeyName: "PatientName", Action: rule.Delete{}}

	_, ok := buildAndExecute(t, ds, rules, uidmap.New())
	assert.True(t, ok)
	_, present := ds.Elements[tag.PatientName]
	assert.False(t, present)
}

func TestExecuteDICOMReplaceUIDIsStableAcrossFiles(t *testing.T) {
	uidMap := uidmap.New()
	ds1 := dataset(elem(tag.SeriesInstanceUID, "UI", "1.2.3"))
	ds2 := dataset(elem(tag.SeriesInstanceUID, "UI", "1.2.3"))
	rules := rule.New("test")
	rules.DICOM.Metadata["SeriesInstanceUID"] = rule.MetadataRule{KeyName: "SeriesInstanceUID", Action: rule.ReplaceUID{}}

	buildAndExecute(t, ds1, rules, uidMap)
	buildAndExecute(t, ds2, rules, uidMap)

	v1, _ := ds1.Elements[tag.SeriesInstanceUID].GetString()
	v2, _ := ds2.Elements[tag.SeriesInstanceUID].GetString()
	assert.Equal(t, v1, v2)
	assert.NotEqual(t, "1.2.3", v1)
	assert.Regexp(t, `^2\.25\.\d+$`, v1)
}

func TestExecuteDICOMAssociatedImageDeleteSkipsFileEntirely(t *testing.T) {
	ds := dataset(elem(tag.ImageType, "CS", `ORIGINAL\PRIMARY\LABEL`))
	rules := rule.New("test")
	rules.DICOM.AssociatedImages["label"] = rule.ImageRule{Action: rule.Delete{}}

	_, ok := buildAndExecute(t, ds, rules, uidmap.New())
	assert.False(t, ok)
}

func TestExecuteDICOMModifyDateOnDAKeepsYearOnly(t *testing.T) {
	dob := tag.New(0x0010, 0x0030) // PatientBirthDate
	ds := dataset(elem(dob, "DA", "19800615"))
	rules := rule.New("test")
	rules.DICOM.Metadata["0010,0030"] = rule.MetadataRule{KeyName: "0010,0030", Action: rule.ModifyDate{}}

	buildAndExecute(t, ds, rules, uidmap.New())
	v, _ := ds.Elements[dob].GetString()
	assert.Equal(t, "19800101", v)
}

func TestExecuteDICOMCheckTypeDeletesMismatchedValue(t *testing.T) {
	rows := tag.New(0x0028, 0x0010) // US VR, Rows
	ds := dataset(elem(rows, "US", "not a number"))
	rules := rule.New("test")
	rules.DICOM.Metadata["0028,0010"] = rule.MetadataRule{
		KeyName: "0028,0010",
		Action:  rule.CheckType{Kind: rule.KindInt},
	}

	buildAndExecute(t, ds, rules, uidmap.New())
	_, present := ds.Elements[rows]
	assert.False(t, present)
}

func TestExecuteDICOMCheckTypeKeepsMatchedValue(t *testing.T) {
	rows := tag.New(0x0028, 0x0010)
	ds := dataset(elem(rows, "US", uint16(512)))
	rules := rule.New("test")
	rules.DICOM.Metadata["0028,0010"] = rule.MetadataRule{
		KeyName: "0028,0010",
		Action:  rule.CheckType{Kind: rule.KindInt},
	}

	buildAndExecute(t, ds, rules, uidmap.New())
	_, present := ds.Elements[rows]
	assert.True(t, present)
}

func TestExecuteDICOMReplaceDummySequenceBecomesEmpty(t *testing.T) {
	refSOP := tag.New(0x0008, 0x1150)
	item := dataset(elem(refSOP, "UI", "1.2.840.1"))
	seqTag := tag.New(0x0040, 0x0560)
	ds := dataset(elem(seqTag, "SQ", []*dicos.Dataset{item}))

	rules := rule.New("test")
	rules.DICOM.Metadata["0040,0560"] = rule.MetadataRule{KeyName: "0040,0560", Action: rule.ReplaceDummy{}}
	rules.DICOM.Metadata["0008,1150"] = rule.MetadataRule{KeyName: "0008,1150", Action: rule.Keep{}}

	buildAndExecute(t, ds, rules, uidmap.New())
	seqElem := ds.Elements[seqTag]
	items, ok := seqElem.Value.([]*dicos.Dataset)
	require.True(t, ok)
	assert.Len(t, items, 0)
}
