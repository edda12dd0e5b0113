package plan

import (
	"fmt"

	"github.com/clinical-imaging/slideredact/pkg/dicos"
	"github.com/clinical-imaging/slideredact/pkg/dicos/tag"
	"github.com/clinical-imaging/slideredact/pkg/dicos/vr"
	"github.com/clinical-imaging/slideredact/pkg/rule"
)

// ExecuteDICOM carries out p's resolved steps against its dataset in place
// per §4.9. It returns ok=false when the instance's own associated-image
// rule is delete, telling the caller to skip writing output for this file
// entirely; the dataset is left untouched in that case.
func ExecuteDICOM(p *DICOMPlan) (ok bool, err error) {
	if _, isDelete := p.AssociatedImageRule.Action.(rule.Delete); isDelete {
		return false, nil
	}

	if err := executeDataset(p.Dataset, "", p); err != nil {
		return false, err
	}
	return true, nil
}

// executeDataset mirrors resolveDataset's traversal: sequence items are
// executed before the sequence element itself, so a delete on the whole
// sequence never has to reconcile with a half-applied nested step.
func executeDataset(ds *dicos.Dataset, pathPrefix string, p *DICOMPlan) error {
	for _, t := range sortedTags(ds) {
		elem, present := ds.Elements[t]
		if !present {
			continue
		}
		path := pathPrefix + tagPathString(t)

		if elem.VR == dicomSequenceVR {
			if items, ok := elem.Value.([]*dicos.Dataset); ok {
				for i, item := range items {
					itemPrefix := fmt.Sprintf("%s[%d]/", path, i)
					if err := executeDataset(item, itemPrefix, p); err != nil {
						return err
					}
				}
			}
		}

		step, ok := p.MetadataSteps[path]
		if !ok {
			continue
		}
		if err := applyDICOMAction(ds, t, elem, step.Action, p); err != nil {
			return err
		}
	}
	return nil
}

func applyDICOMAction(ds *dicos.Dataset, t tag.Tag, elem *dicos.Element, action rule.Action, p *DICOMPlan) error {
	switch a := action.(type) {
	case rule.Keep:
		return nil
	case rule.Delete:
		dicos.DeleteElement(ds, t)
		return nil
	case rule.Replace:
		elem.Value = a.Value
		return nil
	case rule.Empty:
		elem.Value = emptyValueForVR(elem.VR)
		return nil
	case rule.ReplaceDummy:
		elem.Value = dummyValueForVR(elem.VR)
		return nil
	case rule.ReplaceUID:
		original, _ := elem.GetString()
		elem.Value = p.UIDMap.Resolve(original)
		return nil
	case rule.CheckType:
		if !dicomValueMatchesVR(elem) {
			dicos.DeleteElement(ds, t)
		}
		return nil
	case rule.ModifyDate:
		newVal, ok := modifyDateValue(elem)
		if !ok {
			dicos.DeleteElement(ds, t)
			return nil
		}
		elem.Value = newVal
		return nil
	default:
		return fmt.Errorf("unhandled DICOM action %T for tag %s", action, tagPathString(t))
	}
}

// emptyValueForVR returns the zero-length value for v's declared VR: ""
// for string VRs, an empty sequence for SQ, and a zero-length byte string
// for anything binary.
func emptyValueForVR(v string) interface{} {
	switch vr.VR(v) {
	case vr.SQ:
		return []*dicos.Dataset{}
	default:
		if vr.VR(v).IsString() {
			return ""
		}
		return []byte{}
	}
}

// dummyValueForVR returns a VR-appropriate neutral placeholder per §4.9:
// "" for string VRs, 0.0 for float VRs, 0 for integer VRs, an empty
// sequence for SQ, and b"" for the remaining binary VRs.
func dummyValueForVR(v string) interface{} {
	switch vr.VR(v) {
	case vr.SQ:
		return []*dicos.Dataset{}
	case vr.FL, vr.FD:
		return float64(0)
	case vr.SL, vr.SS, vr.UL, vr.US, vr.AT:
		return 0
	case vr.OB, vr.OD, vr.OF, vr.OL, vr.OW, vr.UN:
		return []byte{}
	default:
		if vr.VR(v).IsString() {
			return ""
		}
		return []byte{}
	}
}

// dicomValueMatchesVR reports whether elem's current Go-typed value belongs
// to the class its declared VR expects. A VR outside string/float/int/
// sequence/bytes (there are none left in the standard table) falls through
// to false, which check_type treats as a conservative delete.
func dicomValueMatchesVR(elem *dicos.Element) bool {
	switch vr.VR(elem.VR) {
	case vr.SQ:
		_, ok := elem.Value.([]*dicos.Dataset)
		return ok
	case vr.FL, vr.FD:
		switch elem.Value.(type) {
		case float32, float64, []float32, []float64:
			return true
		}
		return false
	case vr.SL, vr.SS, vr.UL, vr.US, vr.AT:
		switch elem.Value.(type) {
		case int, int16, int32, uint16, uint32, []int, []uint16, []uint32:
			return true
		}
		return false
	case vr.OB, vr.OD, vr.OF, vr.OL, vr.OW, vr.UN:
		_, ok := elem.Value.([]byte)
		return ok
	default:
		if vr.VR(elem.VR).IsString() {
			_, ok := elem.Value.(string)
			return ok
		}
		return false
	}
}

// modifyDateValue computes the year-only/midnight/zero-offset replacement
// for a date/time-valued element, removing the absolute calendar date.
// DA keeps its year with month and day set to 0101; DT keeps its year
// followed by 0101000000; TM becomes "00" (midnight); SH, which covers
// TimezoneOffsetFromUTC's "+0000"/"-0500" convention, becomes "+0000". Anything else (or a value too short to carry a year) is not
// a recognized date/time shape and is reported as ok=false so the caller
// deletes the element instead of writing a nonsensical replacement.
func modifyDateValue(elem *dicos.Element) (string, bool) {
	s, ok := elem.GetString()
	if !ok {
		return "", false
	}
	switch vr.VR(elem.VR) {
	case vr.DA:
		if len(s) < 4 {
			return "", false
		}
		return s[:4] + "0101", true
	case vr.DT:
		if len(s) < 4 {
			return "", false
		}
		return s[:4] + "0101000000", true
	case vr.TM:
		return "00", true
	case vr.SH:
		return "+0000", true
	default:
		return "", false
	}
}
