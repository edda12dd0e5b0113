package plan

import (
	"bytes"
	"fmt"

	"github.com/garyhouston/tiff66"

	"github.com/clinical-imaging/slideredact/pkg/dicos"
	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/sniff"
	"github.com/clinical-imaging/slideredact/pkg/uidmap"
)

// Plan is satisfied by *TIFFPlan and *DICOMPlan: the two container
// families resolve to distinct decision sets, but both gate execution on
// the same comprehensiveness invariant.
type Plan interface {
	Comprehensive() bool
}

// Build sniffs data's container family and resolves a redaction plan
// against rules, dispatching to the TIFF, SVS, or DICOM builder (§4.5,
// §4.6, §4.8). uidMap is only consulted for a DICOM result; callers pass
// the batch's shared map so replace_uid stays consistent across files.
func Build(path string, data []byte, rules rule.Set, uidMap *uidmap.Map) (Plan, Format, error) {
	format, err := sniff.Sniff(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}

	switch format {
	case sniff.TIFF:
		isSVS, err := peekIsSVS(path, data)
		if err != nil {
			return nil, "", err
		}
		if isSVS {
			p, err := BuildSVS(path, data, rules)
			return p, FormatSVS, err
		}
		p, err := BuildTIFF(path, data, rules)
		return p, FormatTIFF, err
	case sniff.DICOM:
		ds, err := dicos.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, "", fmt.Errorf("%s: reading DICOM dataset: %w", path, err)
		}
		p, err := BuildDICOM(path, ds, uidMap, rules)
		return p, FormatDICOM, err
	default:
		return nil, "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// Execute carries out p's plan and returns the serialized output bytes.
// ok is false when a DICOM instance's own associated-image rule is
// delete: the caller writes no output for that file but still records a
// manifest row.
func Execute(p Plan) (out []byte, ok bool, err error) {
	switch plan := p.(type) {
	case *TIFFPlan:
		out, err := ExecuteTIFF(plan)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	case *DICOMPlan:
		keep, err := ExecuteDICOM(plan)
		if err != nil || !keep {
			return nil, keep, err
		}
		out, err := marshalDICOM(plan)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("plan: unknown plan type %T", p)
	}
}

func marshalDICOM(p *DICOMPlan) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := dicos.Write(&buf, p.Dataset); err != nil {
		return nil, fmt.Errorf("%s: serializing redacted DICOM: %w", p.ImagePath, err)
	}
	return buf.Bytes(), nil
}

// peekIsSVS reads just enough of the TIFF to run SVS detection, without
// committing to either plan builder: BuildTIFF/BuildSVS each re-read the
// tree themselves so the chosen builder owns its own IFDNode graph.
func peekIsSVS(path string, data []byte) (bool, error) {
	valid, order, ifdPos := tiff66.GetHeader(data)
	if !valid {
		return false, fmt.Errorf("%s: not a valid TIFF header", path)
	}
	root, err := tiff66.GetIFDTree(data, order, ifdPos, tiff66.TIFFSpace)
	if err != nil {
		return false, fmt.Errorf("%s: reading IFD tree: %w", path, err)
	}
	return DetectSVS(root), nil
}
