package plan

import (
	"fmt"
	"strings"

	"github.com/garyhouston/tiff66"

	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/tiffmeta"
)

// Private/vendor tags that mark a TIFF flavor the engine refuses to
// touch rather than risk silently mangling a format it doesn't model.
// Neither is part of tiff66's baseline tag table.
const (
	imageJMetadataTag tiff66.Tag = 50839 // ImageJ's custom-properties block
	ndpiFormatFlagTag tiff66.Tag = 65420 // Hamamatsu NDPI's format flag
)

// BuildTIFF reads data as a baseline TIFF and resolves every metadata
// element and associated image against rules, producing a plan ready for
// the comprehensiveness check.
func BuildTIFF(path string, data []byte, rules rule.Set) (*TIFFPlan, error) {
	return buildTIFFCore(path, data, rules, FormatTIFF)
}

func buildTIFFCore(path string, data []byte, rules rule.Set, format Format) (*TIFFPlan, error) {
	valid, order, ifdPos := tiff66.GetHeader(data)
	if !valid {
		return nil, fmt.Errorf("%s: not a valid TIFF header", path)
	}

	root, err := tiff66.GetIFDTree(data, order, ifdPos, tiff66.TIFFSpace)
	if err != nil {
		return nil, fmt.Errorf("%s: reading IFD tree: %w", path, err)
	}

	nodes := tiffmeta.Walk(root)
	for _, n := range nodes {
		for _, f := range n.Fields {
			switch f.Tag {
			case imageJMetadataTag:
				return nil, &UnsupportedFileTypeError{Reason: "Redaction for ImageJ files is not supported"}
			case ndpiFormatFlagTag:
				return nil, &UnsupportedFileTypeError{Reason: "Redaction for NDPI files is not supported"}
			}
		}
	}

	p := &TIFFPlan{
		ImagePath:            path,
		Format:                format,
		Root:                  root,
		Order:                 order,
		Nodes:                 nodes,
		IDs:                   tiffmeta.Identities(root),
		MetadataSteps:         map[ElementID]rule.MetadataRule{},
		AssociatedImageSteps:  map[tiffmeta.NodeID]rule.ImageRule{},
		DescriptionSteps:      map[string]rule.MetadataRule{},
	}

	for _, n := range nodes {
		id := p.IDs[n]
		for _, f := range tiffmeta.SortedNonIFDFields(n) {
			name := tagName(f.Tag)
			mr, ok := rules.TIFF.Metadata[name]
			if ok && admitsTIFFAction(mr.Action) {
				p.MetadataSteps[ElementID{IFD: id, Tag: f.Tag}] = mr
				continue
			}
			p.NoMatchTags = append(p.NoMatchTags, fmt.Sprintf("%s (IFD %d)", name, id))
		}

		if tiffmeta.IsTiled(n) {
			continue
		}
		key := "default"
		switch {
		case tiffmeta.IsMacroImage(n):
			key = "macro"
		case tiffmeta.IsLabelImage(n):
			key = "label"
		}
		if ir, ok := rules.TIFF.AssociatedImages[key]; ok {
			p.AssociatedImageSteps[id] = ir
		} else if ir, ok := rules.TIFF.AssociatedImages["default"]; ok {
			p.AssociatedImageSteps[id] = ir
		}
	}

	return p, nil
}

// tagName resolves a tiff66 tag id to its baseline name, fabricating a
// synthetic name for unknown (often private/vendor) tags so they still
// get a stable rule-table key.
func tagName(t tiff66.Tag) string {
	if name, ok := tiff66.TagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag_%d", uint16(t))
}

// admitsTIFFAction reports whether action is one of the four kinds a TIFF
// tag rule may carry (keep, delete, replace, check_type); replace_uid,
// replace_dummy, empty, and modify_date have no meaning outside DICOM/SVS
// description handling and are treated as "no rule" if matched here.
func admitsTIFFAction(a rule.Action) bool {
	switch a.(type) {
	case rule.Keep, rule.Delete, rule.Replace, rule.CheckType:
		return true
	default:
		return false
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
