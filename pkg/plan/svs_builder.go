package plan

import (
	"fmt"

	"github.com/garyhouston/tiff66"

	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/svsdesc"
)

// DetectSVS reports whether root's first IFD carries an ImageDescription
// mentioning "aperio" (case-insensitive), the signal plan construction
// uses to pick the SVS builder over the plain TIFF one; the format
// sniffer itself never disambiguates SVS from baseline TIFF.
func DetectSVS(root *tiff66.IFDNode) bool {
	if root == nil {
		return false
	}
	return containsFold(descriptionOf(root), "aperio")
}

func descriptionOf(n *tiff66.IFDNode) string {
	for _, f := range n.Fields {
		if f.Tag == tiff66.ImageDescription {
			return f.ASCII()
		}
	}
	return ""
}

// BuildSVS inherits BuildTIFF in full, then layers the SVS description
// codec on top per §4.6. The first IFD must carry an ImageDescription or
// the file is rejected outright; under strict redaction the whole
// description layer is skipped and the file is treated as plain TIFF
// (the ImageDescription tag is left in metadata_steps, resolved only
// against the tiff table).
func BuildSVS(path string, data []byte, rules rule.Set) (*TIFFPlan, error) {
	p, err := buildTIFFCore(path, data, rules, FormatSVS)
	if err != nil {
		return nil, err
	}

	if rules.Strict {
		return p, nil
	}

	firstDescTag, ok := findImageDescription(p.Root)
	if !ok {
		return nil, &MalformedAperioFileError{Path: path}
	}

	id := p.IDs[p.Root]
	delete(p.MetadataSteps, ElementID{IFD: id, Tag: firstDescTag})

	p.DescriptionIFD = p.Root
	p.DescriptionTag = firstDescTag

	for _, n := range p.Nodes {
		descField, ok := fieldByTag(n, tiff66.ImageDescription)
		if !ok {
			continue
		}
		desc := svsdesc.Parse(descField.ASCII())
		for _, entry := range desc.Entries {
			if mr, ok := rules.SVS.ImageDescription[entry.Key]; ok {
				p.DescriptionSteps[entry.Key] = mr
				continue
			}
			p.NoMatchDescriptionKeys = append(p.NoMatchDescriptionKeys,
				fmt.Sprintf("%s (IFD %d)", entry.Key, p.IDs[n]))
		}
	}

	return p, nil
}

func findImageDescription(n *tiff66.IFDNode) (tiff66.Tag, bool) {
	if n == nil {
		return 0, false
	}
	for _, f := range n.Fields {
		if f.Tag == tiff66.ImageDescription {
			return f.Tag, true
		}
	}
	return 0, false
}

func fieldByTag(n *tiff66.IFDNode, t tiff66.Tag) (tiff66.Field, bool) {
	for _, f := range n.Fields {
		if f.Tag == t {
			return f, true
		}
	}
	return tiff66.Field{}, false
}
