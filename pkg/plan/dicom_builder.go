package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/clinical-imaging/slideredact/pkg/dicos"
	"github.com/clinical-imaging/slideredact/pkg/dicos/tag"
	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/uidmap"
)

// BuildDICOM resolves a redaction plan for a DICOM WSI instance per §4.8.
// Strict redaction has no defined behavior for DICOM; requesting it is a
// batch-fatal configuration error rather than an approximation.
func BuildDICOM(path string, ds *dicos.Dataset, uidMap *uidmap.Map, rules rule.Set) (*DICOMPlan, error) {
	if rules.Strict {
		return nil, &ConfigError{Reason: "strict redaction is not currently supported for DICOM images"}
	}

	p := &DICOMPlan{
		ImagePath:     path,
		Dataset:       ds,
		UIDMap:        uidMap,
		ImageType:     classifyImageType(ds),
		MetadataSteps: map[string]rule.MetadataRule{},
	}

	if result := dicos.ValidateWSI(ds); result.HasErrors() || result.HasWarnings() {
		p.ValidationWarnings = result.AllMessages()
	}

	if ir, ok := rules.DICOM.AssociatedImages[p.ImageType]; ok {
		p.AssociatedImageRule = ir
	} else {
		p.AssociatedImageRule = rule.ImageRule{Action: rule.Keep{}}
	}

	if err := resolveDataset(ds, "", rules, p); err != nil {
		return nil, err
	}

	return p, nil
}

// classifyImageType returns the third backslash-separated component of the
// dataset's ImageType, lowercased, or "" if ImageType is absent or short.
func classifyImageType(ds *dicos.Dataset) string {
	elem, ok := ds.FindElement(tag.ImageType.Group, tag.ImageType.Element)
	if !ok {
		return ""
	}
	s, ok := elem.GetString()
	if !ok {
		return ""
	}
	parts := strings.Split(s, `\`)
	if len(parts) < 3 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[2]))
}

// resolveDataset walks ds depth-first in tag order, recording a metadata
// step under pathPrefix+tagPathString for every element. Sequence items are
// resolved before the sequence element itself, so that later executing a
// delete on the whole sequence never orphans a half-applied nested step.
func resolveDataset(ds *dicos.Dataset, pathPrefix string, rules rule.Set, p *DICOMPlan) error {
	for _, t := range sortedTags(ds) {
		elem := ds.Elements[t]
		path := pathPrefix + tagPathString(t)

		if elem.VR == string(dicomSequenceVR) {
			if items, ok := elem.Value.([]*dicos.Dataset); ok {
				for i, item := range items {
					itemPrefix := fmt.Sprintf("%s[%d]/", path, i)
					if err := resolveDataset(item, itemPrefix, rules, p); err != nil {
						return err
					}
				}
			}
		}

		if err := resolveElement(t, path, rules, p); err != nil {
			return err
		}
	}
	return nil
}

const dicomSequenceVR = "SQ"

func resolveElement(t tag.Tag, path string, rules rule.Set, p *DICOMPlan) error {
	if mr, ok := lookupDICOMRule(t, rules); ok {
		p.MetadataSteps[path] = mr
		return nil
	}

	if !t.IsPrivate() {
		p.NoMatchTags = append(p.NoMatchTags, path)
		return nil
	}

	switch rules.DICOM.CustomMetadataAction {
	case rule.CustomKeep:
		p.MetadataSteps[path] = rule.MetadataRule{KeyName: path, Action: rule.Keep{}}
	case rule.CustomDelete:
		p.MetadataSteps[path] = rule.MetadataRule{KeyName: path, Action: rule.Delete{}}
	case rule.CustomUseRule:
		p.NoMatchTags = append(p.NoMatchTags, path)
	default:
		return &ConfigError{Reason: fmt.Sprintf("invalid custom_metadata_action %q", rules.DICOM.CustomMetadataAction)}
	}
	return nil
}

// lookupDICOMRule resolves a rule by the tag's DICOM keyword first, falling
// back to its (gggg,eeee) string form, per §4.8.
func lookupDICOMRule(t tag.Tag, rules rule.Set) (rule.MetadataRule, bool) {
	if kw := t.Keyword(); kw != "" {
		if mr, ok := rules.DICOM.Metadata[kw]; ok {
			return mr, true
		}
	}
	mr, ok := rules.DICOM.Metadata[tagPathString(t)]
	return mr, ok
}

func tagPathString(t tag.Tag) string {
	return fmt.Sprintf("%04x,%04x", t.Group, t.Element)
}

func sortedTags(ds *dicos.Dataset) []tag.Tag {
	tags := make([]tag.Tag, 0, len(ds.Elements))
	for t := range ds.Elements {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Group != tags[j].Group {
			return tags[i].Group < tags[j].Group
		}
		return tags[i].Element < tags[j].Element
	})
	return tags
}
