// Package plan builds and executes the per-file redaction decision set:
// which action applies to every metadata element, associated image, and
// (for SVS) description key in a container, and the traversal/execution
// logic that carries those decisions out.
package plan

import (
	"encoding/binary"

	"github.com/garyhouston/tiff66"

	"github.com/clinical-imaging/slideredact/pkg/dicos"
	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/tiffmeta"
	"github.com/clinical-imaging/slideredact/pkg/uidmap"
)

// Format names which container family a plan was built for.
type Format string

const (
	FormatTIFF  Format = "tiff"
	FormatSVS   Format = "svs"
	FormatDICOM Format = "dicom"
)

// ElementID identifies one TIFF/SVS metadata element: the IFD it lives in
// plus its tag id. Two IFDs commonly share a tag id (e.g. ImageDescription
// on both the primary and a thumbnail IFD), so the tag alone is not a
// unique key within a file.
type ElementID struct {
	IFD tiffmeta.NodeID
	Tag tiff66.Tag
}

// TIFFPlan is the resolved decision set for a baseline TIFF or SVS file.
// SVS-only fields (DescriptionSteps, NoMatchDescriptionKeys) are empty for
// a plain TIFF plan.
type TIFFPlan struct {
	ImagePath string
	Format    Format

	Root  *tiff66.IFDNode
	Order binary.ByteOrder
	Nodes []*tiff66.IFDNode
	IDs   map[*tiff66.IFDNode]tiffmeta.NodeID

	MetadataSteps        map[ElementID]rule.MetadataRule
	AssociatedImageSteps map[tiffmeta.NodeID]rule.ImageRule

	// DescriptionIFD is the node carrying the SVS description entry that
	// DescriptionSteps resolves against (always the document's first
	// IFD). Nil for a plain TIFF plan.
	DescriptionIFD  *tiff66.IFDNode
	DescriptionTag  tiff66.Tag
	DescriptionSteps map[string]rule.MetadataRule

	NoMatchTags            []string
	NoMatchDescriptionKeys []string
}

// Comprehensive reports whether every element in the plan has a recorded
// action: the invariant that gates whether the plan is allowed to execute.
func (p *TIFFPlan) Comprehensive() bool {
	return len(p.NoMatchTags) == 0 && len(p.NoMatchDescriptionKeys) == 0
}

// DICOMPlan is the resolved decision set for a DICOM WSI instance.
type DICOMPlan struct {
	ImagePath string

	Dataset *dicos.Dataset
	UIDMap  *uidmap.Map

	// ImageType is the third component of the dataset's ImageType
	// (OVERVIEW/VOLUME/THUMBNAIL/LABEL), lowercased, used to key
	// AssociatedImageRule.
	ImageType string

	// AssociatedImageRule is the resolved rule for this instance's own
	// classification; if its action is Delete, the file is skipped on
	// save entirely rather than written.
	AssociatedImageRule rule.ImageRule

	// MetadataSteps maps each element's dotted tag path (e.g.
	// "0010,0010" or a sequence item's "0040,0560[0]/0040,0551") to its
	// resolved rule, so that elements nested inside distinct sequence
	// items never collide.
	MetadataSteps map[string]rule.MetadataRule

	NoMatchTags []string

	// ValidationWarnings carries the advisory messages from validating the
	// source dataset against the modules a WSI instance is expected to
	// carry. Redaction proceeds regardless; this is for audit output only.
	ValidationWarnings []string
}

// Comprehensive reports whether every element in the plan has a recorded
// action.
func (p *DICOMPlan) Comprehensive() bool {
	return len(p.NoMatchTags) == 0
}
