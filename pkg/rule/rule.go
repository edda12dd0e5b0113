package rule

// MetadataRule is the resolved action for one metadata key, whether the key
// names a TIFF tag, an SVS description key, or a DICOM keyword/(gggg,eeee)
// pair. KeyName is populated from the rule file's map key rather than
// carried redundantly in the file itself.
type MetadataRule struct {
	KeyName string
	Action  Action
}

// ImageRule governs a whole associated image (a non-primary TIFF/SVS IFD,
// or a classified DICOM image type).
type ImageRule struct {
	Action Action
}

// TIFFRules is the per-format rule table for baseline TIFF.
type TIFFRules struct {
	Metadata         map[string]MetadataRule
	AssociatedImages map[string]ImageRule
}

// SVSRules extends TIFFRules with the pipe-delimited description layer
// parsed out of the first IFD's ImageDescription.
type SVSRules struct {
	TIFFRules
	ImageDescription map[string]MetadataRule
}

// CustomMetadataAction governs DICOM elements in an odd (private/vendor)
// group that have no direct rule.
type CustomMetadataAction string

const (
	CustomKeep    CustomMetadataAction = "keep"
	CustomDelete  CustomMetadataAction = "delete"
	CustomUseRule CustomMetadataAction = "use_rule"
)

// DICOMRules is the per-format rule table for DICOM WSI instances.
type DICOMRules struct {
	Metadata             map[string]MetadataRule
	AssociatedImages     map[string]ImageRule
	CustomMetadataAction CustomMetadataAction
}

// Set is a complete, named rule set: a base profile or a user override,
// covering all three container families plus the behavior switches that
// govern how it layers onto another Set.
type Set struct {
	Name               string
	Description        string
	OutputFileNameBase string
	Strict             bool

	TIFF  TIFFRules
	SVS   SVSRules
	DICOM DICOMRules
}

func emptyTIFFRules() TIFFRules {
	return TIFFRules{
		Metadata:         map[string]MetadataRule{},
		AssociatedImages: map[string]ImageRule{},
	}
}

func emptySVSRules() SVSRules {
	return SVSRules{
		TIFFRules:        emptyTIFFRules(),
		ImageDescription: map[string]MetadataRule{},
	}
}

func emptyDICOMRules() DICOMRules {
	return DICOMRules{
		Metadata:         map[string]MetadataRule{},
		AssociatedImages: map[string]ImageRule{},
	}
}

// New returns a Set with every map initialized, ready to be populated by a
// decoder or by Merge.
func New(name string) Set {
	return Set{
		Name:  name,
		TIFF:  emptyTIFFRules(),
		SVS:   emptySVSRules(),
		DICOM: emptyDICOMRules(),
	}
}
