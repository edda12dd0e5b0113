package rule

import "fmt"

// ErrDICOMStrictUnsupported is returned by Merge when an override requests
// strict redaction for DICOM, which the engine cannot guarantee is complete.
var ErrDICOMStrictUnsupported = fmt.Errorf("strict redaction is not currently supported for DICOM images")

// Merge layers override onto base and returns the flattened table a plan
// builder consults. Callers never inspect base/override directly after
// this call.
//
// Non-strict: override entries overlay base entries key-by-key, in every
// table (TIFF/SVS metadata, SVS image_description, associated_images, and
// the DICOM table). CustomMetadataAction from override replaces base's if
// the override set one.
//
// Strict (override.Strict == true): override's per-format tables replace
// base's wholesale. SVS's description layer is dropped entirely (the file
// is treated as plain TIFF). DICOM strict is a hard configuration error.
func Merge(base, override Set) (Set, error) {
	if override.Strict && override.DICOM.hasAnyRule() {
		return Set{}, ErrDICOMStrictUnsupported
	}

	merged := New(base.Name)
	merged.Description = base.Description
	merged.OutputFileNameBase = firstNonEmpty(override.OutputFileNameBase, base.OutputFileNameBase)
	merged.Strict = override.Strict

	if override.Strict {
		merged.TIFF = cloneTIFFRules(override.TIFF)
		merged.SVS = SVSRules{
			TIFFRules:        cloneTIFFRules(override.TIFF),
			ImageDescription: map[string]MetadataRule{},
		}
		merged.DICOM = emptyDICOMRules()
		return merged, nil
	}

	merged.TIFF = overlayTIFF(base.TIFF, override.TIFF)
	merged.SVS = overlaySVS(base.SVS, override.SVS)
	merged.DICOM = overlayDICOM(base.DICOM, override.DICOM)
	return merged, nil
}

func (d DICOMRules) hasAnyRule() bool {
	return len(d.Metadata) > 0 || len(d.AssociatedImages) > 0 || d.CustomMetadataAction != ""
}

func overlayTIFF(base, override TIFFRules) TIFFRules {
	out := emptyTIFFRules()
	overlayMetadata(out.Metadata, base.Metadata, override.Metadata)
	overlayImages(out.AssociatedImages, base.AssociatedImages, override.AssociatedImages)
	return out
}

func overlaySVS(base, override SVSRules) SVSRules {
	out := emptySVSRules()
	out.TIFFRules = overlayTIFF(base.TIFFRules, override.TIFFRules)
	overlayMetadata(out.ImageDescription, base.ImageDescription, override.ImageDescription)
	return out
}

func overlayDICOM(base, override DICOMRules) DICOMRules {
	out := emptyDICOMRules()
	overlayMetadata(out.Metadata, base.Metadata, override.Metadata)
	overlayImages(out.AssociatedImages, base.AssociatedImages, override.AssociatedImages)
	out.CustomMetadataAction = base.CustomMetadataAction
	if override.CustomMetadataAction != "" {
		out.CustomMetadataAction = override.CustomMetadataAction
	}
	return out
}

func overlayMetadata(dst, base, override map[string]MetadataRule) {
	for k, v := range base {
		dst[k] = v
	}
	for k, v := range override {
		dst[k] = v
	}
}

func overlayImages(dst, base, override map[string]ImageRule) {
	for k, v := range base {
		dst[k] = v
	}
	for k, v := range override {
		dst[k] = v
	}
}

func cloneTIFFRules(src TIFFRules) TIFFRules {
	out := emptyTIFFRules()
	for k, v := range src.Metadata {
		out.Metadata[k] = v
	}
	for k, v := range src.AssociatedImages {
		out.AssociatedImages[k] = v
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
