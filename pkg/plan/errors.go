package plan

import "fmt"

// ErrUnsupportedFormat is returned when the sniffer recognizes neither
// TIFF nor DICOM for an input file.
var ErrUnsupportedFormat = fmt.Errorf("unsupported file format")

// MalformedAperioFileError is raised when an SVS file's first IFD has no
// ImageDescription tag, per §4.6: the description layer cannot be
// resolved without it, so the file is rejected rather than silently
// treated as plain TIFF.
type MalformedAperioFileError struct {
	Path string
}

func (e *MalformedAperioFileError) Error() string {
	return fmt.Sprintf("%s: malformed Aperio SVS file: first IFD has no ImageDescription", e.Path)
}

// UnsupportedFileTypeError is raised for hard-unsupported TIFF flavors
// (ImageJ, NDPI) detected during plan building.
type UnsupportedFileTypeError struct {
	Reason string
}

func (e *UnsupportedFileTypeError) Error() string {
	return e.Reason
}

// IncomprehensiveError marks a plan that has at least one element with no
// matching rule. Per §7, this is the only correctness-preserving failure:
// the file is quarantined rather than written with unredacted unknowns.
type IncomprehensiveError struct {
	NoMatchTags             []string
	NoMatchDescriptionKeys  []string
}

func (e *IncomprehensiveError) Error() string {
	return fmt.Sprintf("plan is not comprehensive: %d unmatched tags, %d unmatched description keys",
		len(e.NoMatchTags), len(e.NoMatchDescriptionKeys))
}

// ConfigError marks a batch-fatal configuration problem: strict
// redaction requested for DICOM, or a custom_metadata_action value the
// DICOM builder does not recognize. A use_rule element with no matching
// DICOM rule is recorded as a no-match instead.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}
