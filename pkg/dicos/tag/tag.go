// Package tag defines standard DICOM tags used by whole-slide microscopy
// instances.
package tag

// Tag represents a DICOM tag with Group and Element
type Tag struct {
	Group   uint16
	Element uint16
}

// Common comparison and creation functions

// New creates a new Tag
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Equals compares two tags
func (t Tag) Equals(other Tag) bool {
	return t.Group == other.Group && t.Element == other.Element
}

// IsPrivate returns true if this is a private tag (odd group number)
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsGroup0002 returns true if this tag is in the File Meta Information group
func (t Tag) IsGroup0002() bool {
	return t.Group == 0x0002
}

// Standard DICOM Tags - File Meta Information (Group 0002)
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	FileMetaInformationVersion     = Tag{0x0002, 0x0001}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}
	SpecificCharacterSet           = Tag{0x0008, 0x0005}
)

// Patient Module (Group 0010)
var (
	PatientName      = Tag{0x0010, 0x0010}
	PatientID        = Tag{0x0010, 0x0020}
	PatientBirthDate = Tag{0x0010, 0x0030}
	PatientSex       = Tag{0x0010, 0x0040}
	PatientAge       = Tag{0x0010, 0x1010}
	PatientComments  = Tag{0x0010, 0x4000}
)

// General Study Module (Group 0008, 0020)
var (
	StudyDate        = Tag{0x0008, 0x0020}
	StudyTime        = Tag{0x0008, 0x0030}
	AccessionNumber  = Tag{0x0008, 0x0050}
	StudyDescription = Tag{0x0008, 0x1030}
	StudyInstanceUID = Tag{0x0020, 0x000D}
	StudyID          = Tag{0x0020, 0x0010}
)

// General Series Module
var (
	Modality               = Tag{0x0008, 0x0060}
	SeriesInstanceUID      = Tag{0x0020, 0x000E}
	SeriesNumber           = Tag{0x0020, 0x0011}
	InstanceNumber         = Tag{0x0020, 0x0013}
	SeriesDescription      = Tag{0x0008, 0x103E}
	SeriesDate             = Tag{0x0008, 0x0021}
	SeriesTime             = Tag{0x0008, 0x0031}
	PresentationIntentType = Tag{0x0008, 0x0068}
)

// General Equipment Module
var (
	Manufacturer          = Tag{0x0008, 0x0070}
	InstitutionName       = Tag{0x0008, 0x0080}
	StationName           = Tag{0x0008, 0x1010}
	ManufacturerModelName = Tag{0x0008, 0x1090}
	DeviceSerialNumber    = Tag{0x0018, 0x1000}
	SoftwareVersions      = Tag{0x0018, 0x1020}
)

// X-Ray Acquisition Parameters
var (
	KVP           = Tag{0x0018, 0x0060} // Peak kilo voltage output of X-ray generator
	ImageComments = Tag{0x0020, 0x4000} // User-defined comments about image
)

// SOP Common Module
var (
	SOPClassUID          = Tag{0x0008, 0x0016}
	SOPInstanceUID       = Tag{0x0008, 0x0018}
	InstanceCreationDate = Tag{0x0008, 0x0012}
	InstanceCreationTime = Tag{0x0008, 0x0013}
)

// Frame of Reference Module
var (
	FrameOfReferenceUID        = Tag{0x0020, 0x0052}
	PositionReferenceIndicator = Tag{0x0020, 0x1040}
)

// Image Pixel Module (Group 0028)
var (
	SamplesPerPixel           = Tag{0x0028, 0x0002}
	PhotometricInterpretation = Tag{0x0028, 0x0004}
	Rows                      = Tag{0x0028, 0x0010}
	Columns                   = Tag{0x0028, 0x0011}
	BitsAllocated             = Tag{0x0028, 0x0100}
	BitsStored                = Tag{0x0028, 0x0101}
	HighBit                   = Tag{0x0028, 0x0102}
	PixelRepresentation       = Tag{0x0028, 0x0103}
	PixelData                 = Tag{0x7FE0, 0x0010}
	NumberOfFrames            = Tag{0x0028, 0x0008}
)

// CT Image Module
var (
	ImageType                    = Tag{0x0008, 0x0008}
	RescaleIntercept             = Tag{0x0028, 0x1052}
	RescaleSlope                 = Tag{0x0028, 0x1053}
	RescaleType                  = Tag{0x0028, 0x1054}
	WindowCenter                 = Tag{0x0028, 0x1050}
	WindowWidth                  = Tag{0x0028, 0x1051}
	WindowCenterWidthExplanation = Tag{0x0028, 0x1055} // LO - Window explanation
	VOILUTFunction               = Tag{0x0028, 0x1056} // CS - LINEAR, SIGMOID, LINEAR_EXACT
)

// Image Position/Orientation
var (
	ImagePositionPatient    = Tag{0x0020, 0x0032}
	ImageOrientationPatient = Tag{0x0020, 0x0037}
	SliceThickness          = Tag{0x0018, 0x0050}
	SpacingBetweenSlices    = Tag{0x0018, 0x0088}
	PixelSpacing            = Tag{0x0028, 0x0030}
	SliceLocation           = Tag{0x0020, 0x1041}
)

// Content Date/Time
var (
	ContentDate = Tag{0x0008, 0x0023}
	ContentTime = Tag{0x0008, 0x0033}
)

// Sequence delimiters
var (
	Item                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)

// Reference tags used by sequences that point at other instances/series
var (
	ReferencedSOPClassUID    = Tag{0x0008, 0x1150} // UI - Referenced SOP Class
	ReferencedSOPInstanceUID = Tag{0x0008, 0x1155} // UI - Referenced SOP Instance
	ReferencedSeriesSequence = Tag{0x0008, 0x1115} // SQ - Referenced series
	ReferencedImageSequence  = Tag{0x0008, 0x1140} // SQ - Referenced images
)

// VL Whole Slide Microscopy Image Module (Group 0048)
//
// These carry the per-instance optical/tiling geometry that distinguishes a
// whole-slide pyramid level from the OVERVIEW/LABEL/THUMBNAIL associated
// images held in the same series.
var (
	ImagedVolumeWidth          = Tag{0x0048, 0x0001} // FL - mm
	ImagedVolumeHeight         = Tag{0x0048, 0x0002} // FL - mm
	ImagedVolumeDepth          = Tag{0x0048, 0x0003} // FL - mm
	TotalPixelMatrixColumns    = Tag{0x0048, 0x0006} // UL
	TotalPixelMatrixRows       = Tag{0x0048, 0x0007} // UL
	TotalPixelMatrixOriginSequence = Tag{0x0048, 0x0008} // SQ
	FocusMethod                = Tag{0x0048, 0x0301} // CS - AUTO, MANUAL
	ExtendedDepthOfField       = Tag{0x0048, 0x0302} // CS
	NumberOfFocalPlanes        = Tag{0x0048, 0x0303} // US
	DistanceBetweenFocalPlanes = Tag{0x0048, 0x0304} // FL
	RecommendedAbsentPixelCIELabValue = Tag{0x0048, 0x0015} // US
	IlluminatorTypeCode        = Tag{0x0022, 0x0017} // SQ
	OpticalPathSequence        = Tag{0x0048, 0x0105} // SQ
	OpticalPathIdentifier      = Tag{0x0048, 0x0106} // SH
	OpticalPathDescription     = Tag{0x0048, 0x0107} // ST
	ObjectiveLensPower         = Tag{0x0048, 0x0112} // FL
	ConditionsForLensPower     = Tag{0x0048, 0x0113} // SQ
)

// Specimen Module (Group 0040) - identifies the tissue block/sample scanned
var (
	ContainerIdentifier             = Tag{0x0040, 0x0512} // LO
	SpecimenDescriptionSequence     = Tag{0x0040, 0x0560} // SQ
	SpecimenIdentifier              = Tag{0x0040, 0x0551} // LO
	SpecimenUID                     = Tag{0x0040, 0x0554} // UI
	SpecimenShortDescription        = Tag{0x0040, 0x0600} // LO
	SpecimenDetailedDescription     = Tag{0x0040, 0x0602} // UT
	IssuerOfTheContainerIdentifierSequence = Tag{0x0040, 0x0513} // SQ
)

// Slide Coordinates / Label Module
var (
	SlideIdentifier = Tag{0x0040, 0x06FA} // LO
	XOffsetInSlideCoordinateSystem = Tag{0x0040, 0x072A} // DS
	YOffsetInSlideCoordinateSystem = Tag{0x0040, 0x073A} // DS
	BarcodeValue                   = Tag{0x2200, 0x0005} // LT - often embeds the slide/patient label
	LabelText                      = Tag{0x2200, 0x0002} // UT
)

// Whole Slide Microscopy Image general series/equipment tags not already
// covered by the General Equipment Module above.
var (
	AcquisitionDeviceProcessingDescription = Tag{0x0018, 0x1400} // LO
	LossyImageCompressionMethod            = Tag{0x0028, 0x2114} // CS
)

// LookupName returns a human-readable name for common tags
func (t Tag) LookupName() string {
	switch t {
	case PatientName:
		return "PatientName"
	case PatientID:
		return "PatientID"
	case Rows:
		return "Rows"
	case Columns:
		return "Columns"
	case BitsAllocated:
		return "BitsAllocated"
	case PixelData:
		return "PixelData"
	case TransferSyntaxUID:
		return "TransferSyntaxUID"
	case SOPClassUID:
		return "SOPClassUID"
	case Modality:
		return "Modality"
	case NumberOfFrames:
		return "NumberOfFrames"
	default:
		return ""
	}
}

// Keywords maps every tag this package names, except the item and
// delimitation tags, to its DICOM keyword, the
// identifier a rule file's dicom.metadata map key resolves against before
// falling back to the tag's (gggg,eeee) string form. Only tags this module
// has a Go name for appear here; anything else (including odd-group
// private/vendor elements) is addressed purely by its numeric tag.
var Keywords = map[Tag]string{
	FileMetaInformationGroupLength: "FileMetaInformationGroupLength",
	FileMetaInformationVersion:     "FileMetaInformationVersion",
	MediaStorageSOPClassUID:        "MediaStorageSOPClassUID",
	MediaStorageSOPInstanceUID:     "MediaStorageSOPInstanceUID",
	TransferSyntaxUID:              "TransferSyntaxUID",
	ImplementationClassUID:         "ImplementationClassUID",
	ImplementationVersionName:      "ImplementationVersionName",
	SpecificCharacterSet:           "SpecificCharacterSet",

	PatientName:      "PatientName",
	PatientID:        "PatientID",
	PatientBirthDate: "PatientBirthDate",
	PatientSex:       "PatientSex",
	PatientAge:       "PatientAge",
	PatientComments:  "PatientComments",

	StudyDate:        "StudyDate",
	StudyTime:        "StudyTime",
	AccessionNumber:  "AccessionNumber",
	StudyDescription: "StudyDescription",
	StudyInstanceUID: "StudyInstanceUID",
	StudyID:          "StudyID",

	Modality:               "Modality",
	SeriesInstanceUID:      "SeriesInstanceUID",
	SeriesNumber:           "SeriesNumber",
	InstanceNumber:         "InstanceNumber",
	SeriesDescription:      "SeriesDescription",
	SeriesDate:             "SeriesDate",
	SeriesTime:             "SeriesTime",
	PresentationIntentType: "PresentationIntentType",

	Manufacturer:          "Manufacturer",
	InstitutionName:       "InstitutionName",
	StationName:           "StationName",
	ManufacturerModelName: "ManufacturerModelName",
	DeviceSerialNumber:    "DeviceSerialNumber",
	SoftwareVersions:      "SoftwareVersions",

	KVP:           "KVP",
	ImageComments: "ImageComments",

	SOPClassUID:          "SOPClassUID",
	SOPInstanceUID:       "SOPInstanceUID",
	InstanceCreationDate: "InstanceCreationDate",
	InstanceCreationTime: "InstanceCreationTime",

	FrameOfReferenceUID:        "FrameOfReferenceUID",
	PositionReferenceIndicator: "PositionReferenceIndicator",

	SamplesPerPixel:           "SamplesPerPixel",
	PhotometricInterpretation: "PhotometricInterpretation",
	Rows:                      "Rows",
	Columns:                   "Columns",
	BitsAllocated:             "BitsAllocated",
	BitsStored:                "BitsStored",
	HighBit:                   "HighBit",
	PixelRepresentation:       "PixelRepresentation",
	PixelData:                 "PixelData",
	NumberOfFrames:            "NumberOfFrames",

	ImageType:                    "ImageType",
	RescaleIntercept:             "RescaleIntercept",
	RescaleSlope:                 "RescaleSlope",
	RescaleType:                  "RescaleType",
	WindowCenter:                 "WindowCenter",
	WindowWidth:                  "WindowWidth",
	WindowCenterWidthExplanation: "WindowCenterWidthExplanation",
	VOILUTFunction:               "VOILUTFunction",

	ImagePositionPatient:    "ImagePositionPatient",
	ImageOrientationPatient: "ImageOrientationPatient",
	SliceThickness:          "SliceThickness",
	SpacingBetweenSlices:    "SpacingBetweenSlices",
	PixelSpacing:            "PixelSpacing",
	SliceLocation:           "SliceLocation",

	ContentDate: "ContentDate",
	ContentTime: "ContentTime",

	ReferencedSOPClassUID:    "ReferencedSOPClassUID",
	ReferencedSOPInstanceUID: "ReferencedSOPInstanceUID",
	ReferencedSeriesSequence: "ReferencedSeriesSequence",
	ReferencedImageSequence:  "ReferencedImageSequence",

	ImagedVolumeWidth:                 "ImagedVolumeWidth",
	ImagedVolumeHeight:                "ImagedVolumeHeight",
	ImagedVolumeDepth:                 "ImagedVolumeDepth",
	TotalPixelMatrixColumns:           "TotalPixelMatrixColumns",
	TotalPixelMatrixRows:              "TotalPixelMatrixRows",
	TotalPixelMatrixOriginSequence:    "TotalPixelMatrixOriginSequence",
	FocusMethod:                       "FocusMethod",
	ExtendedDepthOfField:              "ExtendedDepthOfField",
	NumberOfFocalPlanes:               "NumberOfFocalPlanes",
	DistanceBetweenFocalPlanes:        "DistanceBetweenFocalPlanes",
	RecommendedAbsentPixelCIELabValue: "RecommendedAbsentPixelCIELabValue",
	IlluminatorTypeCode:               "IlluminatorTypeCode",
	OpticalPathSequence:               "OpticalPathSequence",
	OpticalPathIdentifier:             "OpticalPathIdentifier",
	OpticalPathDescription:            "OpticalPathDescription",
	ObjectiveLensPower:                "ObjectiveLensPower",
	ConditionsForLensPower:            "ConditionsForLensPower",

	ContainerIdentifier:                    "ContainerIdentifier",
	SpecimenDescriptionSequence:             "SpecimenDescriptionSequence",
	SpecimenIdentifier:                      "SpecimenIdentifier",
	SpecimenUID:                             "SpecimenUID",
	SpecimenShortDescription:                "SpecimenShortDescription",
	SpecimenDetailedDescription:             "SpecimenDetailedDescription",
	IssuerOfTheContainerIdentifierSequence:  "IssuerOfTheContainerIdentifierSequence",

	SlideIdentifier:                "SlideIdentifier",
	XOffsetInSlideCoordinateSystem: "XOffsetInSlideCoordinateSystem",
	YOffsetInSlideCoordinateSystem: "YOffsetInSlideCoordinateSystem",
	BarcodeValue:                   "BarcodeValue",
	LabelText:                      "LabelText",

	AcquisitionDeviceProcessingDescription: "AcquisitionDeviceProcessingDescription",
	LossyImageCompressionMethod:            "LossyImageCompressionMethod",
}

var keywordToTag map[string]Tag

func init() {
	keywordToTag = make(map[string]Tag, len(Keywords))
	for t, name := range Keywords {
		keywordToTag[name] = t
	}
}

// Keyword returns t's DICOM keyword, or "" if this package has no name for
// it (odd-group private tags, or standard tags this module doesn't model).
func (t Tag) Keyword() string {
	return Keywords[t]
}

// FromKeyword resolves a DICOM keyword back to its tag.
func FromKeyword(keyword string) (Tag, bool) {
	t, ok := keywordToTag[keyword]
	return t, ok
}
