package rule

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlAction is the wire shape of a rule's action field: a discriminator
// plus whichever payload fields that variant needs. Unknown Action values
// are a validation error rather than a silent default, per the rule
// loader's "reject unknown actions" contract.
type yamlAction struct {
	Action string    `yaml:"action"`
	Value  yaml.Node `yaml:"value"`
	Kind   string    `yaml:"kind"`
	Count  int       `yaml:"count"`
}

func (a yamlAction) toAction() (Action, error) {
	switch a.Action {
	case "keep":
		return Keep{}, nil
	case "delete":
		return Delete{}, nil
	case "empty":
		return Empty{}, nil
	case "replace_uid":
		return ReplaceUID{}, nil
	case "replace_dummy":
		return ReplaceDummy{}, nil
	case "modify_date":
		return ModifyDate{}, nil
	case "replace":
		var v any
		if err := a.Value.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding replace value: %w", err)
		}
		return Replace{Value: v}, nil
	case "check_type":
		if a.Kind == "" {
			return nil, fmt.Errorf("check_type: missing required 'kind' field")
		}
		return CheckType{Kind: Kind(a.Kind), Count: a.Count}, nil
	case "":
		return nil, fmt.Errorf("rule entry missing required 'action' field")
	default:
		return nil, fmt.Errorf("unknown rule action %q", a.Action)
	}
}

// yamlMetadataRule is a MetadataRule before its KeyName has been filled in
// from the enclosing map key.
type yamlMetadataRule struct {
	inner yamlAction
}

func (r *yamlMetadataRule) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&r.inner)
}

type yamlImageRule struct {
	inner yamlAction
}

func (r *yamlImageRule) UnmarshalYAML(node *yaml.Node) error {
	return node.Decode(&r.inner)
}

type yamlTIFFRules struct {
	Metadata         map[string]yamlMetadataRule `yaml:"metadata"`
	AssociatedImages map[string]yamlImageRule    `yaml:"associated_images"`
}

type yamlSVSRules struct {
	yamlTIFFRules    `yaml:",inline"`
	ImageDescription map[string]yamlMetadataRule `yaml:"image_description"`
}

type yamlDICOMRules struct {
	Metadata             map[string]yamlMetadataRule `yaml:"metadata"`
	AssociatedImages     map[string]yamlImageRule    `yaml:"associated_images"`
	CustomMetadataAction string                      `yaml:"custom_metadata_action"`
}

type yamlSet struct {
	Name               string         `yaml:"name"`
	Description        string         `yaml:"description"`
	OutputFileNameBase string         `yaml:"output_file_name_base"`
	Strict             bool           `yaml:"strict"`
	TIFF               yamlTIFFRules  `yaml:"tiff"`
	SVS                yamlSVSRules   `yaml:"svs"`
	DICOM              yamlDICOMRules `yaml:"dicom"`
}

// Decode parses a rule file (or bundled profile) from YAML bytes into a
// validated Set. Every action is checked against the closed variant set;
// an unrecognized action value fails the whole decode.
func Decode(data []byte) (Set, error) {
	var y yamlSet
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Set{}, fmt.Errorf("parsing rule file: %w", err)
	}

	set := New(y.Name)
	set.Description = y.Description
	set.OutputFileNameBase = y.OutputFileNameBase
	set.Strict = y.Strict

	var err error
	if set.TIFF.Metadata, err = toMetadataRules(y.TIFF.Metadata); err != nil {
		return Set{}, fmt.Errorf("tiff.metadata: %w", err)
	}
	if set.TIFF.AssociatedImages, err = toImageRules(y.TIFF.AssociatedImages); err != nil {
		return Set{}, fmt.Errorf("tiff.associated_images: %w", err)
	}

	svsMeta, err := toMetadataRules(y.SVS.Metadata)
	if err != nil {
		return Set{}, fmt.Errorf("svs.metadata: %w", err)
	}
	svsImages, err := toImageRules(y.SVS.AssociatedImages)
	if err != nil {
		return Set{}, fmt.Errorf("svs.associated_images: %w", err)
	}
	set.SVS.TIFFRules = TIFFRules{Metadata: svsMeta, AssociatedImages: svsImages}
	if set.SVS.ImageDescription, err = toMetadataRules(y.SVS.ImageDescription); err != nil {
		return Set{}, fmt.Errorf("svs.image_description: %w", err)
	}

	if set.DICOM.Metadata, err = toMetadataRules(y.DICOM.Metadata); err != nil {
		return Set{}, fmt.Errorf("dicom.metadata: %w", err)
	}
	if set.DICOM.AssociatedImages, err = toImageRules(y.DICOM.AssociatedImages); err != nil {
		return Set{}, fmt.Errorf("dicom.associated_images: %w", err)
	}
	switch CustomMetadataAction(y.DICOM.CustomMetadataAction) {
	case "", CustomKeep, CustomDelete, CustomUseRule:
		set.DICOM.CustomMetadataAction = CustomMetadataAction(y.DICOM.CustomMetadataAction)
	default:
		return Set{}, fmt.Errorf("dicom.custom_metadata_action: invalid value %q", y.DICOM.CustomMetadataAction)
	}

	return set, nil
}

func toMetadataRules(src map[string]yamlMetadataRule) (map[string]MetadataRule, error) {
	out := make(map[string]MetadataRule, len(src))
	for key, yr := range src {
		action, err := yr.inner.toAction()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = MetadataRule{KeyName: key, Action: action}
	}
	return out, nil
}

func toImageRules(src map[string]yamlImageRule) (map[string]ImageRule, error) {
	out := make(map[string]ImageRule, len(src))
	for key, yr := range src {
		action, err := yr.inner.toAction()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = ImageRule{Action: action}
	}
	return out, nil
}
