// Package profiles bundles the three built-in rule sets a batch run can
// select with --profile, embedded into the binary so a redaction run never
// depends on files installed alongside it.
package profiles

import (
	"embed"
	"fmt"

	"github.com/clinical-imaging/slideredact/pkg/rule"
)

//go:embed default.yaml strict.yaml dates.yaml
var bundled embed.FS

// Name is one of the three profiles a batch run can select.
type Name string

const (
	Default Name = "default"
	Strict  Name = "strict"
	Dates   Name = "dates"
)

func (n Name) filename() (string, error) {
	switch n {
	case Default:
		return "default.yaml", nil
	case Strict:
		return "strict.yaml", nil
	case Dates:
		return "dates.yaml", nil
	default:
		return "", fmt.Errorf("unknown profile %q", n)
	}
}

// Load reads and decodes the named bundled profile.
func Load(n Name) (rule.Set, error) {
	filename, err := n.filename()
	if err != nil {
		return rule.Set{}, err
	}
	data, err := bundled.ReadFile(filename)
	if err != nil {
		return rule.Set{}, fmt.Errorf("reading bundled profile %s: %w", filename, err)
	}
	set, err := rule.Decode(data)
	if err != nil {
		return rule.Set{}, fmt.Errorf("decoding bundled profile %s: %w", filename, err)
	}
	return set, nil
}
