package cmd

import (
	"fmt"
	"os"

	"github.com/clinical-imaging/slideredact/pkg/rule"
	"github.com/clinical-imaging/slideredact/pkg/rule/profiles"
)

// resolveRules loads the named built-in profile and, if overridePath is
// non-empty, layers a user-supplied rule file on top of it via rule.Merge.
func resolveRules(profileName, overridePath string) (rule.Set, error) {
	name := profiles.Name(profileName)
	if name == "" {
		name = profiles.Default
	}
	base, err := profiles.Load(name)
	if err != nil {
		return rule.Set{}, fmt.Errorf("loading profile %q: %w", name, err)
	}
	if overridePath == "" {
		return base, nil
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return rule.Set{}, fmt.Errorf("reading override rules %s: %w", overridePath, err)
	}
	override, err := rule.Decode(data)
	if err != nil {
		return rule.Set{}, fmt.Errorf("decoding override rules %s: %w", overridePath, err)
	}
	merged, err := rule.Merge(base, override)
	if err != nil {
		return rule.Set{}, fmt.Errorf("merging override rules %s: %w", overridePath, err)
	}
	return merged, nil
}
