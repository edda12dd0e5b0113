package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CommandFile mirrors the batch-relevant CLI flags for non-interactive
// invocation via --command-file, per §6. input_paths is the only
// mandatory field; everything else defaults the same way its matching
// flag does when absent.
type CommandFile struct {
	InputPaths    []string `yaml:"input_paths"`
	OutputDir     string   `yaml:"output_dir"`
	OverrideRules string   `yaml:"override_rules"`
	Profile       string   `yaml:"profile"`
	Recursive     bool     `yaml:"recursive"`
	Rename        bool     `yaml:"rename"`
	Index         int      `yaml:"index"`
}

// LoadCommandFile reads and decodes a command file.
func LoadCommandFile(path string) (CommandFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CommandFile{}, fmt.Errorf("reading command file %s: %w", path, err)
	}
	cf := CommandFile{Rename: true}
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return CommandFile{}, fmt.Errorf("decoding command file %s: %w", path, err)
	}
	if len(cf.InputPaths) == 0 {
		return CommandFile{}, fmt.Errorf("command file %s: input_paths is required", path)
	}
	return cf, nil
}

// LoadFileList reads a plain newline-delimited list of input paths, the
// format accepted by --file-list. Blank lines are ignored.
func LoadFileList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file list %s: %w", path, err)
	}
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file list %s: %w", path, err)
	}
	return paths, nil
}
