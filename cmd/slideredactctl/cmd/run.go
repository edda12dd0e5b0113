package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinical-imaging/slideredact/pkg/batch"
)

// NewRunCmd builds the "run" subcommand: resolves a rule set, enumerates
// input files, and redacts every candidate via pkg/batch.Driver.
func NewRunCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [input-paths...]",
		Short: "redact PHI from one or more whole-slide image files",
		Long:  "run builds a redaction plan for every input file and executes it, writing redacted output, a CSV manifest, and (if any input is incomprehensible) a quarantine tree with a failure manifest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := runConfigFromFlags(cmd, args)
			if err != nil {
				return err
			}

			d := batch.NewDriver(nil)
			summary, err := d.Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("batch run failed: %w", err)
			}

			fmt.Printf("redacted %d file(s), %d failed\n", summary.Succeeded, summary.Failed)
			fmt.Printf("output: %s\n", summary.OutputDir)
			fmt.Printf("manifest: %s\n", summary.ManifestPath)
			if summary.FailureManifest != "" {
				fmt.Printf("failure manifest: %s\n", summary.FailureManifest)
			}
			return nil
		},
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	pf := cmd.Flags()
	pf.String("override-rules", "", "path to a YAML rule file layered on top of --profile")
	pf.String("profile", "default", "built-in rule profile (default|strict|dates)")
	pf.Bool("recursive", false, "descend into subdirectories of any directory input path")
	pf.String("output-dir", ".", "directory under which Redacted_<timestamp>/ and Failed_<timestamp>/ are created")
	pf.Bool("rename", true, "rename output files to <output_file_name_base>_<index>.<ext>")
	pf.Bool("skip-rename", false, "keep each output file's original basename (overrides --rename)")
	pf.Bool("overwrite-existing-output", false, "overwrite an output file that already exists")
	pf.Int("index", 0, "starting index for renamed output files")
	pf.String("command-file", "", "YAML file mirroring these flags, for non-interactive invocation")
	pf.String("file-list", "", "newline-delimited file of input paths, added to any positional arguments")
}

// runConfigFromFlags resolves cmd's flags (and, if set, --command-file and
// --file-list) into a batch.RunConfig.
func runConfigFromFlags(cmd *cobra.Command, args []string) (batch.RunConfig, error) {
	commandFilePath, _ := cmd.Flags().GetString("command-file")
	if commandFilePath != "" {
		return runConfigFromCommandFile(commandFilePath)
	}

	fileListPath, _ := cmd.Flags().GetString("file-list")
	inputPaths := append([]string{}, args...)
	if fileListPath != "" {
		listed, err := batch.LoadFileList(fileListPath)
		if err != nil {
			return batch.RunConfig{}, err
		}
		inputPaths = append(inputPaths, listed...)
	}
	if len(inputPaths) == 0 {
		return batch.RunConfig{}, fmt.Errorf("no input paths given: pass files/directories, --file-list, or --command-file")
	}

	profileName, _ := cmd.Flags().GetString("profile")
	overridePath, _ := cmd.Flags().GetString("override-rules")
	rules, err := resolveRules(profileName, overridePath)
	if err != nil {
		return batch.RunConfig{}, err
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	rename, _ := cmd.Flags().GetBool("rename")
	skipRename, _ := cmd.Flags().GetBool("skip-rename")
	overwrite, _ := cmd.Flags().GetBool("overwrite-existing-output")
	index, _ := cmd.Flags().GetInt("index")

	return batch.RunConfig{
		InputPaths:        inputPaths,
		OutputDir:         outputDir,
		Rules:             rules,
		ProfileName:       profileName,
		OverrideRulesPath: overridePath,
		Recursive:         recursive,
		Rename:            rename && !skipRename,
		Overwrite:         overwrite,
		Index:             index,
	}, nil
}

func runConfigFromCommandFile(path string) (batch.RunConfig, error) {
	cf, err := batch.LoadCommandFile(path)
	if err != nil {
		return batch.RunConfig{}, err
	}
	rules, err := resolveRules(cf.Profile, cf.OverrideRules)
	if err != nil {
		return batch.RunConfig{}, err
	}
	return batch.RunConfig{
		InputPaths:        cf.InputPaths,
		OutputDir:         cf.OutputDir,
		Rules:             rules,
		ProfileName:       cf.Profile,
		OverrideRulesPath: cf.OverrideRules,
		Recursive:         cf.Recursive,
		Rename:            cf.Rename,
		Index:             cf.Index,
	}, nil
}
