package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinical-imaging/slideredact/pkg/plan"
	"github.com/clinical-imaging/slideredact/pkg/uidmap"
)

// NewPlanCmd builds the "plan" subcommand: resolves and prints the
// redaction decisions for a single file without writing any output,
// useful for auditing what a rule set would do before running it.
func NewPlanCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <input-file>",
		Short: "print the redaction plan for a single file without executing it",
		Long:  "plan builds a redaction plan for one file and prints its resolved decisions (and any unmatched elements) without writing redacted output.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			profileName, _ := cmd.Flags().GetString("profile")
			overridePath, _ := cmd.Flags().GetString("override-rules")
			rules, err := resolveRules(profileName, overridePath)
			if err != nil {
				return err
			}

			p, format, err := plan.Build(path, data, rules, uidmap.New())
			if err != nil {
				return fmt.Errorf("building plan for %s: %w", path, err)
			}

			printPlan(path, format, p)
			return nil
		},
	}
	pf := cmd.Flags()
	pf.String("override-rules", "", "path to a YAML rule file layered on top of --profile")
	pf.String("profile", "default", "built-in rule profile (default|strict|dates)")
	return cmd
}

func printPlan(path string, format plan.Format, p plan.Plan) {
	fmt.Printf("%s (%s)\n", path, format)
	fmt.Printf("comprehensive: %v\n", p.Comprehensive())

	switch v := p.(type) {
	case *plan.TIFFPlan:
		fmt.Printf("metadata rules resolved: %d\n", len(v.MetadataSteps))
		fmt.Printf("associated image rules resolved: %d\n", len(v.AssociatedImageSteps))
		if len(v.DescriptionSteps) > 0 {
			fmt.Printf("description rules resolved: %d\n", len(v.DescriptionSteps))
		}
		printUnmatched("metadata/image tag", v.NoMatchTags)
		printUnmatched("description key", v.NoMatchDescriptionKeys)
	case *plan.DICOMPlan:
		fmt.Printf("metadata rules resolved: %d\n", len(v.MetadataSteps))
		fmt.Printf("image type: %s\n", v.ImageType)
		printUnmatched("element", v.NoMatchTags)
		for _, msg := range v.ValidationWarnings {
			fmt.Printf("validation: %s\n", msg)
		}
	}
}

func printUnmatched(label string, missing []string) {
	if len(missing) == 0 {
		return
	}
	fmt.Printf("unmatched %s(s):\n", label)
	for _, m := range missing {
		fmt.Printf("  - %s\n", m)
	}
}
