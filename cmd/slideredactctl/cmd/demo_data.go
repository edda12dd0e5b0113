package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewDemoDataCmd builds the "demo-data" subcommand: a narrow stub
// standing in for the original tool's sample-dataset downloader, which
// depends on a hosted sample archive this module has no address for.
func NewDemoDataCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo-data",
		Short: "fetch a sample dataset for trying out redaction (not available in this build)",
		Long:  "demo-data is a named collaborator matching the original tool's sample-dataset downloader; this build has no demo archive wired in, so it reports that rather than fetching anything.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("demo-data: no sample dataset is configured for this build")
		},
	}
	cmd.Flags().String("dest", ".", "directory to download sample files into")
	return cmd
}
