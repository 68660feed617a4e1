package cmd

import (
	"github.com/spf13/cobra"

	"labtest.dev/pkg/labtest/internal/domain"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View a previously generated test report",
		Long:  "View a previously generated test report from the reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return workflow.View(cmd.Context(), domain.ViewArgs{Reports: reportsPath()})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
