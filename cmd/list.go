package cmd

import (
	"github.com/spf13/cobra"

	"labtest.dev/pkg/labtest/internal/domain"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List runner scripts and their classification",
		Long: `Scan a directory for .ps1 runner scripts and print each script's
category, target platform, admin requirement and gating config flag.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.List(cmd.Context(), domain.ListArgs{
				Root: singlePath(args, "."),
			})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
