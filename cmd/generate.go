package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"labtest.dev/pkg/labtest/internal/domain"
	m "labtest.dev/pkg/labtest/internal/model"
)

var generateForceFlag bool
var generateWatchFlag bool
var generatePollFlag time.Duration
var generateTestsDirFlag string

// generateCmd represents the generate command.
var generateCmd = newGenerateCmd()

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate Pester test skeletons for runner scripts",
		Long: `Generate .Tests.ps1 skeletons for a script or a directory of scripts.
Existing test files are left untouched unless --force is given; --watch
keeps regenerating as scripts change.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Generate(cmd.Context(), domain.GenerateArgs{
				Source:       singlePath(args, "."),
				OutputDir:    m.Path(viper.GetString(testsDirConfigKey)),
				Reports:      reportsPath(),
				Force:        generateForceFlag,
				Watch:        generateWatchFlag,
				PollInterval: generatePollFlag,
			})
		},
	}

	configureGenerateFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func configureGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&generateForceFlag, forceFlagName, "f", false, "overwrite existing test files (prints a diff)")
	cmd.Flags().BoolVarP(&generateWatchFlag, watchFlagName, "w", false, "watch for script changes and regenerate")
	cmd.Flags().DurationVar(&generatePollFlag, pollIntervalFlagName, 0, "use polling instead of fsnotify with this interval (e.g. 2s)")
	cmd.Flags().StringVar(&generateTestsDirFlag, testsDirFlagName, viper.GetString(testsDirConfigKey), "directory for generated tests (default: next to each script)")
	bindFlagToConfig(cmd.Flags().Lookup(testsDirFlagName), testsDirConfigKey)
}
