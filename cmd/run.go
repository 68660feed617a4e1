package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"labtest.dev/pkg/labtest/internal/domain"
	m "labtest.dev/pkg/labtest/internal/model"
)

var runCategoryFlag string
var runPlatformFlag string
var runNameFlag string
var runParallelFlag bool
var runMaxJobsFlag int
var runCoverageFlag bool
var runReportFlag bool
var runTimeoutFlag time.Duration

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Run generated Pester test suites",
		Long: `Discover generated .Tests.ps1 files under the given path (default: current
directory), filter by category, platform or name, and execute them via
pwsh. Platform-incompatible tests are reported as skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Empty flags mean no filter; parsing would coerce them to
			// unknown/cross-platform.
			var category m.Category
			if runCategoryFlag != "" {
				category = m.ParseCategory(runCategoryFlag)
			}

			var platform m.Platform
			if runPlatformFlag != "" {
				platform = m.ParsePlatform(runPlatformFlag)
			}

			timeout := runTimeoutFlag
			if timeout <= 0 {
				timeout = time.Duration(viper.GetInt64(runTimeoutConfigKey)) * time.Second
			}

			return workflow.Run(cmd.Context(), domain.RunArgs{
				Root:     singlePath(args, "."),
				Category: category,
				Platform: platform,
				NameGlob: runNameFlag,
				Parallel: viper.GetBool(runParallelConfigKey),
				MaxJobs:  viper.GetInt(runMaxJobsConfigKey),
				Timeout:  timeout,
				Coverage: runCoverageFlag,
				Report:   runReportFlag,
				Reports:  reportsPath(),
			})
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runCategoryFlag, categoryFlagName, "c", "", "only run tests for scripts of this category (installer, feature, service, configuration, maintenance)")
	cmd.Flags().StringVar(&runPlatformFlag, platformFlagName, "", "run as this platform instead of the host (windows, linux, macos)")
	cmd.Flags().StringVarP(&runNameFlag, nameFlagName, "n", "", "only run test files whose base name matches this glob")
	cmd.Flags().BoolVarP(&runParallelFlag, parallelFlagName, "p", viper.GetBool(runParallelConfigKey), "run test files in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), runParallelConfigKey)
	cmd.Flags().IntVarP(&runMaxJobsFlag, maxJobsFlagName, "j", viper.GetInt(runMaxJobsConfigKey), "maximum parallel workers (default: number of CPUs)")
	bindFlagToConfig(cmd.Flags().Lookup(maxJobsFlagName), runMaxJobsConfigKey)
	cmd.Flags().BoolVar(&runCoverageFlag, coverageFlagName, false, "collect Pester code coverage artifacts")
	cmd.Flags().BoolVarP(&runReportFlag, reportFlagName, "r", false, "write HTML and JSON reports to the output directory")
	cmd.Flags().DurationVarP(&runTimeoutFlag, timeoutFlagName, "t", 0, "per-file execution timeout (default from config, 5m)")
}
