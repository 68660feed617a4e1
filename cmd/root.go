// Package cmd provides the root command and CLI setup for labtest.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"labtest.dev/pkg/labtest/internal/adapter"
	"labtest.dev/pkg/labtest/internal/controller"
	"labtest.dev/pkg/labtest/internal/domain"
	m "labtest.dev/pkg/labtest/internal/model"
)

var scriptFS adapter.ScriptFSAdapter
var psFile adapter.PSFileAdapter
var reportStore adapter.ReportStore
var testAdapter adapter.TestRunnerAdapter
var analyzer domain.Analyzer
var generator domain.Generator
var scheduler domain.Scheduler
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// verboseFlag lowers the log level to debug.
var verboseFlag bool

// logFileFlag overrides the log file location.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	scriptFS = adapter.NewLocalScriptFSAdapter()
	psFile = adapter.NewLocalPSFileAdapter()
	reportStore = adapter.NewLocalReportStore(scriptFS)
	testAdapter = adapter.NewLocalPesterAdapter()
	analyzer = domain.NewAnalyzer(scriptFS, psFile)
	generator = domain.NewGenerator(scriptFS, analyzer)
	scheduler = domain.NewScheduler(scriptFS, testAdapter, analyzer)
	workflow = domain.NewWorkflow(
		scriptFS,
		reportStore,
		ui,
		analyzer,
		generator,
		scheduler,
		domain.DefaultWatcherFactory,
	)
}

const rootLongDescription = `Labtest generates and runs Pester test suites for PowerShell runner
scripts. It classifies each script by analyzing its source, renders a
category-specific test skeleton with platform-aware mocks, and executes
the generated suites in parallel with aggregated HTML/JSON reporting.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labtest",
		Short: "Pester test generator and runner for PowerShell scripts",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for reports and the test index",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, "", "log file path (default "+defaultLogFilename+")")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func reportsPath() m.Path {
	return m.Path(viper.GetString(outputFlagName))
}

func singlePath(args []string, fallback m.Path) m.Path {
	if len(args) == 0 {
		return fallback
	}

	return m.Path(args[0])
}
