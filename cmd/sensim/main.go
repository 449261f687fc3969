package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/sensim/internal/logging"
	"github.com/san-kum/sensim/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	theme     string
	// init
	preset string
	force  bool
	// run
	workers         int
	showProgress    bool
	continueOnError bool
	// design
	saveDesign bool
	// show
	maxRows int
	// plot
	plotParam string
	// params
	paramsExport string
	paramsImport string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sensim",
		Short:         "Morris sensitivity analysis for simulation models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(logLevel, logFormat, os.Stderr)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			viz.SetTheme(theme)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default: the experiment's data_dir, else .sensim)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", "color theme")

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a new experiment file",
		Args:  cobra.ExactArgs(1),
		RunE:  initExperiment,
	}
	initCmd.Flags().StringVar(&preset, "preset", "pendulum", "preset to start from")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	designCmd := &cobra.Command{
		Use:   "design [experiment]",
		Short: "generate and print the Morris design",
		Args:  cobra.ExactArgs(1),
		RunE:  showDesign,
	}
	designCmd.Flags().BoolVar(&saveDesign, "save", false, "store the design table")
	designCmd.Flags().IntVar(&maxRows, "rows", 20, "maximum rows to print (0 for all)")

	runCmd := &cobra.Command{
		Use:   "run [experiment]",
		Short: "run every simulation of the design and analyse the results",
		Args:  cobra.ExactArgs(1),
		RunE:  runExperiment,
	}
	runCmd.Flags().IntVar(&workers, "workers", 0, "parallel simulations (default: from the experiment)")
	runCmd.Flags().BoolVar(&showProgress, "progress", false, "show a live progress bar")
	runCmd.Flags().BoolVar(&continueOnError, "continue-on-error", false, "skip failing simulations")
	runCmd.Flags().IntVar(&maxRows, "rows", 20, "maximum result rows to print (0 for all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [experiment]",
		Short: "recompute elementary effects from stored simulation output",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeExperiment,
	}
	analyzeCmd.Flags().IntVar(&maxRows, "rows", 20, "maximum result rows to print (0 for all)")

	generateCmd := &cobra.Command{
		Use:   "generate [experiment] [dir]",
		Short: "write one simulation file per design point",
		Args:  cobra.ExactArgs(2),
		RunE:  generateFiles,
	}

	showCmd := &cobra.Command{
		Use:   "show [table]",
		Short: "print a stored table",
		Args:  cobra.ExactArgs(1),
		RunE:  showTable,
	}
	showCmd.Flags().IntVar(&maxRows, "rows", 20, "maximum rows to print (0 for all)")

	plotCmd := &cobra.Command{
		Use:   "plot [experiment] [year] [variable]",
		Short: "plot convergence of elementary effects over paths",
		Args:  cobra.ExactArgs(3),
		RunE:  plotConvergence,
	}
	plotCmd.Flags().StringVar(&plotParam, "param", "", "plot one parameter in full instead of all as sparklines")

	exportCmd := &cobra.Command{
		Use:     "export-csv [table] [file]",
		Aliases: []string{"export"},
		Short:   "export a stored table to .csv or .json",
		Args:    cobra.ExactArgs(2),
		RunE:    exportTable,
	}

	paramsCmd := &cobra.Command{
		Use:   "params [experiment]",
		Short: "show or edit the parameter table and factor groupings",
		Args:  cobra.ExactArgs(1),
		RunE:  editParams,
	}
	paramsCmd.Flags().StringVar(&paramsExport, "export", "", "write Constants.csv and Parameters.csv to this directory")
	paramsCmd.Flags().StringVar(&paramsImport, "import", "", "read Constants.csv and Parameters.csv from this directory into the experiment")

	tablesCmd := &cobra.Command{
		Use:   "tables",
		Short: "list stored tables",
		RunE:  listTables,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets, models, integrators, engines and themes",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(initCmd, designCmd, runCmd, analyzeCmd, generateCmd, showCmd, plotCmd, exportCmd, paramsCmd, tablesCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
