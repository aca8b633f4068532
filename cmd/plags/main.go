package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "plags",
	Short: "plags - programming exercise master build tool",
	Long: `plags converts annotated master notebooks describing programming
exercises into the derived course artifacts: student submission forms,
instructor answer keys, bundled course-unit notebooks, and the autograder
configuration archive.

A master notebook is segmented into schema-validated fields by
***CONTENT_TYPE: FIELD*** marker cells. Any schema violation aborts the
whole run; the tool is a curated-content build step with no
warning-and-continue mode.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging (segmentation traces)")
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(releaseCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
