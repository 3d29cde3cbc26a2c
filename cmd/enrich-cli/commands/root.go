// Package commands implements the enrich-cli command tree.
package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "enrich-cli",
	Short: "Product enrichment pipeline for industrial electrical parts",
	Long: `enrich-cli turns (MPN, manufacturer) tuples into catalog-ready product
content: discover product pages, crawl them, extract and normalize the
evidence, and synthesize descriptions with a calibrated confidence score.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		color.NoColor = noColor
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
