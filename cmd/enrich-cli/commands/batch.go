package commands

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/partly/enrichment-engine/internal/batch"
)

var batchSkipAssets bool

var batchCmd = &cobra.Command{
	Use:   "batch <input.xlsx> <output.xlsx>",
	Short: "Enrich every row of a worksheet and write the catalog workbook",
	Args:  cobra.ExactArgs(2),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().BoolVar(&batchSkipAssets, "skip-assets", false, "do not download datasheets and images")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	inPath, outPath := args[0], args[1]

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	items, err := batch.ReadInput(inPath)
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Fprintf(os.Stderr, "Loaded %d parts from %s\n", len(items), inPath)

	var assets batch.AssetCache
	if !batchSkipAssets {
		assets = app.store
	}
	runner := batch.NewRunner(app.pipeline, assets, app.log)
	runner.Progress = true

	results := runner.Run(cmd.Context(), items)

	usable := 0
	for _, r := range results {
		if r.Usable {
			usable++
		}
	}

	if err := batch.WriteOutput(outPath, results); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(os.Stderr, "✓ %d/%d enriched, %d usable, written to %s\n",
		len(results), len(items), usable, outPath)
	if failed := len(items) - len(results); failed > 0 {
		color.New(color.FgYellow).Fprintf(os.Stderr, "%d parts failed and were skipped\n", failed)
	}
	return nil
}
