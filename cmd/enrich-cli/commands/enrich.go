package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const enrichTimeout = 5 * time.Minute

var enrichCmd = &cobra.Command{
	Use:   "enrich <mpn> <manufacturer>",
	Short: "Enrich a single part and print the result as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	mpn, manufacturer := args[0], args[1]

	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), enrichTimeout)
	defer cancel()

	color.New(color.FgCyan).Fprintf(os.Stderr, "Enriching %s (%s)...\n", mpn, manufacturer)

	final, err := app.pipeline.Enrich(ctx, mpn, manufacturer)
	if err != nil {
		return err
	}

	if final.Usable {
		color.New(color.FgGreen).Fprintf(os.Stderr, "✓ usable, confidence %.2f\n", final.Confidence)
	} else {
		color.New(color.FgYellow).Fprintf(os.Stderr, "✗ not usable (%s), confidence %.2f\n", final.FailureReason, final.Confidence)
	}

	out, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
