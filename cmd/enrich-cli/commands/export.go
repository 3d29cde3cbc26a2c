package commands

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "List the cached datasheets and images recorded in the manifest",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}
	defer app.Close()

	manifest, err := app.store.Manifest()
	if err != nil {
		return err
	}
	if len(manifest) == 0 {
		color.New(color.FgYellow).Fprintln(os.Stderr, "manifest is empty")
		return nil
	}

	mpns := make([]string, 0, len(manifest))
	for mpn := range manifest {
		mpns = append(mpns, mpn)
	}
	sort.Strings(mpns)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MPN\tPDF\tIMAGE\tDATASHEET URL")
	for _, mpn := range mpns {
		e := manifest[mpn]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mpn, e.PDFPath, e.ImagePath, e.DatasheetURL)
	}
	return w.Flush()
}
