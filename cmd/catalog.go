package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/archivelab/docmeta/internal/model"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the configured model catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := buildCatalog()
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cat.Profiles())
		}

		formatCatalog(os.Stdout, cat.Profiles())
		return nil
	},
}

// formatCatalog writes a tabular view of the catalog to w.
func formatCatalog(out io.Writer, profiles []model.ModelProfile) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPROVIDER\tMODEL\tLATENCY\tACCURACY\tCOST\tFIELDS")
	_, _ = fmt.Fprintln(w, "----\t--------\t-----\t-------\t--------\t----\t------")

	for _, p := range profiles {
		fields := "all"
		if len(p.Tags) > 0 {
			fields = strings.Join(p.Tags, ",")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			p.Name, p.Provider, p.Model, p.Latency, p.Accuracy, p.CostWeight, fields)
	}
	_ = w.Flush()
}

func init() {
	catalogCmd.Flags().Bool("json", false, "print the catalog as JSON")
	rootCmd.AddCommand(catalogCmd)
}
