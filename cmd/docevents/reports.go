package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/docevents/pkg/docevents"
	"github.com/randalmurphal/docevents/pkg/docevents/report"
)

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Query stored usage reports",
	}
	cmd.AddCommand(reportsListCmd())
	cmd.AddCommand(reportsShowCmd())
	return cmd
}

func reportsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports for a document or a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			documentID, _ := cmd.Flags().GetString("document")
			productName, _ := cmd.Flags().GetString("product")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			if (documentID == "") == (productName == "") {
				return errors.New("exactly one of --document or --product is required")
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			var reports []*report.Report
			if documentID != "" {
				reports, err = store.ListByDocument(cmd.Context(), documentID)
			} else {
				reports, err = store.ListByProduct(cmd.Context(), productName, limit)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			return writeTable(cmd.OutOrStdout(), reports)
		},
	}

	cmd.Flags().StringP("document", "d", "", "Document ID")
	cmd.Flags().StringP("product", "p", "", "Product name")
	cmd.Flags().IntP("limit", "n", 20, "Maximum results for --product")
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func reportsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			r, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("report %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}
}

func openStore(cmd *cobra.Command) (report.Store, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	return docevents.OpenStore(s.Store)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, reports []*report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOCUMENT\tPRODUCT\tTOTAL\tCREATED\tCOUNTS")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.DocumentID, r.Product, r.Total, r.CreatedAt.Format(time.RFC3339), formatCounts(r.Counts))
	}
	return tw.Flush()
}

// formatCounts renders counts as "type=n" pairs sorted by type.
func formatCounts(counts map[string]int) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)

	out := ""
	for i, t := range types {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", t, counts[t])
	}
	return out
}
