package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sheetsql/internal/diff"
	"sheetsql/internal/session"
)

func newCompareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <workbook.xlsx> <region|range>",
		Short: "Compare a region with an existing table before appending to it",
		Long: `Compare loads the table named by --table, infers the table the region
would become and prints the differences between the two. It then maps the
region onto the table the way export --append would and reports every column
whose values may not store cleanly. Nothing is written.

Examples:
  sheetsql compare orders.xlsx Orders --table orders
  sheetsql compare orders.xlsx Orders --table orders --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			opts := a.exportOptions(cmd)
			if opts.TableName == "" {
				return fmt.Errorf("--table is required")
			}
			opts.MappingName, _ = cmd.Flags().GetString("mapping")

			wb, err := openWorkbook(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()
			region, err := resolveRegion(wb, args[1])
			if err != nil {
				return err
			}
			store, err := a.mappings()
			if err != nil {
				return err
			}
			gw, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeGateway(gw)
			opts.Schema = a.cfg.Connection.Schema

			s, err := session.NewExportSession(a.env(gw, wb, store), region, opts)
			if err != nil {
				return err
			}
			c, err := s.Compare(ctx)
			if err != nil {
				return err
			}

			if a.format == "json" {
				b, err := json.MarshalIndent(map[string]any{
					"diff":    c.Diff,
					"mapping": c.Mapping,
					"issues":  c.Issues,
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(b))
			} else {
				fmt.Print(c.Diff.String())
				fmt.Println()
				fmt.Print(diff.FormatIssues(c.Issues))
			}
			if diff.HasBreaking(c.Issues) {
				return fmt.Errorf("region does not fit %s", c.Existing.QualifiedName())
			}
			return nil
		},
	}
	exportFlags(cmd)
	cmd.Flags().String("mapping", "", "Saved column mapping to try first")
	return cmd
}
