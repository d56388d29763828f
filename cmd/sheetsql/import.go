package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sheetsql/internal/output"
	"sheetsql/internal/session"
	"sheetsql/internal/surface"
)

func newImportCmd(a *app) *cobra.Command {
	var anchor string
	var regionName string
	var firstRow int
	var editable bool

	cmd := &cobra.Command{
		Use:   "import <table> <workbook.xlsx>",
		Short: "Copy the rows of a table or view into a workbook region",
		Long: `Import reads a table or view and writes as many rows as fit below the
anchor cell. The workbook is created when it does not exist. With --edit a
hidden snapshot is kept so "sheetsql commit" can later send the changes
made to the region back to the table.

Examples:
  sheetsql import customers book.xlsx
  sheetsql import customers book.xlsx --anchor "Report!B3" --limit 500
  sheetsql import customers book.xlsx --edit`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			i := a.cfg.Import
			opts := session.ImportOptions{
				Region:         regionName,
				AnchorRow:      i.AnchorRow,
				AnchorCol:      1,
				IncludeHeaders: i.IncludeHeaders,
				CreateTable:    i.CreateTable,
				SurfaceMaxRows: i.SurfaceMaxRows,
				FirstRow:       firstRow,
				LimitRows:      i.LimitRows,
				Editable:       editable,
			}
			overrideBool(cmd, "headers", &opts.IncludeHeaders)
			overrideBool(cmd, "create-table", &opts.CreateTable)
			overrideInt(cmd, "limit", &opts.LimitRows)
			if anchor != "" {
				b, err := surface.ParseRange(anchor)
				if err != nil {
					return fmt.Errorf("--anchor: %w", err)
				}
				opts.Sheet, opts.AnchorRow, opts.AnchorCol = b.Sheet, b.Row, b.Col
			}

			wb, err := openWorkbook(args[1])
			if err != nil {
				return err
			}
			defer wb.Close()

			gw, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeGateway(gw)

			s, err := session.NewImportSession(a.env(gw, wb, nil), a.cfg.Connection.Schema, args[0], opts)
			if err != nil {
				return err
			}
			res, err := s.Run(ctx)
			if err != nil {
				return err
			}
			if err := wb.Save(); err != nil {
				return err
			}

			if strings.EqualFold(a.format, string(output.FormatJSON)) {
				data, err := json.MarshalIndent(res.Info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Println(string(data))
			}
			ref, _ := res.Region.Bounds.Ref()
			printInfo(a.format, fmt.Sprintf("Imported %d of %d row(s) from %s into region %s (%s)",
				res.Rows, res.Info.RowsCount, res.Table.QualifiedName(), res.Region.Name, ref))
			if res.Info.RowsCountExceedsLimit {
				printInfo(a.format, fmt.Sprintf("Only %d row(s) fit below the anchor; use --first-row to import the rest", res.Info.MaximumRowsThatFit))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&anchor, "anchor", "", "Top-left cell, e.g. \"Sheet1!B2\" (defaults to a new sheet)")
	cmd.Flags().StringVarP(&regionName, "region", "r", "", "Region name (defaults to the table name)")
	cmd.Flags().Bool("headers", true, "Write column names above the data (overrides import.include_headers)")
	cmd.Flags().Bool("create-table", false, "Format the region as a workbook table (overrides import.create_table)")
	cmd.Flags().IntVar(&firstRow, "first-row", 1, "1-based first row of the result to import")
	cmd.Flags().Int("limit", 0, "Maximum rows to import (overrides import.limit_rows)")
	cmd.Flags().BoolVarP(&editable, "edit", "e", false, "Keep a snapshot so edits can be committed back")
	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "commit <table> <workbook.xlsx> [region]",
		Short: "Send edits made to an imported region back to its table",
		Long: `Commit compares an editable region with the snapshot taken when it was
imported and runs one INSERT, UPDATE or DELETE per changed row. Rows whose
statement fails are listed and stay pending; everything else becomes the new
snapshot.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			region := args[0]
			if len(args) == 3 {
				region = args[2]
			}

			wb, err := surface.OpenWorkbook(args[1])
			if err != nil {
				return err
			}
			defer wb.Close()

			gw, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer a.closeGateway(gw)

			s, err := session.ResumeEdit(ctx, a.env(gw, wb, nil), a.cfg.Connection.Schema, args[0], region)
			if err != nil {
				return err
			}
			s.RefreshAfterCommit = refresh
			res, err := s.Commit(ctx)
			if err != nil {
				return err
			}
			if len(res.Mutations) == 0 {
				printInfo(a.format, "No changes to commit")
				return nil
			}
			if err := wb.Save(); err != nil {
				return err
			}

			f, err := a.formatter()
			if err != nil {
				return err
			}
			formatted, err := f.FormatResults(res.Results)
			if err != nil {
				return err
			}
			fmt.Print(formatted)

			for _, m := range res.Failed {
				a.log.WithField("row", m.RowRef).Warnf("%s not applied: %v", m.Kind, m.Err)
			}
			if len(res.Failed) > 0 {
				return fmt.Errorf("%d of %d change(s) were not applied", len(res.Failed), len(res.Mutations))
			}
			printInfo(a.format, fmt.Sprintf("Committed %d change(s) to %s", len(res.Mutations), s.Table().QualifiedName()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-read the table into the region after a successful commit")
	return cmd
}
