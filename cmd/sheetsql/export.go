package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sheetsql/internal/output"
	"sheetsql/internal/session"
)

// exportFlags registers the flags shared by infer, ddl and export. Their
// defaults come from the [export] section; only flags set on the command
// line override it.
func exportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("table", "t", "", "Table name (defaults to the region or sheet name)")
	cmd.Flags().Bool("header", true, "Use the first row as column names")
	cmd.Flags().Bool("add-pk", false, "Add an auto-increment <table>_id primary key")
	cmd.Flags().String("engine", "", "Storage engine of the new table")
	cmd.Flags().String("charset", "", "Default character set of the new table")
	cmd.Flags().String("collation", "", "Default collation of the new table")
}

func (a *app) exportOptions(cmd *cobra.Command) session.ExportOptions {
	e := a.cfg.Export
	opts := session.ExportOptions{
		Schema:              a.cfg.Connection.Schema,
		UseFirstRowAsHeader: e.UseFirstRowAsHeader,
		AddPrimaryKey:       e.AddPrimaryKey,
		RowsPerInsert:       e.RowsPerInsert,
		Engine:              e.Engine,
		CharacterSet:        e.Charset,
		Collation:           e.Collation,
	}
	opts.TableName, _ = cmd.Flags().GetString("table")
	overrideBool(cmd, "header", &opts.UseFirstRowAsHeader)
	overrideBool(cmd, "add-pk", &opts.AddPrimaryKey)
	overrideString(cmd, "engine", &opts.Engine)
	overrideString(cmd, "charset", &opts.CharacterSet)
	overrideString(cmd, "collation", &opts.Collation)
	return opts
}

// offlineExport opens the workbook and prepares an export session that can
// preview without a database.
func (a *app) offlineExport(cmd *cobra.Command, path, ref string) (*session.ExportSession, func(), error) {
	wb, err := openWorkbook(path)
	if err != nil {
		return nil, nil, err
	}
	region, err := resolveRegion(wb, ref)
	if err != nil {
		_ = wb.Close()
		return nil, nil, err
	}
	s, err := session.NewExportSession(a.env(nil, wb, nil), region, a.exportOptions(cmd))
	if err != nil {
		_ = wb.Close()
		return nil, nil, err
	}
	return s, func() { _ = wb.Close() }, nil
}

func newInferCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer <workbook.xlsx> <region|range>",
		Short: "Show the table a region would become",
		Long: `Infer scans the cells of a region or range and proposes a column name,
type and nullability for every column, without touching the database.

Examples:
  sheetsql infer orders.xlsx Orders
  sheetsql infer orders.xlsx "Sheet1!A1:F200" --table orders --add-pk`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := a.offlineExport(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			defer done()

			if guesses, _ := cmd.Flags().GetBool("guesses"); guesses {
				return a.printGuesses(s)
			}
			t, err := s.Preview()
			if err != nil {
				return err
			}
			ddl, err := a.generator().GenerateCreateTable(t)
			if err != nil {
				return err
			}
			f, err := a.formatter()
			if err != nil {
				return err
			}
			formatted, err := f.FormatTable(t, ddl)
			if err != nil {
				return err
			}
			fmt.Print(formatted)
			return nil
		},
	}
	exportFlags(cmd)
	cmd.Flags().Bool("guesses", false, "Show the header and data interpretations of every column side by side")
	return cmd
}

// printGuesses lists each column as read with and without a header row.
func (a *app) printGuesses(s *session.ExportSession) error {
	res, err := s.Inference()
	if err != nil {
		return err
	}
	if a.format == "json" {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	rows := make([][]string, len(res.HeaderGuesses))
	for i, h := range res.HeaderGuesses {
		d := res.DataGuesses[i]
		rows[i] = []string{
			h.Name,
			h.Type.String(),
			d.Type.String(),
			fmt.Sprintf("%t/%t", h.Consistent, d.Consistent),
			strconv.FormatBool(h.HasBlanks),
		}
	}
	fmt.Print(output.Grid([]string{"Column", "With header", "As data", "Consistent", "Blanks"}, rows))
	return nil
}

func newDDLCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl <workbook.xlsx> <region|range>",
		Short: "Print the CREATE TABLE statement for a region",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, done, err := a.offlineExport(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			defer done()

			ddl, err := s.DDL()
			if err != nil {
				return err
			}
			fmt.Println(ddl + ";")
			return nil
		},
	}
	exportFlags(cmd)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <workbook.xlsx> <region|range>",
		Short: "Create a table from a region, or append a region to a table",
		Long: `Export creates a new table from the inferred layout of a region and
inserts its rows. With --append the rows go into an existing table through a
column mapping: a saved mapping named with --mapping is reused when it fits,
otherwise grid headers are matched against the table's columns.

Examples:
  sheetsql export orders.xlsx Orders --dsn "user:pass@tcp(localhost:3306)/shop"
  sheetsql export orders.xlsx Orders --append --table orders --mapping orders-sheet --save-mapping`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			wb, err := openWorkbook(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()
			region, err := resolveRegion(wb, args[1])
			if err != nil {
				return err
			}

			opts := a.exportOptions(cmd)
			overrideInt(cmd, "rows-per-insert", &opts.RowsPerInsert)
			opts.AppendToExisting, _ = cmd.Flags().GetBool("append")
			opts.MappingName, _ = cmd.Flags().GetString("mapping")
			opts.SaveMapping, _ = cmd.Flags().GetBool("save-mapping")
			if opts.SaveMapping && opts.MappingName == "" {
				return fmt.Errorf("--save-mapping needs --mapping")
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
			res, err := s.Run(ctx)
			if err != nil {
				return err
			}
			for _, sk := range res.Skipped {
				a.log.WithField("row", sk.RowRef).Warnf("row skipped: %v", sk.Err)
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
			if res.Summary.HasErrors() {
				return fmt.Errorf("export of %s finished with %d error(s)", res.Table.QualifiedName(), res.Summary.Errors)
			}
			printInfo(a.format, fmt.Sprintf("Exported %d row(s) to %s", res.Summary.InsertedCount, res.Table.QualifiedName()))
			return nil
		},
	}
	exportFlags(cmd)
	cmd.Flags().Int("rows-per-insert", 0, "Rows per INSERT statement (overrides export.rows_per_insert)")
	cmd.Flags().Bool("append", false, "Insert into an existing table instead of creating one")
	cmd.Flags().String("mapping", "", "Saved column mapping to reuse, or the name to save under")
	cmd.Flags().Bool("save-mapping", false, "Save the column mapping used by --append")
	return cmd
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}
