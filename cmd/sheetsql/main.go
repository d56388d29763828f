package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"sheetsql/internal/config"
	"sheetsql/internal/dialect"
	_ "sheetsql/internal/dialect/mysql"
	"sheetsql/internal/gateway"
	"sheetsql/internal/logging"
	"sheetsql/internal/mapping"
	"sheetsql/internal/output"
	"sheetsql/internal/session"
	"sheetsql/internal/surface"
)

// app carries the root flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	logLevel   string
	format     string
	dsn        string
	schema     string
	timeout    int

	cfg *config.Config
	log *logrus.Logger
}

func printInfo(format string, msg string) {
	if strings.EqualFold(strings.TrimSpace(format), string(output.FormatJSON)) {
		_, _ = fmt.Fprintln(os.Stderr, msg)
		return
	}
	fmt.Println(msg)
}

func main() {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "sheetsql",
		Short: "Move tables between MySQL and spreadsheets",
		Long: `sheetsql imports MySQL tables into xlsx workbooks, exports workbook
regions into new or existing tables, and commits edits made to imported
regions back to the database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "sheetsql.toml", "Configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (overrides log.level)")
	flags.StringVarP(&a.format, "format", "f", "", "Output format: table, sql, json or summary")
	flags.StringVar(&a.dsn, "dsn", "", "Database connection string (overrides connection.dsn)")
	flags.StringVarP(&a.schema, "schema", "s", "", "Schema name (overrides connection.schema)")
	flags.IntVar(&a.timeout, "timeout", 300, "Timeout in seconds for database work")

	rootCmd.AddCommand(
		newInferCmd(a),
		newDDLCmd(a),
		newExportCmd(a),
		newCompareCmd(a),
		newImportCmd(a),
		newCommitCmd(a),
		newMappingsCmd(a),
		newExecCmd(a),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if a.dsn != "" {
		cfg.Connection.DSN = a.dsn
	}
	if a.schema != "" {
		cfg.Connection.Schema = a.schema
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if a.log, err = logging.New(os.Stderr, cfg.Log.Level); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(a.timeout)*time.Second)
}

func (a *app) formatter() (output.Formatter, error) {
	return output.NewFormatter(a.format)
}

func (a *app) generator() dialect.Generator {
	return dialect.GetDialect(dialect.MySQL).Generator()
}

// connect opens the gateway and fills in the schema from the connection
// when none is configured.
func (a *app) connect(ctx context.Context) (*gateway.MySQL, error) {
	if a.cfg.Connection.DSN == "" {
		return nil, fmt.Errorf("no connection: set connection.dsn or pass --dsn")
	}
	a.log.Debug("connecting to database")
	gw, err := gateway.Open(ctx, a.cfg.Connection.DSN, a.log)
	if err != nil {
		return nil, err
	}
	if flavor, version, err := gw.ServerFlavor(ctx); err != nil {
		a.log.WithError(err).Warn("could not determine server version")
	} else {
		a.log.WithFields(logrus.Fields{"flavor": flavor, "version": version}).Debug("connected")
		if flavor != "mysql" {
			a.log.WithField("flavor", flavor).Warn("server is not MySQL, generated SQL may need adjusting")
		}
	}
	if a.cfg.Connection.Schema == "" {
		schema, err := gw.Schema(ctx)
		if err != nil {
			a.closeGateway(gw)
			return nil, err
		}
		a.cfg.Connection.Schema = schema
	}
	return gw, nil
}

func (a *app) closeGateway(gw *gateway.MySQL) {
	if err := gw.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close database connection")
	}
}

func (a *app) mappings() (*mapping.FileStore, error) {
	return mapping.OpenFileStore(a.cfg.Mappings.File)
}

func (a *app) env(gw gateway.Gateway, wb *surface.Workbook, store mapping.Store) session.Env {
	return session.Env{
		Gateway:   gw,
		Surface:   wb,
		Generator: a.generator(),
		Mappings:  store,
		Log:       a.log,
	}
}

// openWorkbook opens path, or starts an empty workbook there when the file
// does not exist yet.
func openWorkbook(path string) (*surface.Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return surface.NewWorkbook(path), nil
		}
		return nil, fmt.Errorf("workbook %q: %w", path, err)
	}
	return surface.OpenWorkbook(path)
}

// resolveRegion finds a named region, or reads ref as a range such as
// "Sheet1!A1:D20". Ranges are not registered in the workbook.
func resolveRegion(wb *surface.Workbook, ref string) (*surface.Region, error) {
	if r, ok := wb.Region(ref); ok {
		return r, nil
	}
	b, err := surface.ParseRange(ref)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a region nor a range: %w", ref, err)
	}
	if b.Sheet == "" {
		sheets := wb.Sheets()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		b.Sheet = sheets[0]
	}
	if !wb.HasSheet(b.Sheet) {
		return nil, fmt.Errorf("sheet %q not found", b.Sheet)
	}
	return &surface.Region{Name: b.Sheet, Bounds: b}, nil
}
