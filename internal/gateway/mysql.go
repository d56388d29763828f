package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"sheetsql/internal/core"
	"sheetsql/internal/logging"
)

// MySQL is the Gateway over a database/sql pool using go-sql-driver/mysql.
type MySQL struct {
	db  *sql.DB
	id  string
	log logrus.FieldLogger
}

// Open connects to dsn and pings the server. parseTime is always enabled so
// date columns come back as time.Time.
func Open(ctx context.Context, dsn string, log logrus.FieldLogger) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid dsn: %w", err)
	}
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w; additionally failed to close connection: %v", Classify(pingErr), closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", Classify(pingErr))
	}

	return New(db, identity(cfg), log), nil
}

// New wraps an already opened pool.
func New(db *sql.DB, connectionID string, log logrus.FieldLogger) *MySQL {
	return &MySQL{db: db, id: connectionID, log: logging.OrDiscard(log).WithField("connection", connectionID)}
}

// ConnectionIdentity derives the identity saved mappings are keyed by,
// user@address, from a DSN.
func ConnectionIdentity(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid dsn: %w", err)
	}
	return identity(cfg), nil
}

func identity(cfg *mysql.Config) string {
	addr := cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:3306"
	}
	return cfg.User + "@" + addr
}

// Schema returns the default database selected by the connection.
func (m *MySQL) Schema(ctx context.Context) (string, error) {
	var name sql.NullString
	if err := m.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return "", Classify(err)
	}
	return name.String, nil
}

// ServerFlavor reports whether the server is MySQL, MariaDB or TiDB, plus
// its version number.
func (m *MySQL) ServerFlavor(ctx context.Context) (string, string, error) {
	var varName, comment string
	if err := m.db.QueryRowContext(ctx, "SHOW VARIABLES LIKE 'version_comment'").Scan(&varName, &comment); err != nil {
		return "", "", Classify(err)
	}
	var version string
	if err := m.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return "", "", Classify(err)
	}
	flavor, version := parseFlavor(comment, version)
	return flavor, version, nil
}

// parseFlavor names the server family from its version_comment and trims
// the build suffix off VERSION().
func parseFlavor(comment, version string) (string, string) {
	if idx := strings.Index(version, "-"); idx > 0 {
		version = version[:idx]
	}
	comment = strings.ToLower(comment)
	switch {
	case strings.Contains(comment, "mariadb"):
		return "mariadb", version
	case strings.Contains(comment, "tidb"):
		return "tidb", version
	default:
		return "mysql", version
	}
}

func (m *MySQL) ConnectionID() string { return m.id }

func (m *MySQL) ExecuteScalar(ctx context.Context, query string, params ...core.Param) (any, error) {
	q, args, err := BindNamed(query, params)
	if err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, Classify(err)
	}
	rs, err := readRows(rows)
	if err != nil {
		return nil, Classify(err)
	}
	if rs.Len() == 0 || len(rs.Rows[0]) == 0 {
		return nil, nil
	}
	return rs.Rows[0][0], nil
}

func (m *MySQL) ExecuteNonQuery(ctx context.Context, query string, params ...core.Param) (int64, error) {
	return execNonQuery(ctx, m.db, query, params)
}

func (m *MySQL) GetSchemaInformation(ctx context.Context, kind SchemaInfoKind, schema, object string) (*ResultSet, error) {
	query, args, err := schemaQuery(kind, schema, object)
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"kind": kind, "schema": schema, "object": object}).Debug("schema information")

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Classify(err)
	}
	rs, err := readRows(rows)
	if err != nil {
		return nil, Classify(err)
	}
	return rs, nil
}

func (m *MySQL) GetDataFromSelectQuery(ctx context.Context, query string) (*ResultSet, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, Classify(err)
	}
	rs, err := readRows(rows)
	if err != nil {
		return nil, Classify(err)
	}
	return rs, nil
}

func (m *MySQL) Begin(ctx context.Context) (UnitOfWork, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", Classify(err))
	}
	return &unitOfWork{tx: tx}, nil
}

// Close closes the pool. Closing twice is safe.
func (m *MySQL) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

type unitOfWork struct {
	tx *sql.Tx
}

func (u *unitOfWork) ExecuteNonQuery(ctx context.Context, query string, params ...core.Param) (int64, error) {
	return execNonQuery(ctx, u.tx, query, params)
}

func (u *unitOfWork) Commit() error   { return Classify(u.tx.Commit()) }
func (u *unitOfWork) Rollback() error { return u.tx.Rollback() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execNonQuery(ctx context.Context, db execer, query string, params []core.Param) (int64, error) {
	q, args, err := BindNamed(query, params)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, Classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}
