package gateway

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/go-sql-driver/mysql"
)

// Connectivity and permission failures are wrapped with one of these so a
// session can decide whether to retry, re-authenticate or invalidate itself.
var (
	ErrConnectionRefused = errors.New("connection refused")
	ErrAccessDenied      = errors.New("access denied")
	ErrSchemaNotFound    = errors.New("schema no longer exists")
	ErrTableNotFound     = errors.New("table no longer exists")
)

// MySQL server error numbers the gateway distinguishes.
const (
	erDBAccessDenied     = 1044
	erAccessDenied       = 1045
	erBadDB              = 1049
	erTableAccessDenied  = 1142
	erColumnAccessDenied = 1143
	erNoSuchTable        = 1146
	erSpecificAccess     = 1227
	crConnectionError    = 2002
	crConnHostError      = 2003
)

// Classify wraps err with the matching sentinel. Errors that are not about
// connectivity or missing objects are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrConnectionRefused, ErrAccessDenied, ErrSchemaNotFound, ErrTableNotFound} {
		if errors.Is(err, known) {
			return err
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case erAccessDenied, erDBAccessDenied, erTableAccessDenied, erColumnAccessDenied, erSpecificAccess:
			return fmt.Errorf("%w: %w", ErrAccessDenied, err)
		case erBadDB:
			return fmt.Errorf("%w: %w", ErrSchemaNotFound, err)
		case erNoSuchTable:
			return fmt.Errorf("%w: %w", ErrTableNotFound, err)
		case crConnectionError, crConnHostError:
			return fmt.Errorf("%w: %w", ErrConnectionRefused, err)
		}
		return err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return fmt.Errorf("%w: %w", ErrConnectionRefused, err)
	}
	return err
}

// IsConnectivity reports whether err means the session lost its database.
func IsConnectivity(err error) bool {
	return errors.Is(err, ErrConnectionRefused) ||
		errors.Is(err, ErrAccessDenied) ||
		errors.Is(err, ErrSchemaNotFound)
}
