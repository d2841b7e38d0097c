package migrate

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// PersistError is a non-transient database failure on a batch. It aborts the
// run; batches committed before it stay committed.
type PersistError struct {
	Op    string
	Batch int
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s batch %d: %v", e.Op, e.Batch, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// isTransient reports whether err looks like a connectivity drop worth a
// bounded retry. Constraint and data errors are permanent, as is a canceled
// context.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gomysql.ErrInvalidConn) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions. 57P01-57P03: server shutdown /
		// crash / cannot connect now.
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P")
	}

	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, 1053, 1205, 1213: // too many connections, shutdown, lock wait, deadlock
			return true
		}
	}
	return false
}
