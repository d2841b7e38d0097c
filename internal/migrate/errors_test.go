package migrate

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		transient bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn), true},
		{"mysql invalid conn", gomysql.ErrInvalidConn, true},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"pg connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"pg shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"pg not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"mysql deadlock", &gomysql.MySQLError{Number: 1213}, true},
		{"mysql lock wait", &gomysql.MySQLError{Number: 1205}, true},
		{"mysql duplicate entry", &gomysql.MySQLError{Number: 1062}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.transient, isTransient(tc.err))
		})
	}
}

func TestPersistError(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	err := &PersistError{Op: "sessions", Batch: 3, Err: cause}

	assert.Contains(t, err.Error(), "sessions")
	assert.Contains(t, err.Error(), "batch 3")

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
}
