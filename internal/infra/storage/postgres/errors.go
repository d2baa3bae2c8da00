package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/vietddude/campusconnect/internal/infra/backend"
	"github.com/vietddude/campusconnect/internal/infra/storage"
)

const source = "postgres"

// translate converts driver errors into coded backend errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return backend.Wrap(source, backend.ReasonDeadlineExceeded, err)
	}
	if errors.Is(err, context.Canceled) {
		return backend.Wrap(source, backend.ReasonCancelled, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return backend.Wrap(source, reasonForState(pgErr.Code), err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return backend.Wrap(source, reasonForState(string(pqErr.Code)), err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return backend.Wrap(source, backend.ReasonUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return backend.Wrap(source, backend.ReasonTimeout, err)
		}
		return backend.Wrap(source, backend.ReasonUnavailable, err)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return backend.Wrap(source, backend.ReasonUnavailable, err)
	}

	return backend.Wrap(source, backend.ReasonInternal, err)
}

// reasonForState maps a SQLSTATE code to a backend reason.
func reasonForState(code string) string {
	switch code {
	case "57014": // query_canceled, also raised by statement_timeout
		return backend.ReasonCancelled
	case "57P01", "57P02", "57P03", "40001", "40P01":
		return backend.ReasonUnavailable
	case "42501":
		return backend.ReasonPermissionDenied
	case "23505":
		return backend.ReasonAlreadyExists
	case "23503":
		return backend.ReasonNotFound
	}

	switch {
	case strings.HasPrefix(code, "08"):
		return backend.ReasonUnavailable
	case strings.HasPrefix(code, "28"):
		return backend.ReasonPermissionDenied
	case strings.HasPrefix(code, "53"):
		return backend.ReasonResourceExhausted
	case strings.HasPrefix(code, "22"), strings.HasPrefix(code, "23"):
		return backend.ReasonInvalidArgument
	}
	return backend.ReasonInternal
}

// notFound tags a missing row with its kind and id.
func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// expectRows returns notFound when an update touched nothing.
func expectRows(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}
