package storage

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks a failure that is expected to clear if the same
// operation is retried unchanged, e.g. a 5xx from the REST gateway.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err looks like a recoverable I/O failure
// (timeout, dropped connection) as opposed to a query or data error.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// pgx surfaces some connection failures as plain errors
	msg := err.Error()
	for _, s := range []string{"connection reset", "connection refused", "broken pipe", "i/o timeout", "unexpected EOF", "conn closed"} {
		if strings.Contains(msg, s) {
			return true
		}
	}

	return false
}
