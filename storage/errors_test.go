package storage

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped marker", fmt.Errorf("fetch: %w", &TransientError{Err: errors.New("503")}), true},
		{"econnreset", fmt.Errorf("query: %w", syscall.ECONNRESET), true},
		{"econnrefused", syscall.ECONNREFUSED, true},
		{"deadline", context.DeadlineExceeded, true},
		{"reset message", errors.New("read tcp 10.0.0.1:5432: connection reset by peer"), true},
		{"io timeout message", errors.New("dial tcp: i/o timeout"), true},
		{"sql error", errors.New(`relation "scraped_ads" does not exist`), false},
		{"parse error", errors.New("invalid input syntax for type bigint"), false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient(%v) = %v, want %v", tc.name, tc.err, got, tc.want)
		}
	}
}
