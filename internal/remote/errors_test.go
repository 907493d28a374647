package remote_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/jaronwright/repsync/internal/remote"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "operation timed out" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestIsNetworkError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status error", &remote.StatusError{Code: 422, Body: "invalid set"}, false},
		{"wrapped status error", fmt.Errorf("log set: %w", &remote.StatusError{Code: 409}), false},
		{"context canceled", context.Canceled, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"timeout net error", timeoutError{}, true},
		{"dial op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"wrapped op error", fmt.Errorf("create session: %w", &net.OpError{Op: "read", Err: timeoutError{}}), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"fetch phrasing", errors.New("TypeError: Failed to fetch"), true},
		{"reset phrasing", fmt.Errorf("do request: %w", errors.New("read tcp: connection reset by peer")), true},
		{"plain business error", errors.New("duplicate set number"), false},
		{"validation error", errors.New("weight must be positive"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := remote.IsNetworkError(tc.err); got != tc.want {
				t.Fatalf("IsNetworkError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &remote.StatusError{Code: 500, Body: "boom"}
	if err.Error() != "remote returned 500: boom" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	err = &remote.StatusError{Code: 404}
	if err.Error() != "remote returned 404" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
