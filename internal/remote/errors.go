package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// StatusError reports a non-success HTTP response from the remote API. It is
// always a business failure, never a connectivity one.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("remote returned %d", e.Code)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Code, body)
}

// Transient phrasings seen from transports that do not surface typed errors.
var networkErrorPhrases = []string{
	"failed to fetch",
	"network request failed",
	"networkerror",
	"connection refused",
	"connection reset",
	"no such host",
	"i/o timeout",
	"broken pipe",
	"request aborted",
	"tls handshake timeout",
}

// IsNetworkError reports whether an error represents a transport-level
// connectivity failure. Network errors interrupt a whole sync pass; anything
// else counts as a permanent per-mutation failure. The classification is
// centralized here so every component agrees on the distinction.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	message := strings.ToLower(err.Error())
	for _, phrase := range networkErrorPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}
