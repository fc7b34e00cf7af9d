// Package resilience classifies registry call failures. Registry calls are
// never retried; the classification rides on the error so callers can tell
// "registry unreachable" from "no such building".
package resilience

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"syscall"
)

// Reason is why a failure was judged temporary.
type Reason string

// Reasons. Permanent is the zero value.
const (
	Permanent   Reason = ""
	Timeout     Reason = "timeout"
	Unreachable Reason = "unreachable"
	Throttled   Reason = "throttled"
	Upstream    Reason = "upstream"
)

// TransientError marks a failure that should clear on its own. StatusCode
// is set when the registry answered with an HTTP error.
type TransientError struct {
	Err        error
	StatusCode int
	Reason     Reason
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Classify inspects a transport error from net/http.
func Classify(err error) Reason {
	if err == nil {
		return Permanent
	}

	var te *TransientError
	if errors.As(err, &te) {
		if te.Reason == Permanent {
			return Upstream
		}
		return te.Reason
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF):
		return Unreachable
	}
	return Permanent
}

// ClassifyStatus maps an HTTP status to a reason.
func ClassifyStatus(statusCode int) Reason {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return Timeout
	case http.StatusTooManyRequests:
		return Throttled
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return Upstream
	default:
		return Permanent
	}
}

// IsTransient reports whether err looked temporary.
func IsTransient(err error) bool {
	return Classify(err) != Permanent
}
