package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TimeoutError signals that the recognition provider exceeded its deadline.
type TimeoutError struct {
	Detail string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("recognition provider timeout: %s", e.Detail)
}

// TransientError signals a retryable infrastructure fault on the provider
// side (rate limiting, temporary unavailability).
type TransientError struct {
	Detail string
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("recognition provider transient failure: %s", e.Detail)
}

// IsTimeout reports whether err represents a provider deadline overrun.
func IsTimeout(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// IsTransient reports whether err represents a retryable provider fault.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyStatus converts an HTTP status from a provider into a typed error,
// or nil for statuses that are neither timeouts nor transient faults.
func classifyStatus(status int, detail string) error {
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &TimeoutError{Detail: detail}
	case status == http.StatusTooManyRequests,
		status == http.StatusInternalServerError,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable:
		return &TransientError{Detail: detail}
	}
	return nil
}
