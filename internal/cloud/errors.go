package cloud

import (
	"errors"
	"fmt"
	"net"
)

// Kind classifies a vendor API failure. Adapters classify each remote
// failure exactly once; everything downstream switches on the kind.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindRateLimited       Kind = "rate_limited"
	KindServerError       Kind = "server_error"
	KindNetworkError      Kind = "network_error"
	KindTimeout           Kind = "timeout"
	KindAPIError          Kind = "api_error"
	KindInvalidResponse   Kind = "invalid_response"
	KindNoAccountFound    Kind = "no_account_found"
	KindRecordConflict    Kind = "record_conflict"
	KindInvalidRecordType Kind = "invalid_record_type"
	KindDNSSECError       Kind = "dnssec_error"
	KindZoneLocked        Kind = "zone_locked"
)

// Error is a classified vendor API failure.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status, 0 when the request never completed
	Code       int    // vendor error code, 0 when the vendor has none
	Message    string
	Suggestion string // recovery hint for the user, may be empty
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Suggestion != "" {
		return msg + " (" + e.Suggestion + ")"
	}
	return msg
}

// Errf builds a classified error with a formatted message.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ShouldRetry reports whether the failed call may be retried by the caller.
// This is pure classification; backoff policy belongs to the caller.
// Auth failures, malformed requests, and domain conflicts (record conflict,
// DNSSEC, locked zone) are never retryable. Rate limits, 5xx, timeouts, and
// generic network failures are.
func ShouldRetry(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case KindRateLimited, KindServerError, KindTimeout, KindNetworkError:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
