package translator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindRateLimited Kind = "rate_limited"
	KindAuth        Kind = "auth"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"

	// KindWrongLanguage marks script-pure output in another language.
	KindWrongLanguage Kind = "wrong_language"
)

// Error is returned by every Service implementation.
type Error struct {
	Service    string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Service, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed if repeated.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited, KindUnavailable:
		return true
	}
	return false
}

// KindOf returns the kind of err, KindUnavailable for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if isTimeout(err) {
		return KindTimeout
	}
	return KindUnavailable
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

func newError(service string, kind Kind, err error) *Error {
	return &Error{Service: service, Kind: kind, Err: err}
}

func malformed(service string, format string, args ...any) *Error {
	return newError(service, KindMalformed, fmt.Errorf(format, args...))
}

// transportError classifies a failure to complete an HTTP exchange.
func transportError(service string, err error) *Error {
	if isTimeout(err) {
		return newError(service, KindTimeout, err)
	}
	return newError(service, KindUnavailable, err)
}

// statusError classifies a non-2xx HTTP status.
func statusError(service string, code int, detail string) *Error {
	e := &Error{Service: service, StatusCode: code, Err: errors.New(detail)}
	switch {
	case code == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e.Kind = KindAuth
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		e.Kind = KindTimeout
	case code >= 500:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindMalformed
	}
	return e
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
