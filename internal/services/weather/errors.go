package weather

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyCity = errors.New("city must not be empty")

// NetworkError reports a transport failure: DNS, refused connection, deadline.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("weather API request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx provider answer. Code and Message are filled
// from the provider error envelope when it is present.
type HTTPError struct {
	StatusCode int
	Status     string
	Code       int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("weather API error: status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("weather API error: status %s", e.Status)
}

// DecodeError reports a body that is not JSON or lacks a consumed field.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode weather response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// isClientSideError tells failures caused by the request itself apart from
// provider outages.
func isClientSideError(err error) bool {
	if errors.Is(err, ErrEmptyCity) {
		return true
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusBadRequest || httpErr.StatusCode == http.StatusNotFound
}

// ErrorKind names the failure class of err for metrics and logs.
func ErrorKind(err error) string {
	var (
		netErr    *NetworkError
		httpErr   *HTTPError
		decodeErr *DecodeError
	)
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrEmptyCity):
		return "empty_city"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &decodeErr):
		return "decode"
	default:
		return "unknown"
	}
}
