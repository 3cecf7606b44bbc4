package upstream

import (
	"errors"
	"fmt"
)

// Common upstream errors
var (
	ErrAuthFailed          = errors.New("authentication failed")
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
	ErrNoMatchingSku       = errors.New("no matching sku in response")
	ErrTimeout             = errors.New("request timeout")
)

// UpstreamError represents a failure talking to one upstream endpoint
type UpstreamError struct {
	Endpoint string `json:"endpoint"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %d: %s (%v)", e.Endpoint, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %d: %s", e.Endpoint, e.Code, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(endpoint string, code int, message string, err error) *UpstreamError {
	return &UpstreamError{
		Endpoint: endpoint,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}

// IsAuthRejection reports whether a status code indicates a rejected
// credential that warrants a forced re-authentication.
func IsAuthRejection(statusCode int) bool {
	return statusCode == 401 || statusCode == 403
}
