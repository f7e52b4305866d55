package domain

import (
	"fmt"
	"net/http"
)

// Error types for consistent error handling across the service.

// TransportError is the single failure shape of the CRM transport: a network
// failure, a timeout, a non-2xx response or a body that is not a JSON object.
// StatusCode is zero when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Message    string
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("crm request timed out: %s", e.Message)
	case e.StatusCode == 0:
		return fmt.Sprintf("crm request failed: %s", e.Message)
	default:
		return fmt.Sprintf("crm returned %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrValidation indicates a validation error (bad input or configuration).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}
