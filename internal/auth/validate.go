package auth

import (
	"fmt"
	"net/http"
)

// ValidationError describes why a session token was not accepted.
type ValidationError struct {
	Type       ValidationErrorType
	Message    string
	StatusCode int
	Err        error
}

// ValidationErrorType categorizes verification failures.
type ValidationErrorType int

const (
	// ErrTypeNoToken indicates the request carried no session token.
	ErrTypeNoToken ValidationErrorType = iota
	// ErrTypeInvalidToken indicates the token is invalid, expired, or revoked.
	ErrTypeInvalidToken
	// ErrTypeNotConfigured indicates the server has no Stack Auth credentials.
	ErrTypeNotConfigured
	// ErrTypeNetworkError indicates Stack Auth could not be reached.
	ErrTypeNetworkError
	// ErrTypeUnknown indicates an unexpected response.
	ErrTypeUnknown
)

func (t ValidationErrorType) String() string {
	switch t {
	case ErrTypeNoToken:
		return "no_token"
	case ErrTypeInvalidToken:
		return "invalid"
	case ErrTypeNotConfigured:
		return "not_configured"
	case ErrTypeNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-2xx Stack Auth response to a ValidationError.
func classifyStatus(status int, body string) *ValidationError {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return &ValidationError{
			Type:       ErrTypeInvalidToken,
			Message:    "session token rejected",
			StatusCode: status,
		}
	case status == http.StatusBadRequest:
		// Stack Auth answers 400 for malformed or expired access tokens.
		return &ValidationError{
			Type:       ErrTypeInvalidToken,
			Message:    "session token malformed or expired",
			StatusCode: status,
		}
	case status >= 500:
		return &ValidationError{
			Type:       ErrTypeNetworkError,
			Message:    "Stack Auth server error",
			StatusCode: status,
			Err:        fmt.Errorf("%d - %s", status, body),
		}
	default:
		return &ValidationError{
			Type:       ErrTypeUnknown,
			Message:    "unexpected Stack Auth response",
			StatusCode: status,
			Err:        fmt.Errorf("%d - %s", status, body),
		}
	}
}
