package nexchat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorCode categorizes client-side failures.
type ErrorCode int

const (
	ErrorUnknown ErrorCode = iota
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorNotConnected
	ErrorSerialization
	ErrorInvalidConfig
	ErrorProtocol
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorProtocol:
		return "protocol_error"
	case ErrorUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("unknown_code_%d", int(e))
	}
}

// ClientError is a structured error with code and context.
type ClientError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *ClientError) Unwrap() error {
	return e.Wrapped
}

// Is matches ClientErrors by code.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a ClientError with the given code and message.
func NewError(code ErrorCode, message string) *ClientError {
	return &ClientError{Code: code, Message: message}
}

// WrapError wraps an existing error with a ClientError.
func WrapError(code ErrorCode, message string, err error) *ClientError {
	return &ClientError{Code: code, Message: message, Wrapped: err}
}

// APIError carries a REST failure with the server's human-readable message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return "api error (status " + strconv.Itoa(e.Status) + ")"
}

// NewAPIError builds an APIError from a response body, extracting the most
// specific message available: a plain-text body, then the message, error and
// detail fields of a JSON object, then the serialized object itself.
func NewAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Message: extractAPIMessage(body)}
}

func extractAPIMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		// Plain-text error body.
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return strings.TrimSpace(s)
		}
		return trimmed
	}

	for _, key := range []string{"message", "error", "detail"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	if serialized, err := json.Marshal(obj); err == nil && len(obj) > 0 {
		return string(serialized)
	}
	return ""
}

// UserMessage renders any error as text fit for an inline system message.
func UserMessage(err error) string {
	if err == nil {
		return "Something went wrong. Please try again."
	}
	var api *APIError
	if errors.As(err, &api) && api.Message != "" {
		return api.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Something went wrong. Please try again."
}
