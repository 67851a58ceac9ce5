package server

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Error types for structured error handling
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeAuth       ErrorType = "authentication"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeNotFound   ErrorType = "not_found"
)

// ServerError represents a structured startup or configuration error
type ServerError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp int64     `json:"timestamp"`
	cause     error
}

// Error implements the error interface
func (e *ServerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error, if any
func (e *ServerError) Unwrap() error {
	return e.cause
}

// NewError creates a new ServerError
func NewError(errType ErrorType, message string, details string) *ServerError {
	return &ServerError{
		Type:      errType,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Unix(),
	}
}

// Wrap wraps err as a ServerError. The original error stays reachable via errors.Is/As.
func Wrap(err error, errType ErrorType, message string) *ServerError {
	if err == nil {
		return nil
	}
	e := NewError(errType, message, err.Error())
	e.cause = err
	return e
}

// LogError logs the error at a level matching its type
func (e *ServerError) LogError(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("error_type", string(e.Type)),
		zap.String("details", e.Details),
	}
	switch e.Type {
	case ErrorTypeValidation, ErrorTypeNotFound:
		logger.Warn(e.Message, fields...)
	default:
		logger.Error(e.Message, fields...)
	}
}

// IsType checks if err is, or wraps, a ServerError of the given type
func IsType(err error, errType ErrorType) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.Type == errType
}

// GetType returns the error type if err is a ServerError, otherwise ErrorTypeInternal
func GetType(err error) ErrorType {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Type
	}
	return ErrorTypeInternal
}
