package chart

import (
	"errors"
	"fmt"
)

// Error is a recoverable failure surfaced at the UI/CLI boundary.
//
// Categories:
//   - IdentityAmbiguity: two stored records share one identity key
//   - StorageWriteFailure: the durable write was rejected (quota, I/O)
//   - NetworkOrServiceFailure: the reasoning service failed or returned nothing
//   - ConfigurationMissing: the reasoning service is not configured
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed, e.g. "charts.insert".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes Error values.
type ErrorCode string

const (
	ErrCodeIdentityAmbiguity       ErrorCode = "IDENTITY_AMBIGUITY"
	ErrCodeStorageWriteFailure     ErrorCode = "STORAGE_WRITE_FAILURE"
	ErrCodeNetworkOrServiceFailure ErrorCode = "SERVICE_FAILURE"
	ErrCodeConfigurationMissing    ErrorCode = "CONFIGURATION_MISSING"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, msg, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsStorageWriteFailure reports whether err is a rejected durable write.
func IsStorageWriteFailure(err error) bool { return hasCode(err, ErrCodeStorageWriteFailure) }

// IsServiceFailure reports whether err is a reasoning-service failure.
func IsServiceFailure(err error) bool { return hasCode(err, ErrCodeNetworkOrServiceFailure) }

// IsConfigurationMissing reports whether the reasoning service is unconfigured.
func IsConfigurationMissing(err error) bool { return hasCode(err, ErrCodeConfigurationMissing) }

// IsIdentityAmbiguity reports whether err flags duplicate identities.
func IsIdentityAmbiguity(err error) bool { return hasCode(err, ErrCodeIdentityAmbiguity) }

// NewStorageError wraps a rejected durable write.
func NewStorageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorageWriteFailure, Op: op, Message: "durable write rejected", Err: err}
}

// NewServiceError reports a reasoning-service failure.
func NewServiceError(op, message string, err error) *Error {
	return &Error{Code: ErrCodeNetworkOrServiceFailure, Op: op, Message: message, Err: err}
}

// NewConfigurationError reports a missing reasoning-service setting.
func NewConfigurationError(op, message string) *Error {
	return &Error{Code: ErrCodeConfigurationMissing, Op: op, Message: message}
}

// NewAmbiguityError reports that key is shared by several record ids.
func NewAmbiguityError(key string, ids []string) *Error {
	return &Error{
		Code:    ErrCodeIdentityAmbiguity,
		Op:      "charts.index",
		Message: fmt.Sprintf("identity %s shared by records %v", key, ids),
	}
}
