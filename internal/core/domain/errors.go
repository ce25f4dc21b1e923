// Package domain defines the core domain models for BestellDesk backups.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "BD-BKUP-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true // Only check if it's a DomainError
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Backup Errors (BKUP, STOR)
// ============================================================================

var (
	// ErrBackupIO indicates the backup file could not be read or written.
	ErrBackupIO = NewDomainError("BD-BKUP-5001", "backup file i/o failed")

	// ErrBackupFormat indicates the envelope or snapshot could not be parsed,
	// or declares an unsupported version, KDF or cipher.
	ErrBackupFormat = NewDomainError("BD-BKUP-4001", "unsupported or malformed backup")

	// ErrBackupCrypto indicates key derivation or authenticated decryption failed.
	// A wrong passphrase and a corrupted artifact are deliberately reported alike.
	ErrBackupCrypto = NewDomainError("BD-BKUP-4010", "backup cryptography failed")

	// ErrDataStore indicates a collection could not be read, wiped or inserted.
	ErrDataStore = NewDomainError("BD-STOR-5001", "datastore operation failed")
)

// ErrorKind classifies backup failures for callers and metrics labels.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindIO        ErrorKind = "io"
	KindFormat    ErrorKind = "format"
	KindCrypto    ErrorKind = "crypto"
	KindDataStore ErrorKind = "datastore"
	KindUnknown   ErrorKind = "unknown"
)

// KindOf returns the ErrorKind of err. A nil error has KindNone.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrBackupIO):
		return KindIO
	case errors.Is(err, ErrBackupFormat):
		return KindFormat
	case errors.Is(err, ErrBackupCrypto):
		return KindCrypto
	case errors.Is(err, ErrDataStore):
		return KindDataStore
	default:
		return KindUnknown
	}
}
