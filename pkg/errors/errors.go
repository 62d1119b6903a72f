package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Manifest errors
	ErrManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	ErrManifestCorrupt  ErrorCode = "MANIFEST_CORRUPT"
	ErrManifestExists   ErrorCode = "MANIFEST_EXISTS"
	ErrManifestWrite    ErrorCode = "MANIFEST_WRITE"

	// Registry errors
	ErrRegistryFetch    ErrorCode = "REGISTRY_FETCH"
	ErrRegistryResolve  ErrorCode = "REGISTRY_RESOLVE"
	ErrRegistryChecksum ErrorCode = "REGISTRY_CHECKSUM"

	// Backup errors
	ErrBackupCreate   ErrorCode = "BACKUP_CREATE"
	ErrBackupVerify   ErrorCode = "BACKUP_VERIFY"
	ErrBackupRestore  ErrorCode = "BACKUP_RESTORE"
	ErrBackupNotFound ErrorCode = "BACKUP_NOT_FOUND"

	// Apply errors
	ErrApplyAborted    ErrorCode = "APPLY_ABORTED"
	ErrApplyRolledBack ErrorCode = "APPLY_ROLLED_BACK"
	ErrRestoreFailed   ErrorCode = "RESTORE_FAILED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// KitsyncError represents a structured error with code and details
type KitsyncError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *KitsyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *KitsyncError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *KitsyncError) Is(target error) bool {
	var targetErr *KitsyncError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new KitsyncError with the given code and message
func New(code ErrorCode, message string) *KitsyncError {
	return &KitsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new KitsyncError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *KitsyncError {
	return &KitsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *KitsyncError {
	if err == nil {
		return nil
	}
	return &KitsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *KitsyncError {
	if err == nil {
		return nil
	}
	return &KitsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *KitsyncError) WithDetail(key string, value interface{}) *KitsyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var ksErr *KitsyncError
	if errors.As(err, &ksErr) {
		return ksErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a KitsyncError
func GetErrorCode(err error) ErrorCode {
	var ksErr *KitsyncError
	if errors.As(err, &ksErr) {
		return ksErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a KitsyncError
func GetErrorDetails(err error) map[string]interface{} {
	var ksErr *KitsyncError
	if errors.As(err, &ksErr) {
		return ksErr.Details
	}
	return nil
}
