// Package domain defines the core domain models for VaultLink.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a business domain error with a structured error code.
// Codes follow the format VL-<AREA>-<NNNN>; the numeric suffix carries the kind.
type DomainError struct {
	Code    string // Error code (e.g., "VL-DAPP-4040")
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

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
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

// IsNotFound reports whether err is a "reference does not resolve" error.
// Callers treat it as a recoverable state such as "not connected yet".
func IsNotFound(err error) bool {
	code := GetErrorCode(err)
	return strings.HasSuffix(code, "-4040") || strings.HasSuffix(code, "-4041")
}

// IsConflict reports whether err is a uniqueness or optimistic lock conflict.
func IsConflict(err error) bool {
	code := GetErrorCode(err)
	return strings.HasSuffix(code, "-4090") || strings.HasSuffix(code, "-4091")
}

// IsValidation reports whether err was caused by malformed input.
func IsValidation(err error) bool {
	code := GetErrorCode(err)
	return strings.HasPrefix(code, "VL-ARG-") || strings.HasSuffix(code, "-4001")
}

// ============================================================================
// DApp Session Errors (DAPP)
// ============================================================================

var (
	// ErrDAppNotFound indicates no session matches the (session id, origin) key.
	ErrDAppNotFound = NewDomainError("VL-DAPP-4040", "dapp session not found")

	// ErrDAppConflict indicates a concurrent create on the same session key.
	ErrDAppConflict = NewDomainError("VL-DAPP-4090", "dapp session already exists")

	// ErrDAppVersionConflict indicates an optimistic lock conflict.
	ErrDAppVersionConflict = NewDomainError("VL-DAPP-4091", "version conflict, please retry")

	// ErrDAppValidation indicates session data validation failed.
	ErrDAppValidation = NewDomainError("VL-DAPP-4001", "dapp session validation failed")
)

// ============================================================================
// Vault, User and Transaction Errors (VLT, USR, TX)
// ============================================================================

var (
	// ErrVaultNotFound indicates the vault id or address does not resolve.
	ErrVaultNotFound = NewDomainError("VL-VLT-4040", "vault not found")

	// ErrUserNotFound indicates the user address does not resolve.
	ErrUserNotFound = NewDomainError("VL-USR-4040", "user not found")

	// ErrTransactionNotFound indicates the transaction hash does not resolve.
	ErrTransactionNotFound = NewDomainError("VL-TX-4040", "transaction not found")
)

// ============================================================================
// Recover Code Errors (CODE)
// ============================================================================

var (
	// ErrRecoverCodeNotFound indicates the code was never issued.
	ErrRecoverCodeNotFound = NewDomainError("VL-CODE-4040", "recover code not found")

	// ErrRecoverCodeExpired indicates the code's validity window has passed.
	ErrRecoverCodeExpired = NewDomainError("VL-CODE-4041", "recover code expired")

	// ErrRecoverCodeConflict indicates a generated code collided with an existing one.
	ErrRecoverCodeConflict = NewDomainError("VL-CODE-4090", "recover code conflict")

	// ErrRecoverCodeValidation indicates the issue request is malformed.
	ErrRecoverCodeValidation = NewDomainError("VL-CODE-4001", "recover code validation failed")
)

// ============================================================================
// Notification Errors (NTF)
// ============================================================================

var (
	// ErrNotificationFailed indicates a publish could not be delivered.
	// It is logged by event sinks and never returned to API callers.
	ErrNotificationFailed = NewDomainError("VL-NTF-5030", "notification publish failed")
)

// ============================================================================
// System and Argument Errors (SYS, ARG)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("VL-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("VL-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("VL-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("VL-SYS-4290", "too many requests")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("VL-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("VL-ARG-1002", "missing required argument")
)
