package errors

import (
	"errors"
	"fmt"
)

var (
	// Store errors
	ErrNotFound            = errors.New("record not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateMethodID   = errors.New("transaction method id already recorded for this mode")
	ErrDuplicateRefund     = errors.New("refund with this gateway id already recorded")

	// Subscription errors
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrMissingSubscriberID   = errors.New("subscription has no subscriber id")
	ErrSubscriptionCancelled = errors.New("subscription has been cancelled")

	// Input errors
	ErrInvalidInput = errors.New("invalid input")

	// Lock errors
	ErrLockNotAcquired = errors.New("operation lock not acquired")
)

// GatewayError is a failed remote call: network trouble, bad credentials, or
// a business rule the provider enforced. The Message is safe to show to the
// end customer; Code is the provider's machine-readable code when present.
type GatewayError struct {
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("gateway error: %s", e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a GatewayError
func NewGatewayError(code, message string, err error) *GatewayError {
	return &GatewayError{Code: code, Message: message, Err: err}
}

// NotFoundError marks an expected remote or local object as missing. It
// usually means local and remote state have diverged, so callers raise it
// rather than papering over it.
type NotFoundError struct {
	Entity string
	ID     string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found: %v", e.Entity, e.ID, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError is malformed caller input, rejected before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ConflictError reports that the object being created already exists, either
// remotely (plan id collision, resolved by adopting the existing plan) or
// locally (duplicate refund gateway id, resolved by rejecting the insert).
type ConflictError struct {
	Entity string
	Reason string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s - %v", e.Entity, e.Reason, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err carries a ConflictError anywhere in its chain
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsNotFound reports whether err means a missing record
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.Is(err, ErrNotFound) || errors.As(err, &notFound)
}
