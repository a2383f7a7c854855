package valueobject

import (
	"errors"
)

var ErrInvalidSubscriptionStatus = errors.New("invalid subscription status")

type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusSuspended SubscriptionStatus = "suspended"
	SubStatusCancelled SubscriptionStatus = "cancelled"
)

// NewSubscriptionStatus creates a SubscriptionStatus value object
func NewSubscriptionStatus(status string) (SubscriptionStatus, error) {
	s := SubscriptionStatus(status)
	switch s {
	case SubStatusActive, SubStatusSuspended, SubStatusCancelled:
		return s, nil
	default:
		return "", ErrInvalidSubscriptionStatus
	}
}

// String returns the string representation of the status
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further status transitions are allowed.
// A cancelled subscription stays cancelled, no matter how late a webhook
// for an earlier state arrives.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubStatusCancelled
}

// CanTransitionTo reports whether the transition to next is allowed.
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	if s.IsTerminal() {
		return false
	}
	return s != next
}
