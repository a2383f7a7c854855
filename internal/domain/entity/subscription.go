package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// Subscription is a recurring billing relationship tied to the transaction
// that created it. SubscriberID is the gateway subscription id; once set it
// never changes. Paused is orthogonal to Status: pausing is realized remotely
// as a 100%-off discount, so a paused subscription still reads active.
type Subscription struct {
	ID                 uuid.UUID
	TransactionID      uuid.UUID
	SubscriberID       string
	Mode               valueobject.Mode
	Status             valueobject.SubscriptionStatus
	PaymentTokenID     *uuid.UUID
	Paused             bool
	CancelledBy        string
	CancellationReason string
	PausedBy           string
	ResumedBy          string
	FailedInvoiceID    string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewSubscription creates an active subscription stamped with its gateway
// subscriber id.
func NewSubscription(transactionID uuid.UUID, subscriberID string, mode valueobject.Mode) *Subscription {
	now := time.Now()
	return &Subscription{
		ID:            uuid.New(),
		TransactionID: transactionID,
		SubscriberID:  subscriberID,
		Mode:          mode,
		Status:        valueobject.SubStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsCancelled reports whether the subscription reached its terminal state
func (s *Subscription) IsCancelled() bool {
	return s.Status == valueobject.SubStatusCancelled
}

// IsSuspended reports whether the last renewal payment failed
func (s *Subscription) IsSuspended() bool {
	return s.Status == valueobject.SubStatusSuspended
}
