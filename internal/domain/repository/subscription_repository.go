package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	// Create persists a subscription with its subscriber id
	Create(ctx context.Context, sub *entity.Subscription) error

	// GetByID retrieves a subscription by local id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error)

	// GetBySubscriberID retrieves the subscription owning a gateway
	// subscription id
	GetBySubscriberID(ctx context.Context, subscriberID string, mode valueobject.Mode) (*entity.Subscription, error)

	// GetByTransactionID retrieves the subscription created by a transaction
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Subscription, error)

	// UpdateStatus atomically sets the subscriber's status. A cancelled
	// subscription is terminal: the update is a silent no-op, never a
	// reactivation. Returns whether the subscriber exists.
	UpdateStatus(ctx context.Context, subscriberID string, mode valueobject.Mode, status valueobject.SubscriptionStatus) (bool, error)

	// MarkCancelled records the terminal state with actor attribution
	MarkCancelled(ctx context.Context, id uuid.UUID, cancelledBy, reason string) error

	// SetPaused flips the pause flag and records the acting party
	SetPaused(ctx context.Context, id uuid.UUID, paused bool, actor string) error

	// SetPaymentToken points the subscription at a stored payment token
	SetPaymentToken(ctx context.Context, id uuid.UUID, tokenID uuid.UUID) error

	// SetFailedInvoice records the invoice to retry once the payment method
	// is updated; empty clears the marker.
	SetFailedInvoice(ctx context.Context, subscriberID string, mode valueobject.Mode, invoiceID string) error
}
