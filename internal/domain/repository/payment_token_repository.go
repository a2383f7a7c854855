package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// PaymentTokenRepository defines the interface for stored payment sources
type PaymentTokenRepository interface {
	// Create persists a token
	Create(ctx context.Context, token *entity.PaymentToken) error

	// GetByID retrieves a token by local id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentToken, error)

	// GetBySource retrieves the token holding a gateway source id
	GetBySource(ctx context.Context, source string, mode valueobject.Mode) (*entity.PaymentToken, error)

	// DeleteBySource removes the token holding a gateway source id.
	// Returns whether a token was removed.
	DeleteBySource(ctx context.Context, source string, mode valueobject.Mode) (bool, error)

	// UpdateExpiry refreshes a card token's expiration
	UpdateExpiry(ctx context.Context, id uuid.UUID, expMonth, expYear int) error

	// CountByCustomer returns how many tokens a customer has stored in a mode
	CountByCustomer(ctx context.Context, customerID uuid.UUID, mode valueobject.Mode) (int, error)

	// MakePrimary marks the token as the customer's default and clears the
	// flag on their other tokens in the same mode.
	MakePrimary(ctx context.Context, id uuid.UUID) error
}
