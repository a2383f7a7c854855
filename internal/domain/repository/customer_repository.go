package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// CustomerRepository defines the interface for customer mapping data access
type CustomerRepository interface {
	// GetRemoteID returns the remote customer id mapped for (customer, mode)
	GetRemoteID(ctx context.Context, customerID uuid.UUID, mode valueobject.Mode) (string, error)

	// SetRemoteID upserts the mapping for (customer, mode)
	SetRemoteID(ctx context.Context, mapping *entity.CustomerMapping) error

	// DeleteByRemoteID clears whichever mapping currently points at the
	// remote id. A mapping re-created after the remote deletion points at a
	// different id and is left alone. Returns whether a mapping was cleared.
	DeleteByRemoteID(ctx context.Context, remoteID string, mode valueobject.Mode) (bool, error)
}
