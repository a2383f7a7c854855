package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// TransactionRepository defines the interface for transaction data access.
// Method-id lookups return zero or one transaction; uniqueness of
// (method_id, mode) is enforced at write time.
type TransactionRepository interface {
	// Create persists a new transaction. A duplicate (method_id, mode)
	// fails with ErrDuplicateMethodID.
	Create(ctx context.Context, txn *entity.Transaction) error

	// GetByID retrieves a transaction by local id
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)

	// GetByMethodID retrieves the transaction owning a gateway method id
	GetByMethodID(ctx context.Context, methodID string, mode valueobject.Mode) (*entity.Transaction, error)

	// UpdateStatus atomically sets the status of the transaction owning the
	// method id. Returns whether such a transaction exists; a status that
	// already matches is a found no-op.
	UpdateStatus(ctx context.Context, methodID string, mode valueobject.Mode, status valueobject.TransactionStatus) (bool, error)

	// ConvertMethodID rewrites a temporary subscription-based method id to
	// the permanent charge id.
	ConvertMethodID(ctx context.Context, oldID, newID string, mode valueobject.Mode) error
}
