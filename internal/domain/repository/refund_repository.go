package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
)

// RefundRepository defines the interface for refund data access
type RefundRepository interface {
	// Create persists a refund. A duplicate gateway refund id fails with
	// ErrDuplicateRefund, which is what keeps webhook replays idempotent.
	Create(ctx context.Context, refund *entity.Refund) error

	// SumByTransaction returns the total amount refunded so far locally
	SumByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error)

	// ListByTransaction returns the refunds recorded against a transaction
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entity.Refund, error)
}
