package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
)

// RefundRepositoryImpl implements RefundRepository
type RefundRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewRefundRepository creates a new refund repository
func NewRefundRepository(pool *pgxpool.Pool) repository.RefundRepository {
	return &RefundRepositoryImpl{pool: pool}
}

// Create persists a refund. The remote refund id carries a unique index, so
// replaying the same gateway refund fails here instead of double counting.
func (r *RefundRepositoryImpl) Create(ctx context.Context, refund *entity.Refund) error {
	query := `
		INSERT INTO refunds (id, transaction_id, remote_id, amount, reason, issued_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		refund.ID,
		refund.TransactionID,
		refund.RemoteID,
		refund.Amount,
		refund.Reason,
		refund.IssuedBy,
		refund.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("refund %s: %w", refund.RemoteID, domainErrors.ErrDuplicateRefund)
		}
		return fmt.Errorf("failed to create refund: %w", err)
	}

	return nil
}

// SumByTransaction returns the total amount refunded so far
func (r *RefundRepositoryImpl) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE transaction_id = $1`

	var total int64
	if err := r.pool.QueryRow(ctx, query, transactionID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum refunds: %w", err)
	}

	return total, nil
}

// ListByTransaction returns the refunds recorded against a transaction
func (r *RefundRepositoryImpl) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entity.Refund, error) {
	query := `
		SELECT id, transaction_id, remote_id, amount, reason, issued_by, created_at
		FROM refunds
		WHERE transaction_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*entity.Refund
	for rows.Next() {
		refund := &entity.Refund{}
		err := rows.Scan(
			&refund.ID,
			&refund.TransactionID,
			&refund.RemoteID,
			&refund.Amount,
			&refund.Reason,
			&refund.IssuedBy,
			&refund.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}

	return refunds, rows.Err()
}

// Ensure implementation matches interface
var _ repository.RefundRepository = (*RefundRepositoryImpl)(nil)
