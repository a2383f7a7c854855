package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// SubscriptionRepositoryImpl implements SubscriptionRepository
type SubscriptionRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(pool *pgxpool.Pool) repository.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{pool: pool}
}

const subscriptionColumns = `id, transaction_id, subscriber_id, mode, status, payment_token_id, paused, cancelled_by, cancellation_reason, paused_by, resumed_by, failed_invoice_id, created_at, updated_at`

// Create persists a subscription with its subscriber id
func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, transaction_id, subscriber_id, mode, status, payment_token_id, paused, cancelled_by, cancellation_reason, paused_by, resumed_by, failed_invoice_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.TransactionID,
		sub.SubscriberID,
		sub.Mode,
		sub.Status,
		sub.PaymentTokenID,
		sub.Paused,
		sub.CancelledBy,
		sub.CancellationReason,
		sub.PausedBy,
		sub.ResumedBy,
		sub.FailedInvoiceID,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetByID retrieves a subscription by ID
func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription %s: %w", id, domainErrors.ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

// GetBySubscriberID retrieves the subscription owning a gateway subscription id
func (r *SubscriptionRepositoryImpl) GetBySubscriberID(ctx context.Context, subscriberID string, mode valueobject.Mode) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE subscriber_id = $1 AND mode = $2`

	sub, err := r.scanOne(r.pool.QueryRow(ctx, query, subscriberID, mode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription for subscriber %s: %w", subscriberID, domainErrors.ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription by subscriber id: %w", err)
	}

	return sub, nil
}

// GetByTransactionID retrieves the subscription created by a transaction
func (r *SubscriptionRepositoryImpl) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE transaction_id = $1`

	sub, err := r.scanOne(r.pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subscription for transaction %s: %w", transactionID, domainErrors.ErrSubscriptionNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription by transaction id: %w", err)
	}

	return sub, nil
}

// UpdateStatus atomically sets the subscriber's status. The cancelled guard
// lives in the WHERE clause, so a late status event racing an admin cancel
// cannot reactivate the record.
func (r *SubscriptionRepositoryImpl) UpdateStatus(ctx context.Context, subscriberID string, mode valueobject.Mode, status valueobject.SubscriptionStatus) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = $3, updated_at = NOW()
		WHERE subscriber_id = $1 AND mode = $2 AND status <> 'cancelled' AND status <> $3
	`

	tag, err := r.pool.Exec(ctx, query, subscriberID, mode, status)
	if err != nil {
		return false, fmt.Errorf("failed to update subscription status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND mode = $2)`,
		subscriberID, mode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription existence: %w", err)
	}

	return exists, nil
}

// MarkCancelled records the terminal state with actor attribution
func (r *SubscriptionRepositoryImpl) MarkCancelled(ctx context.Context, id uuid.UUID, cancelledBy, reason string) error {
	query := `
		UPDATE subscriptions
		SET status = 'cancelled', cancelled_by = $2, cancellation_reason = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, cancelledBy, reason)
	if err != nil {
		return fmt.Errorf("failed to mark subscription cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s: %w", id, domainErrors.ErrSubscriptionNotFound)
	}

	return nil
}

// SetPaused flips the pause flag and records the acting party
func (r *SubscriptionRepositoryImpl) SetPaused(ctx context.Context, id uuid.UUID, paused bool, actor string) error {
	var query string
	if paused {
		query = `
			UPDATE subscriptions
			SET paused = TRUE, paused_by = $2, updated_at = NOW()
			WHERE id = $1
		`
	} else {
		query = `
			UPDATE subscriptions
			SET paused = FALSE, resumed_by = $2, updated_at = NOW()
			WHERE id = $1
		`
	}

	tag, err := r.pool.Exec(ctx, query, id, actor)
	if err != nil {
		return fmt.Errorf("failed to set subscription pause state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s: %w", id, domainErrors.ErrSubscriptionNotFound)
	}

	return nil
}

// SetPaymentToken points the subscription at a stored payment token
func (r *SubscriptionRepositoryImpl) SetPaymentToken(ctx context.Context, id uuid.UUID, tokenID uuid.UUID) error {
	query := `
		UPDATE subscriptions
		SET payment_token_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, tokenID)
	if err != nil {
		return fmt.Errorf("failed to set subscription payment token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription %s: %w", id, domainErrors.ErrSubscriptionNotFound)
	}

	return nil
}

// SetFailedInvoice records the invoice to retry once the payment method is
// updated; an empty invoice id clears the marker.
func (r *SubscriptionRepositoryImpl) SetFailedInvoice(ctx context.Context, subscriberID string, mode valueobject.Mode, invoiceID string) error {
	query := `
		UPDATE subscriptions
		SET failed_invoice_id = $3, updated_at = NOW()
		WHERE subscriber_id = $1 AND mode = $2
	`

	tag, err := r.pool.Exec(ctx, query, subscriberID, mode, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to set failed invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription for subscriber %s: %w", subscriberID, domainErrors.ErrSubscriptionNotFound)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) scanOne(row pgx.Row) (*entity.Subscription, error) {
	sub := &entity.Subscription{}
	err := row.Scan(
		&sub.ID,
		&sub.TransactionID,
		&sub.SubscriberID,
		&sub.Mode,
		&sub.Status,
		&sub.PaymentTokenID,
		&sub.Paused,
		&sub.CancelledBy,
		&sub.CancellationReason,
		&sub.PausedBy,
		&sub.ResumedBy,
		&sub.FailedInvoiceID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Ensure implementation matches interface
var _ repository.SubscriptionRepository = (*SubscriptionRepositoryImpl)(nil)
