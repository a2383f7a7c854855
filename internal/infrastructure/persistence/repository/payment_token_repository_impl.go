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

// PaymentTokenRepositoryImpl implements PaymentTokenRepository
type PaymentTokenRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewPaymentTokenRepository creates a new payment token repository
func NewPaymentTokenRepository(pool *pgxpool.Pool) repository.PaymentTokenRepository {
	return &PaymentTokenRepositoryImpl{pool: pool}
}

const paymentTokenColumns = `id, customer_id, mode, kind, token, label, redacted, brand, exp_month, exp_year, funding, is_primary, created_at`

// Create persists a token
func (r *PaymentTokenRepositoryImpl) Create(ctx context.Context, token *entity.PaymentToken) error {
	query := `
		INSERT INTO payment_tokens (id, customer_id, mode, kind, token, label, redacted, brand, exp_month, exp_year, funding, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.CustomerID,
		token.Mode,
		token.Kind,
		token.Token,
		token.Label,
		token.Redacted,
		token.Brand,
		token.ExpMonth,
		token.ExpYear,
		token.Funding,
		token.IsPrimary,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment token: %w", err)
	}

	return nil
}

// GetByID retrieves a token by local id
func (r *PaymentTokenRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentToken, error) {
	query := `SELECT ` + paymentTokenColumns + ` FROM payment_tokens WHERE id = $1`

	token, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment token %s: %w", id, domainErrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment token: %w", err)
	}

	return token, nil
}

// GetBySource retrieves the token holding a gateway source id
func (r *PaymentTokenRepositoryImpl) GetBySource(ctx context.Context, source string, mode valueobject.Mode) (*entity.PaymentToken, error) {
	query := `SELECT ` + paymentTokenColumns + ` FROM payment_tokens WHERE token = $1 AND mode = $2`

	token, err := r.scanOne(r.pool.QueryRow(ctx, query, source, mode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment token for source %s: %w", source, domainErrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get payment token by source: %w", err)
	}

	return token, nil
}

// DeleteBySource removes the token holding a gateway source id
func (r *PaymentTokenRepositoryImpl) DeleteBySource(ctx context.Context, source string, mode valueobject.Mode) (bool, error) {
	query := `DELETE FROM payment_tokens WHERE token = $1 AND mode = $2`

	tag, err := r.pool.Exec(ctx, query, source, mode)
	if err != nil {
		return false, fmt.Errorf("failed to delete payment token: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// UpdateExpiry refreshes a card token's expiration
func (r *PaymentTokenRepositoryImpl) UpdateExpiry(ctx context.Context, id uuid.UUID, expMonth, expYear int) error {
	query := `UPDATE payment_tokens SET exp_month = $2, exp_year = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, expMonth, expYear)
	if err != nil {
		return fmt.Errorf("failed to update payment token expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment token %s: %w", id, domainErrors.ErrNotFound)
	}

	return nil
}

// CountByCustomer returns how many tokens a customer has stored in a mode
func (r *PaymentTokenRepositoryImpl) CountByCustomer(ctx context.Context, customerID uuid.UUID, mode valueobject.Mode) (int, error) {
	query := `SELECT COUNT(*) FROM payment_tokens WHERE customer_id = $1 AND mode = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, customerID, mode).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count payment tokens: %w", err)
	}

	return count, nil
}

// MakePrimary marks the token as the customer's default and clears the flag
// on their other tokens in the same mode. Both updates run in one
// transaction so there is never more than one primary.
func (r *PaymentTokenRepositoryImpl) MakePrimary(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	clear := `
		UPDATE payment_tokens
		SET is_primary = FALSE
		WHERE customer_id = (SELECT customer_id FROM payment_tokens WHERE id = $1)
		  AND mode = (SELECT mode FROM payment_tokens WHERE id = $1)
		  AND id <> $1
	`
	if _, err := tx.Exec(ctx, clear, id); err != nil {
		return fmt.Errorf("failed to clear primary tokens: %w", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE payment_tokens SET is_primary = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark token primary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payment token %s: %w", id, domainErrors.ErrNotFound)
	}

	return tx.Commit(ctx)
}

func (r *PaymentTokenRepositoryImpl) scanOne(row pgx.Row) (*entity.PaymentToken, error) {
	token := &entity.PaymentToken{}
	err := row.Scan(
		&token.ID,
		&token.CustomerID,
		&token.Mode,
		&token.Kind,
		&token.Token,
		&token.Label,
		&token.Redacted,
		&token.Brand,
		&token.ExpMonth,
		&token.ExpYear,
		&token.Funding,
		&token.IsPrimary,
		&token.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

// Ensure implementation matches interface
var _ repository.PaymentTokenRepository = (*PaymentTokenRepositoryImpl)(nil)
