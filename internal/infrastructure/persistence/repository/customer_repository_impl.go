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

// CustomerRepositoryImpl implements CustomerRepository
type CustomerRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new customer mapping repository
func NewCustomerRepository(pool *pgxpool.Pool) repository.CustomerRepository {
	return &CustomerRepositoryImpl{pool: pool}
}

// GetRemoteID returns the remote customer id mapped for (customer, mode)
func (r *CustomerRepositoryImpl) GetRemoteID(ctx context.Context, customerID uuid.UUID, mode valueobject.Mode) (string, error) {
	query := `SELECT remote_customer_id FROM customer_mappings WHERE customer_id = $1 AND mode = $2`

	var remoteID string
	err := r.pool.QueryRow(ctx, query, customerID, mode).Scan(&remoteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("customer mapping for %s: %w", customerID, domainErrors.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get customer mapping: %w", err)
	}

	return remoteID, nil
}

// SetRemoteID upserts the mapping for (customer, mode)
func (r *CustomerRepositoryImpl) SetRemoteID(ctx context.Context, mapping *entity.CustomerMapping) error {
	query := `
		INSERT INTO customer_mappings (customer_id, mode, remote_customer_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id, mode)
		DO UPDATE SET remote_customer_id = EXCLUDED.remote_customer_id
	`

	_, err := r.pool.Exec(ctx, query,
		mapping.CustomerID,
		mapping.Mode,
		mapping.RemoteCustomerID,
		mapping.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set customer mapping: %w", err)
	}

	return nil
}

// DeleteByRemoteID clears whichever mapping currently points at the remote
// id. The remote id is part of the predicate: a mapping already re-created
// against a new remote customer no longer matches and is left alone.
func (r *CustomerRepositoryImpl) DeleteByRemoteID(ctx context.Context, remoteID string, mode valueobject.Mode) (bool, error) {
	query := `DELETE FROM customer_mappings WHERE remote_customer_id = $1 AND mode = $2`

	tag, err := r.pool.Exec(ctx, query, remoteID, mode)
	if err != nil {
		return false, fmt.Errorf("failed to delete customer mapping: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Ensure implementation matches interface
var _ repository.CustomerRepository = (*CustomerRepositoryImpl)(nil)
