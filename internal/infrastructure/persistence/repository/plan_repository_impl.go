package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// PlanRepositoryImpl implements PlanRepository
type PlanRepositoryImpl struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new product plan repository
func NewPlanRepository(pool *pgxpool.Pool) repository.PlanRepository {
	return &PlanRepositoryImpl{pool: pool}
}

// Has reports whether a plan with this hash was already created for the
// product in the given mode
func (r *PlanRepositoryImpl) Has(ctx context.Context, productID uuid.UUID, hash string, mode valueobject.Mode) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM product_plans WHERE product_id = $1 AND plan_hash = $2 AND mode = $3)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, productID, hash, mode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product plan: %w", err)
	}

	return exists, nil
}

// Record adds a plan hash to the product's history. Recording the same hash
// twice is a no-op.
func (r *PlanRepositoryImpl) Record(ctx context.Context, plan *entity.ProductPlan) error {
	query := `
		INSERT INTO product_plans (product_id, plan_hash, mode, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, plan_hash, mode) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		plan.ProductID,
		plan.PlanHash,
		plan.Mode,
		plan.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record product plan: %w", err)
	}

	return nil
}

// Ensure implementation matches interface
var _ repository.PlanRepository = (*PlanRepositoryImpl)(nil)
