package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// PlanRepository defines the interface for product plan history
type PlanRepository interface {
	// Has reports whether a plan with this hash was already created for the
	// product in the given mode.
	Has(ctx context.Context, productID uuid.UUID, hash string, mode valueobject.Mode) (bool, error)

	// Record adds a plan hash to the product's history. Recording the same
	// hash twice is a no-op.
	Record(ctx context.Context, plan *entity.ProductPlan) error
}
