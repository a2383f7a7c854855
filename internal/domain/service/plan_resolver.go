package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"

	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// PlanResolver maps a product's recurring terms to a remote plan id. Plans
// are content-addressed: the id is a hash of the billing terms, so identical
// terms resolve to one shared remote plan and changed terms mint a new one
// without touching plans that existing subscribers still renew on.
type PlanResolver struct {
	planRepo repository.PlanRepository
	client   gateway.Client
	currency string
}

// NewPlanResolver creates a plan resolver
func NewPlanResolver(planRepo repository.PlanRepository, client gateway.Client, currency string) *PlanResolver {
	return &PlanResolver{
		planRepo: planRepo,
		client:   client,
		currency: currency,
	}
}

// Resolve returns the remote plan id for the product's terms, creating the
// remote plan on first use. A create that collides with a plan another
// request already made is adopted, not treated as a failure.
func (s *PlanResolver) Resolve(ctx context.Context, gctx gateway.Context, productID uuid.UUID, productName string, terms valueobject.RecurringTerms) (string, error) {
	if err := terms.Validate(); err != nil {
		return "", fmt.Errorf("invalid recurring terms: %w", err)
	}

	hash := entity.PlanHash(terms)

	known, err := s.planRepo.Has(ctx, productID, hash, gctx.Mode)
	if err != nil {
		return "", err
	}
	if known {
		_, err := s.client.RetrievePlan(ctx, gctx, hash)
		if err == nil {
			return hash, nil
		}
		if !domainErrors.IsNotFound(err) {
			return "", err
		}
		// The recorded plan was deleted on the gateway side. Recreate it
		// under the same id so subscriptions keep resolving.
		logging.Warn("recorded remote plan missing, recreating",
			zap.String("plan_id", hash),
			zap.String("product_id", productID.String()),
		)
	}

	_, err = s.client.CreatePlan(ctx, gctx, gateway.PlanParams{
		ID:       hash,
		Name:     productName,
		Currency: s.currency,
		Terms:    terms,
	})
	if err != nil {
		if !domainErrors.IsConflict(err) {
			return "", err
		}
		// Another product or an earlier deployment already created a plan
		// with these exact terms. Adopt it.
		logging.Debug("adopting existing remote plan",
			zap.String("plan_id", hash),
			zap.String("product_id", productID.String()),
		)
	}

	if !known {
		if err := s.planRepo.Record(ctx, entity.NewProductPlan(productID, hash, gctx.Mode)); err != nil {
			return "", err
		}
	}

	return hash, nil
}
