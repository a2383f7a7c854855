package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/application/dto"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// Pausing is realized remotely as a shared 100%-off forever coupon on the
// subscription, so the billing schedule keeps running but every invoice
// totals zero. The coupon id is fixed; applying it twice is harmless.
const pauseCouponID = "PAUSE"

// PauseSubscriptionCommand suspends billing without changing the
// subscription's status. The remote coupon application happens under a
// short lock so a double submit cannot race itself.
type PauseSubscriptionCommand struct {
	subRepo repository.SubscriptionRepository
	client  gateway.Client
	locker  Locker
	lockTTL time.Duration
}

// NewPauseSubscriptionCommand creates a new pause subscription command
func NewPauseSubscriptionCommand(subRepo repository.SubscriptionRepository, client gateway.Client, locker Locker, lockTTL time.Duration) *PauseSubscriptionCommand {
	return &PauseSubscriptionCommand{subRepo: subRepo, client: client, locker: locker, lockTTL: lockTTL}
}

// Execute executes the pause subscription command
func (c *PauseSubscriptionCommand) Execute(ctx context.Context, gctx gateway.Context, subscriptionID uuid.UUID, actor string) (*dto.SubscriptionResponse, error) {
	sub, err := c.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Mode != gctx.Mode {
		return nil, fmt.Errorf("subscription %s: %w", subscriptionID, domainErrors.ErrSubscriptionNotFound)
	}
	if sub.IsCancelled() {
		return nil, domainErrors.ErrSubscriptionCancelled
	}
	if sub.Paused {
		return toSubscriptionResponse(sub.ID.String(), sub.SubscriberID, sub.Status.String(), true), nil
	}

	release, err := c.locker.Acquire(ctx, fmt.Sprintf("pause-subscription-%s", sub.TransactionID), c.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	couponID, err := c.client.GetOrCreateCoupon(ctx, gctx, gateway.CouponParams{
		ID:         pauseCouponID,
		Duration:   "forever",
		PercentOff: 100,
	})
	if err != nil {
		return nil, err
	}

	remote, err := c.client.ApplySubscriptionCoupon(ctx, gctx, sub.SubscriberID, couponID)
	if err != nil {
		return nil, err
	}
	if !remote.HasDiscount {
		return nil, domainErrors.NewGatewayError("", "pause discount was not applied", nil)
	}

	if err := c.subRepo.SetPaused(ctx, sub.ID, true, actor); err != nil {
		return nil, err
	}

	logging.Info("subscription paused",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("subscriber_id", sub.SubscriberID),
		zap.String("paused_by", actor),
	)

	return toSubscriptionResponse(sub.ID.String(), sub.SubscriberID, sub.Status.String(), true), nil
}

func toSubscriptionResponse(id, subscriberID, status string, paused bool) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		ID:           id,
		SubscriberID: subscriberID,
		Status:       status,
		Paused:       paused,
	}
}
