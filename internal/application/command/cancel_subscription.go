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

// CancelSubscriptionCommand cancels a subscription remotely and records the
// terminal state locally with the acting party. The remote cancel happens
// under a short lock so a double submit cannot race itself.
type CancelSubscriptionCommand struct {
	subRepo repository.SubscriptionRepository
	client  gateway.Client
	locker  Locker
	lockTTL time.Duration
}

// NewCancelSubscriptionCommand creates a new cancel subscription command
func NewCancelSubscriptionCommand(
	subRepo repository.SubscriptionRepository,
	client gateway.Client,
	locker Locker,
	lockTTL time.Duration,
) *CancelSubscriptionCommand {
	return &CancelSubscriptionCommand{
		subRepo: subRepo,
		client:  client,
		locker:  locker,
		lockTTL: lockTTL,
	}
}

// Execute executes the cancel subscription command
func (c *CancelSubscriptionCommand) Execute(ctx context.Context, gctx gateway.Context, subscriptionID uuid.UUID, actor string, req *dto.CancelSubscriptionRequest) (*dto.SubscriptionResponse, error) {
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
	if sub.SubscriberID == "" {
		return nil, domainErrors.ErrMissingSubscriberID
	}

	release, err := c.locker.Acquire(ctx, fmt.Sprintf("cancel-subscription-%s", sub.TransactionID), c.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	// A missing remote subscription signals local/remote divergence;
	// surface it instead of cancelling a record the gateway no longer
	// knows about.
	remote, err := c.client.CancelSubscription(ctx, gctx, sub.SubscriberID, req.AtPeriodEnd)
	if err != nil {
		return nil, err
	}
	if !req.AtPeriodEnd && remote.CanceledAt == 0 && remote.Status != "canceled" {
		return nil, domainErrors.NewGatewayError("", "subscription was not cancelled remotely", nil)
	}

	if err := c.subRepo.MarkCancelled(ctx, sub.ID, actor, req.Reason); err != nil {
		return nil, err
	}
	sub.CancelledBy = actor
	sub.CancellationReason = req.Reason

	logging.Info("subscription cancelled",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("subscriber_id", sub.SubscriberID),
		zap.String("cancelled_by", actor),
		zap.Bool("at_period_end", req.AtPeriodEnd),
	)

	return &dto.SubscriptionResponse{
		ID:           sub.ID.String(),
		SubscriberID: sub.SubscriberID,
		Status:       "cancelled",
		Paused:       sub.Paused,
	}, nil
}
