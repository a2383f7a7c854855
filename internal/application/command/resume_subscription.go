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

// ResumeSubscriptionCommand lifts a pause by removing the subscription's
// discount. Resuming a subscription that is not paused is a no-op. The
// remote discount removal happens under a short lock so a double submit
// cannot race itself.
type ResumeSubscriptionCommand struct {
	subRepo repository.SubscriptionRepository
	client  gateway.Client
	locker  Locker
	lockTTL time.Duration
}

// NewResumeSubscriptionCommand creates a new resume subscription command
func NewResumeSubscriptionCommand(subRepo repository.SubscriptionRepository, client gateway.Client, locker Locker, lockTTL time.Duration) *ResumeSubscriptionCommand {
	return &ResumeSubscriptionCommand{subRepo: subRepo, client: client, locker: locker, lockTTL: lockTTL}
}

// Execute executes the resume subscription command
func (c *ResumeSubscriptionCommand) Execute(ctx context.Context, gctx gateway.Context, subscriptionID uuid.UUID, actor string) (*dto.SubscriptionResponse, error) {
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
	if !sub.Paused {
		return toSubscriptionResponse(sub.ID.String(), sub.SubscriberID, sub.Status.String(), false), nil
	}

	release, err := c.locker.Acquire(ctx, fmt.Sprintf("resume-subscription-%s", sub.TransactionID), c.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	remote, err := c.client.DeleteSubscriptionDiscount(ctx, gctx, sub.SubscriberID)
	if err != nil {
		return nil, err
	}
	if remote.HasDiscount {
		return nil, domainErrors.NewGatewayError("", "pause discount was not removed", nil)
	}

	if err := c.subRepo.SetPaused(ctx, sub.ID, false, actor); err != nil {
		return nil, err
	}

	logging.Info("subscription resumed",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("subscriber_id", sub.SubscriberID),
		zap.String("resumed_by", actor),
	)

	return toSubscriptionResponse(sub.ID.String(), sub.SubscriberID, sub.Status.String(), false), nil
}
