package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/application/dto"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// UpdatePaymentMethodCommand points a subscription at a stored payment
// token. If a renewal payment already failed, the outstanding invoice is
// retried with the new token immediately: the customer's default source is
// swapped in just for that payment and restored afterwards, and a
// successful retry reactivates the subscription.
type UpdatePaymentMethodCommand struct {
	subRepo      repository.SubscriptionRepository
	tokenRepo    repository.PaymentTokenRepository
	customerRepo repository.CustomerRepository
	client       gateway.Client
}

// NewUpdatePaymentMethodCommand creates a new update payment method command
func NewUpdatePaymentMethodCommand(
	subRepo repository.SubscriptionRepository,
	tokenRepo repository.PaymentTokenRepository,
	customerRepo repository.CustomerRepository,
	client gateway.Client,
) *UpdatePaymentMethodCommand {
	return &UpdatePaymentMethodCommand{
		subRepo:      subRepo,
		tokenRepo:    tokenRepo,
		customerRepo: customerRepo,
		client:       client,
	}
}

// Execute executes the update payment method command
func (c *UpdatePaymentMethodCommand) Execute(ctx context.Context, gctx gateway.Context, subscriptionID uuid.UUID, req *dto.UpdatePaymentMethodRequest) (*dto.SubscriptionResponse, error) {
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

	tokenID, err := uuid.Parse(req.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token id", domainErrors.ErrInvalidInput)
	}

	token, err := c.tokenRepo.GetByID(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if token.Mode != gctx.Mode {
		return nil, fmt.Errorf("payment token %s: %w", tokenID, domainErrors.ErrNotFound)
	}

	if err := c.subRepo.SetPaymentToken(ctx, sub.ID, token.ID); err != nil {
		return nil, err
	}

	status := sub.Status
	if sub.FailedInvoiceID != "" {
		reactivated, err := c.retryFailedInvoice(ctx, gctx, sub.SubscriberID, sub.FailedInvoiceID, token.CustomerID, token.Token)
		if err != nil {
			return nil, err
		}
		if reactivated {
			status = valueobject.SubStatusActive
		}
	}

	return &dto.SubscriptionResponse{
		ID:           sub.ID.String(),
		SubscriberID: sub.SubscriberID,
		Status:       status.String(),
		Paused:       sub.Paused,
	}, nil
}

func (c *UpdatePaymentMethodCommand) retryFailedInvoice(ctx context.Context, gctx gateway.Context, subscriberID, invoiceID string, customerID uuid.UUID, source string) (bool, error) {
	remoteID, err := c.customerRepo.GetRemoteID(ctx, customerID, gctx.Mode)
	if err != nil {
		return false, err
	}

	cus, err := c.client.RetrieveCustomer(ctx, gctx, remoteID)
	if err != nil {
		return false, err
	}

	swapped := cus.DefaultSource != source
	if swapped {
		if _, err := c.client.UpdateDefaultSource(ctx, gctx, remoteID, source); err != nil {
			return false, err
		}
	}

	inv, payErr := c.client.PayInvoice(ctx, gctx, invoiceID)

	if swapped && cus.DefaultSource != "" {
		if _, err := c.client.UpdateDefaultSource(ctx, gctx, remoteID, cus.DefaultSource); err != nil {
			logging.CaptureError("failed to restore customer default source", err,
				zap.String("remote_customer_id", remoteID),
			)
			return false, err
		}
	}

	if payErr != nil {
		logging.Warn("failed invoice retry did not settle",
			zap.String("invoice_id", invoiceID),
			zap.Error(payErr),
		)
		return false, nil
	}
	if !inv.Paid {
		return false, nil
	}

	if err := c.subRepo.SetFailedInvoice(ctx, subscriberID, gctx.Mode, ""); err != nil {
		return false, err
	}
	if _, err := c.subRepo.UpdateStatus(ctx, subscriberID, gctx.Mode, valueobject.SubStatusActive); err != nil {
		return false, err
	}

	logging.Info("failed invoice settled with new payment method",
		zap.String("invoice_id", invoiceID),
		zap.String("subscriber_id", subscriberID),
	)
	return true, nil
}
