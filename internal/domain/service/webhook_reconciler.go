package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// WebhookReconciler applies gateway notifications to local state. The
// inbound request body is never trusted beyond the event id: the event is
// re-fetched from the gateway before anything changes. Every handler is a
// conditional state transition, so redelivered and reordered events settle
// on the same final state.
type WebhookReconciler struct {
	txnRepo      repository.TransactionRepository
	refundRepo   repository.RefundRepository
	subRepo      repository.SubscriptionRepository
	customerRepo repository.CustomerRepository
	tokenRepo    repository.PaymentTokenRepository
	client       gateway.Client
}

// NewWebhookReconciler creates a webhook reconciler
func NewWebhookReconciler(
	txnRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	subRepo repository.SubscriptionRepository,
	customerRepo repository.CustomerRepository,
	tokenRepo repository.PaymentTokenRepository,
	client gateway.Client,
) *WebhookReconciler {
	return &WebhookReconciler{
		txnRepo:      txnRepo,
		refundRepo:   refundRepo,
		subRepo:      subRepo,
		customerRepo: customerRepo,
		tokenRepo:    tokenRepo,
		client:       client,
	}
}

// Remote objects are decoded into just the fields the handlers act on.
// Null or absent fields decode to zero values and are handled, not errors.

type chargeEvent struct {
	ID             string `json:"id"`
	Customer       string `json:"customer"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Refunds        struct {
		Data []struct {
			ID     string `json:"id"`
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		} `json:"data"`
	} `json:"refunds"`
}

type disputeEvent struct {
	Charge string `json:"charge"`
	Status string `json:"status"`
}

type customerEvent struct {
	ID string `json:"id"`
}

type sourceEvent struct {
	ID       string `json:"id"`
	Last4    string `json:"last4"`
	Brand    string `json:"brand"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

type invoiceEvent struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Charge       string `json:"charge"`
	Total        int64  `json:"total"`
	Paid         bool   `json:"paid"`
	Status       string `json:"status"`
}

type subscriptionEvent struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// Process re-fetches the event by id and applies it. Event types this
// system does not act on are acknowledged without effect.
func (s *WebhookReconciler) Process(ctx context.Context, gctx gateway.Context, eventID string) error {
	event, err := s.client.RetrieveEvent(ctx, gctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to fetch event %s: %w", eventID, err)
	}

	logger := logging.WithComponent("webhook").With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("mode", gctx.Mode.String()),
	)

	switch event.Type {
	case "charge.succeeded":
		return s.setChargeStatus(ctx, gctx, logger, event.Object, valueobject.TxnStatusSucceeded)
	case "charge.failed":
		return s.setChargeStatus(ctx, gctx, logger, event.Object, valueobject.TxnStatusFailed)
	case "charge.refunded":
		return s.handleChargeRefunded(ctx, gctx, logger, event.Object)
	case "charge.dispute.created", "charge.dispute.updated", "charge.dispute.closed":
		return s.handleDispute(ctx, gctx, logger, event.Object)
	case "customer.deleted":
		return s.handleCustomerDeleted(ctx, gctx, logger, event.Object)
	case "customer.source.deleted":
		return s.handleSourceDeleted(ctx, gctx, logger, event.Object)
	case "customer.source.updated":
		return s.handleSourceUpdated(ctx, gctx, logger, event.Object)
	case "invoice.created":
		return s.handleInvoiceCreated(ctx, gctx, logger, event.Object)
	case "invoice.payment_succeeded":
		return s.handleInvoicePaid(ctx, gctx, logger, event.Object)
	case "invoice.payment_failed":
		return s.handleInvoiceFailed(ctx, gctx, logger, event.Object)
	case "customer.subscription.created":
		return s.handleSubscriptionCreated(ctx, gctx, logger, event.Object)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, gctx, logger, event.Object)
	default:
		logger.Debug("ignoring unhandled event type")
		return nil
	}
}

func (s *WebhookReconciler) setChargeStatus(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage, status valueobject.TransactionStatus) error {
	var charge chargeEvent
	if err := json.Unmarshal(object, &charge); err != nil {
		return fmt.Errorf("failed to decode charge: %w", err)
	}

	found, err := s.txnRepo.UpdateStatus(ctx, charge.ID, gctx.Mode, status)
	if err != nil {
		return err
	}
	if !found {
		// A charge this system never recorded, e.g. made directly in the
		// gateway dashboard. Nothing to reconcile.
		logger.Debug("charge has no local transaction", zap.String("charge_id", charge.ID))
	}
	return nil
}

// handleChargeRefunded records each remote refund exactly once and derives
// the transaction status from the gateway's cumulative refunded amount.
// Redeliveries hit the duplicate guard on the remote refund id and change
// nothing.
func (s *WebhookReconciler) handleChargeRefunded(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var charge chargeEvent
	if err := json.Unmarshal(object, &charge); err != nil {
		return fmt.Errorf("failed to decode charge: %w", err)
	}

	txn, err := s.txnRepo.GetByMethodID(ctx, charge.ID, gctx.Mode)
	if err != nil {
		if errors.Is(err, domainErrors.ErrTransactionNotFound) {
			logger.Debug("refunded charge has no local transaction", zap.String("charge_id", charge.ID))
			return nil
		}
		return err
	}

	for _, remote := range charge.Refunds.Data {
		refund := entity.NewRefund(txn.ID, remote.ID, remote.Amount)
		refund.Reason = remote.Reason
		refund.IssuedBy = "gateway"
		if err := s.refundRepo.Create(ctx, refund); err != nil {
			if errors.Is(err, domainErrors.ErrDuplicateRefund) {
				continue
			}
			return err
		}
		logger.Info("recorded gateway refund",
			zap.String("refund_id", remote.ID),
			zap.Int64("amount", remote.Amount),
		)
	}

	status := valueobject.TxnStatusPartialRefund
	if charge.AmountRefunded >= txn.Amount {
		status = valueobject.TxnStatusRefunded
	}
	_, err = s.txnRepo.UpdateStatus(ctx, charge.ID, gctx.Mode, status)
	return err
}

// handleDispute mirrors the gateway's dispute status onto the transaction.
// While a dispute is open the transaction leaves the cleared set; a won
// dispute clears it again.
func (s *WebhookReconciler) handleDispute(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var dispute disputeEvent
	if err := json.Unmarshal(object, &dispute); err != nil {
		return fmt.Errorf("failed to decode dispute: %w", err)
	}

	status, err := valueobject.DisputeStatus(dispute.Status)
	if err != nil {
		logger.Warn("unrecognized dispute status", zap.String("status", dispute.Status))
		return nil
	}

	_, err = s.txnRepo.UpdateStatus(ctx, dispute.Charge, gctx.Mode, status)
	return err
}

// handleCustomerDeleted drops the local mapping so the next purchase
// provisions a fresh remote customer. The delete is keyed on the remote id:
// a mapping that was already re-pointed at a new remote customer survives.
func (s *WebhookReconciler) handleCustomerDeleted(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var cus customerEvent
	if err := json.Unmarshal(object, &cus); err != nil {
		return fmt.Errorf("failed to decode customer: %w", err)
	}

	removed, err := s.customerRepo.DeleteByRemoteID(ctx, cus.ID, gctx.Mode)
	if err != nil {
		return err
	}
	if removed {
		logger.Info("unmapped deleted remote customer", zap.String("remote_customer_id", cus.ID))
	}
	return nil
}

// handleSourceDeleted drops the local token for a source removed at the
// gateway. Sources this system never stored are ignored.
func (s *WebhookReconciler) handleSourceDeleted(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var src sourceEvent
	if err := json.Unmarshal(object, &src); err != nil {
		return fmt.Errorf("failed to decode source: %w", err)
	}

	removed, err := s.tokenRepo.DeleteBySource(ctx, src.ID, gctx.Mode)
	if err != nil {
		return err
	}
	if removed {
		logger.Info("removed payment token for deleted source", zap.String("source_id", src.ID))
	}
	return nil
}

// handleSourceUpdated refreshes the redacted card details on the local
// token, e.g. after the gateway's automatic card updater rolls the expiry.
func (s *WebhookReconciler) handleSourceUpdated(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var src sourceEvent
	if err := json.Unmarshal(object, &src); err != nil {
		return fmt.Errorf("failed to decode source: %w", err)
	}

	token, err := s.tokenRepo.GetBySource(ctx, src.ID, gctx.Mode)
	if err != nil {
		if domainErrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if src.ExpMonth == 0 || src.ExpYear == 0 {
		return nil
	}
	if token.ExpMonth == src.ExpMonth && token.ExpYear == src.ExpYear {
		return nil
	}

	if err := s.tokenRepo.UpdateExpiry(ctx, token.ID, src.ExpMonth, src.ExpYear); err != nil {
		return err
	}

	logger.Info("refreshed payment token expiry from source update",
		zap.String("source_id", src.ID),
	)
	return nil
}

// handleInvoiceCreated pays an open invoice with the subscription's own
// payment token when one is set. The customer's default source is swapped
// in for the payment and restored afterwards, whether or not the payment
// went through.
func (s *WebhookReconciler) handleInvoiceCreated(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var inv invoiceEvent
	if err := json.Unmarshal(object, &inv); err != nil {
		return fmt.Errorf("failed to decode invoice: %w", err)
	}
	if inv.Subscription == "" || inv.Paid || inv.Status == "paid" || inv.Status == "void" {
		return nil
	}

	sub, err := s.subRepo.GetBySubscriberID(ctx, inv.Subscription, gctx.Mode)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}
	if sub.PaymentTokenID == nil {
		// No subscription-specific source; the gateway charges the
		// customer's default on its own schedule.
		return nil
	}

	token, err := s.tokenRepo.GetByID(ctx, *sub.PaymentTokenID)
	if err != nil {
		return err
	}

	cus, err := s.client.RetrieveCustomer(ctx, gctx, inv.Customer)
	if err != nil {
		return err
	}
	if cus.DefaultSource == token.Token {
		return nil
	}

	if _, err := s.client.UpdateDefaultSource(ctx, gctx, cus.ID, token.Token); err != nil {
		return err
	}

	_, payErr := s.client.PayInvoice(ctx, gctx, inv.ID)
	if payErr != nil {
		logger.Warn("invoice payment with subscription source failed",
			zap.String("invoice_id", inv.ID),
			zap.Error(payErr),
		)
	}

	if cus.DefaultSource != "" {
		if _, err := s.client.UpdateDefaultSource(ctx, gctx, cus.ID, cus.DefaultSource); err != nil {
			logging.CaptureError("failed to restore customer default source", err,
				zap.String("remote_customer_id", cus.ID),
			)
			return err
		}
	}

	return payErr
}

// handleInvoicePaid settles a billing cycle. The first paid invoice of a
// subscription converts the transaction's temporary subscription method id
// to the permanent charge id; later invoices create child transactions
// linked to the originating purchase. Free-trial invoices carry no charge
// and leave the temporary id in place.
func (s *WebhookReconciler) handleInvoicePaid(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var inv invoiceEvent
	if err := json.Unmarshal(object, &inv); err != nil {
		return fmt.Errorf("failed to decode invoice: %w", err)
	}
	if inv.Subscription == "" {
		return nil
	}

	_, err := s.txnRepo.GetByMethodID(ctx, inv.Subscription, gctx.Mode)
	switch {
	case err == nil:
		// Still on the temporary id: this is the subscription's first
		// settled invoice.
		if inv.Charge != "" && inv.Total > 0 {
			if err := s.txnRepo.ConvertMethodID(ctx, inv.Subscription, inv.Charge, gctx.Mode); err != nil {
				return err
			}
			logger.Info("converted transaction method id",
				zap.String("subscriber_id", inv.Subscription),
				zap.String("charge_id", inv.Charge),
			)
			if _, err := s.txnRepo.UpdateStatus(ctx, inv.Charge, gctx.Mode, valueobject.TxnStatusSucceeded); err != nil {
				return err
			}
		}
	case errors.Is(err, domainErrors.ErrTransactionNotFound):
		// Already converted: a renewal cycle. Record it as a child payment
		// unless this exact charge was already recorded.
		if err := s.recordRenewal(ctx, gctx, logger, inv); err != nil {
			return err
		}
	default:
		return err
	}

	found, err := s.subRepo.UpdateStatus(ctx, inv.Subscription, gctx.Mode, valueobject.SubStatusActive)
	if err != nil {
		return err
	}
	if !found {
		// Not a subscription we track. Acknowledge so the gateway stops
		// redelivering.
		logger.Debug("paid invoice has no local subscription", zap.String("subscriber_id", inv.Subscription))
		return nil
	}

	return s.subRepo.SetFailedInvoice(ctx, inv.Subscription, gctx.Mode, "")
}

func (s *WebhookReconciler) recordRenewal(ctx context.Context, gctx gateway.Context, logger *zap.Logger, inv invoiceEvent) error {
	if inv.Charge == "" {
		return nil
	}

	if _, err := s.txnRepo.GetByMethodID(ctx, inv.Charge, gctx.Mode); err == nil {
		return nil
	} else if !errors.Is(err, domainErrors.ErrTransactionNotFound) {
		return err
	}

	sub, err := s.subRepo.GetBySubscriberID(ctx, inv.Subscription, gctx.Mode)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			logger.Debug("renewal invoice has no local subscription", zap.String("subscriber_id", inv.Subscription))
			return nil
		}
		return err
	}

	parent, err := s.txnRepo.GetByID(ctx, sub.TransactionID)
	if err != nil {
		return err
	}

	child := entity.NewChildTransaction(parent, inv.Charge, inv.Total)
	child.Description = fmt.Sprintf("renewal payment for invoice %s", inv.ID)
	if err := s.txnRepo.Create(ctx, child); err != nil {
		if errors.Is(err, domainErrors.ErrDuplicateMethodID) {
			return nil
		}
		return err
	}

	logger.Info("recorded renewal payment",
		zap.String("charge_id", inv.Charge),
		zap.String("parent_id", parent.ID.String()),
		zap.Int64("amount", inv.Total),
	)
	return nil
}

// handleInvoiceFailed suspends the subscription and remembers the invoice
// so a payment method update can retry it directly.
func (s *WebhookReconciler) handleInvoiceFailed(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var inv invoiceEvent
	if err := json.Unmarshal(object, &inv); err != nil {
		return fmt.Errorf("failed to decode invoice: %w", err)
	}
	if inv.Subscription == "" {
		return nil
	}

	found, err := s.subRepo.UpdateStatus(ctx, inv.Subscription, gctx.Mode, valueobject.SubStatusSuspended)
	if err != nil {
		return err
	}
	if !found {
		logger.Debug("failed invoice has no local subscription", zap.String("subscriber_id", inv.Subscription))
		return nil
	}

	return s.subRepo.SetFailedInvoice(ctx, inv.Subscription, gctx.Mode, inv.ID)
}

func (s *WebhookReconciler) handleSubscriptionCreated(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var remote subscriptionEvent
	if err := json.Unmarshal(object, &remote); err != nil {
		return fmt.Errorf("failed to decode subscription: %w", err)
	}

	found, err := s.subRepo.UpdateStatus(ctx, remote.ID, gctx.Mode, valueobject.SubStatusActive)
	if err != nil {
		return err
	}
	if !found {
		// The purchase path creates the local record before the gateway
		// emits this event, so a miss means the subscription is not ours.
		logger.Debug("created subscription has no local record", zap.String("subscriber_id", remote.ID))
	}
	return nil
}

// handleSubscriptionDeleted records the terminal state. A subscription the
// platform already cancelled is left untouched, attribution included.
func (s *WebhookReconciler) handleSubscriptionDeleted(ctx context.Context, gctx gateway.Context, logger *zap.Logger, object json.RawMessage) error {
	var remote subscriptionEvent
	if err := json.Unmarshal(object, &remote); err != nil {
		return fmt.Errorf("failed to decode subscription: %w", err)
	}

	sub, err := s.subRepo.GetBySubscriberID(ctx, remote.ID, gctx.Mode)
	if err != nil {
		if errors.Is(err, domainErrors.ErrSubscriptionNotFound) {
			logger.Debug("deleted subscription has no local record", zap.String("subscriber_id", remote.ID))
			return nil
		}
		return err
	}
	if sub.IsCancelled() {
		return nil
	}

	if err := s.subRepo.MarkCancelled(ctx, sub.ID, "gateway", "cancelled at gateway"); err != nil {
		return err
	}

	logger.Info("subscription cancelled by gateway", zap.String("subscriber_id", remote.ID))
	return nil
}
