package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/service"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// PurchaseCommand orchestrates a checkout: it provisions the remote
// customer, runs the charge or subscription, and records the local
// transaction. The transaction is written only after the remote operation
// succeeds; webhooks reconcile anything that settles later.
type PurchaseCommand struct {
	txnRepo     repository.TransactionRepository
	subRepo     repository.SubscriptionRepository
	tokenRepo   repository.PaymentTokenRepository
	provisioner *service.CustomerProvisioner
	planner     *service.PlanResolver
	client      gateway.Client
}

// NewPurchaseCommand creates a new purchase command
func NewPurchaseCommand(
	txnRepo repository.TransactionRepository,
	subRepo repository.SubscriptionRepository,
	tokenRepo repository.PaymentTokenRepository,
	provisioner *service.CustomerProvisioner,
	planner *service.PlanResolver,
	client gateway.Client,
) *PurchaseCommand {
	return &PurchaseCommand{
		txnRepo:     txnRepo,
		subRepo:     subRepo,
		tokenRepo:   tokenRepo,
		provisioner: provisioner,
		planner:     planner,
		client:      client,
	}
}

// purchaseSource is the resolved billing setup for one checkout: the remote
// customer, the source being charged, and the default source to put back
// once the purchase settles.
type purchaseSource struct {
	customer    *gateway.Customer
	customerID  *uuid.UUID
	sourceID    string
	prevDefault string
	tokenID     *uuid.UUID
}

// Execute executes the purchase command
func (c *PurchaseCommand) Execute(ctx context.Context, gctx gateway.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if _, err := valueobject.NewMoney(req.Amount, req.Currency); err != nil {
		return nil, err
	}
	if req.Source == "" && req.TokenID == "" {
		return nil, &domainErrors.ValidationError{Field: "source", Reason: "a source token or a stored token id is required"}
	}
	if req.Source != "" && req.TokenID != "" {
		return nil, &domainErrors.ValidationError{Field: "source", Reason: "source and token_id are mutually exclusive"}
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product id", domainErrors.ErrInvalidInput)
	}

	parentID, err := c.resolvePrior(ctx, gctx, req.PriorTransactionID)
	if err != nil {
		return nil, err
	}

	ps, err := c.resolveSource(ctx, gctx, req)
	if err != nil {
		return nil, err
	}

	if req.Recurring != nil {
		return c.subscribe(ctx, gctx, req, productID, ps, parentID)
	}
	return c.charge(ctx, gctx, req, ps, parentID)
}

// resolvePrior validates the optional prior-transaction reference used to
// link a renewal or upgrade purchase to the purchase it follows.
func (c *PurchaseCommand) resolvePrior(ctx context.Context, gctx gateway.Context, priorTxnID string) (*uuid.UUID, error) {
	if priorTxnID == "" {
		return nil, nil
	}

	priorID, err := uuid.Parse(priorTxnID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid prior transaction id", domainErrors.ErrInvalidInput)
	}
	prior, err := c.txnRepo.GetByID(ctx, priorID)
	if err != nil {
		return nil, err
	}
	if prior.Mode != gctx.Mode {
		return nil, fmt.Errorf("transaction %s: %w", priorID, domainErrors.ErrTransactionNotFound)
	}

	return &prior.ID, nil
}

// resolveSource returns the remote customer to bill with the purchase source
// set as their default, remembering the default it displaced. Guests get a
// throwaway remote customer; registered customers pay with either a new
// source token or one of their stored payment tokens.
func (c *PurchaseCommand) resolveSource(ctx context.Context, gctx gateway.Context, req *dto.CheckoutRequest) (*purchaseSource, error) {
	if req.CustomerID == "" {
		if req.TokenID != "" {
			return nil, &domainErrors.ValidationError{Field: "token_id", Reason: "stored tokens require a registered customer"}
		}
		cus, err := c.provisioner.CreateGuestCustomer(ctx, gctx, req.Email, req.Source)
		if err != nil {
			return nil, err
		}
		return &purchaseSource{customer: cus}, nil
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer id", domainErrors.ErrInvalidInput)
	}

	cus, err := c.provisioner.EnsureRemoteCustomer(ctx, gctx, customerID, req.Email)
	if err != nil {
		return nil, err
	}

	ps := &purchaseSource{
		customer:    cus,
		customerID:  &customerID,
		prevDefault: cus.DefaultSource,
	}

	if req.TokenID != "" {
		tokenID, err := uuid.Parse(req.TokenID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid token id", domainErrors.ErrInvalidInput)
		}
		token, err := c.tokenRepo.GetByID(ctx, tokenID)
		if err != nil {
			return nil, err
		}
		if token.CustomerID != customerID || token.Mode != gctx.Mode {
			return nil, fmt.Errorf("payment token %s: %w", tokenID, domainErrors.ErrNotFound)
		}
		ps.sourceID = token.Token
		ps.tokenID = &token.ID
	} else {
		src, err := c.client.CreateSource(ctx, gctx, cus.ID, gateway.SourceParams{Token: req.Source})
		if err != nil {
			return nil, err
		}
		ps.sourceID = src.ID
	}

	if _, err := c.client.UpdateDefaultSource(ctx, gctx, cus.ID, ps.sourceID); err != nil {
		return nil, err
	}

	return ps, nil
}

// restoreDefaultSource puts back the default source the purchase displaced.
// The payment already settled, so a failed restore is logged, not surfaced.
func (c *PurchaseCommand) restoreDefaultSource(ctx context.Context, gctx gateway.Context, ps *purchaseSource) {
	if ps.prevDefault == "" || ps.prevDefault == ps.sourceID {
		return
	}
	if _, err := c.client.UpdateDefaultSource(ctx, gctx, ps.customer.ID, ps.prevDefault); err != nil {
		logging.Warn("previous default source not restored",
			zap.String("remote_customer_id", ps.customer.ID),
			zap.String("source_id", ps.prevDefault),
			zap.Error(err),
		)
	}
}

func (c *PurchaseCommand) charge(ctx context.Context, gctx gateway.Context, req *dto.CheckoutRequest, ps *purchaseSource, parentID *uuid.UUID) (*dto.CheckoutResponse, error) {
	ch, err := c.client.CreateCharge(ctx, gctx, gateway.ChargeParams{
		CustomerID:  ps.customer.ID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	c.restoreDefaultSource(ctx, gctx, ps)

	txn := entity.NewTransaction(ch.ID, gctx.Mode, ch.Amount, ch.Currency)
	txn.CustomerID = ps.customerID
	txn.RemoteCustomerID = ps.customer.ID
	txn.ParentID = parentID
	txn.Description = req.Description
	if err := c.txnRepo.Create(ctx, txn); err != nil {
		logging.CaptureError("charge succeeded but transaction not recorded", err,
			zap.String("charge_id", ch.ID),
		)
		return nil, err
	}

	logging.Info("one-time purchase completed",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("charge_id", ch.ID),
		zap.Int64("amount", ch.Amount),
		zap.String("mode", gctx.Mode.String()),
	)

	return toCheckoutResponse(txn, nil), nil
}

// subscribe creates the remote subscription and records the transaction
// under the temporary subscription method id. The first paid invoice
// converts it to the permanent charge id.
func (c *PurchaseCommand) subscribe(ctx context.Context, gctx gateway.Context, req *dto.CheckoutRequest, productID uuid.UUID, ps *purchaseSource, parentID *uuid.UUID) (*dto.CheckoutResponse, error) {
	terms := valueobject.RecurringTerms{
		Amount:        req.Amount,
		Interval:      valueobject.Interval(req.Recurring.Interval),
		IntervalCount: req.Recurring.IntervalCount,
	}
	if req.Recurring.TrialInterval != "" {
		terms.TrialDays = valueobject.TrialDaysFrom(valueobject.Interval(req.Recurring.TrialInterval), req.Recurring.TrialCount)
	}

	planID, err := c.planner.Resolve(ctx, gctx, productID, req.ProductName, terms)
	if err != nil {
		return nil, err
	}

	if req.SignupFee > 0 {
		err := c.client.CreateInvoiceItem(ctx, gctx, gateway.InvoiceItemParams{
			CustomerID:  ps.customer.ID,
			Amount:      req.SignupFee,
			Currency:    req.Currency,
			Description: fmt.Sprintf("sign-up fee for %s", req.ProductName),
		})
		if err != nil {
			return nil, err
		}
	}

	remoteSub, err := c.client.CreateSubscription(ctx, gctx, gateway.SubscriptionParams{
		CustomerID: ps.customer.ID,
		PlanID:     planID,
	})
	if err != nil {
		return nil, err
	}
	c.restoreDefaultSource(ctx, gctx, ps)

	// Amount settled today. A trial defers the recurring charge to the
	// trial's end, so only the sign-up fee is due now.
	total := req.Amount + req.SignupFee
	if terms.TrialDays > 0 {
		total = req.SignupFee
	}

	txn := entity.NewTransaction(remoteSub.ID, gctx.Mode, total, req.Currency)
	txn.CustomerID = ps.customerID
	txn.RemoteCustomerID = ps.customer.ID
	txn.ParentID = parentID
	txn.Description = req.Description
	if err := c.txnRepo.Create(ctx, txn); err != nil {
		logging.CaptureError("subscription created but transaction not recorded", err,
			zap.String("subscriber_id", remoteSub.ID),
		)
		return nil, err
	}

	sub := entity.NewSubscription(txn.ID, remoteSub.ID, gctx.Mode)
	sub.PaymentTokenID = ps.tokenID
	if err := c.subRepo.Create(ctx, sub); err != nil {
		logging.CaptureError("subscription created but not recorded", err,
			zap.String("subscriber_id", remoteSub.ID),
		)
		return nil, err
	}

	logging.Info("subscription purchase completed",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("subscriber_id", remoteSub.ID),
		zap.String("plan_id", planID),
		zap.String("mode", gctx.Mode.String()),
	)

	return toCheckoutResponse(txn, sub), nil
}

func toCheckoutResponse(txn *entity.Transaction, sub *entity.Subscription) *dto.CheckoutResponse {
	resp := &dto.CheckoutResponse{
		TransactionID:      txn.ID.String(),
		MethodID:           txn.MethodID,
		Status:             txn.Status.String(),
		ClearedForDelivery: txn.ClearedForDelivery(),
	}
	if sub != nil {
		resp.SubscriptionID = sub.ID.String()
		resp.SubscriberID = sub.SubscriberID
	}
	return resp
}
