package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/repository"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/internal/infrastructure/logging"
)

// RefundCommand issues an admin refund against a transaction. A short lock
// on the transaction keeps a double-submitted refund from reaching the
// gateway twice; the sum of refunds can never exceed the charged amount.
type RefundCommand struct {
	txnRepo    repository.TransactionRepository
	refundRepo repository.RefundRepository
	client     gateway.Client
	locker     Locker
	lockTTL    time.Duration
}

// NewRefundCommand creates a new refund command
func NewRefundCommand(
	txnRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	client gateway.Client,
	locker Locker,
	lockTTL time.Duration,
) *RefundCommand {
	return &RefundCommand{
		txnRepo:    txnRepo,
		refundRepo: refundRepo,
		client:     client,
		locker:     locker,
		lockTTL:    lockTTL,
	}
}

// Execute executes the refund command
func (c *RefundCommand) Execute(ctx context.Context, gctx gateway.Context, transactionID uuid.UUID, issuedBy string, req *dto.RefundRequest) (*dto.RefundResponse, error) {
	release, err := c.locker.Acquire(ctx, fmt.Sprintf("refund-%s", transactionID), c.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	txn, err := c.txnRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Mode != gctx.Mode {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domainErrors.ErrTransactionNotFound)
	}
	if !txn.Refundable() {
		return nil, &domainErrors.ValidationError{Field: "transaction", Reason: "no refundable charge; the first invoice has not settled yet"}
	}

	refunded, err := c.refundRepo.SumByTransaction(ctx, txn.ID)
	if err != nil {
		return nil, err
	}
	if refunded+req.Amount > txn.Amount {
		return nil, &domainErrors.ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("refund of %d exceeds remaining balance %d", req.Amount, txn.Amount-refunded),
		}
	}

	remote, err := c.client.CreateRefund(ctx, gctx, gateway.RefundParams{
		ChargeID: txn.MethodID,
		Amount:   req.Amount,
		Reason:   req.Reason,
	})
	if err != nil {
		return nil, err
	}

	refund := entity.NewRefund(txn.ID, remote.ID, remote.Amount)
	refund.Reason = req.Reason
	refund.IssuedBy = issuedBy
	if err := c.refundRepo.Create(ctx, refund); err != nil {
		// The gateway webhook may have recorded the same refund already.
		if !errors.Is(err, domainErrors.ErrDuplicateRefund) {
			logging.CaptureError("refund issued but not recorded", err,
				zap.String("refund_id", remote.ID),
			)
			return nil, err
		}
	}

	total := refunded + remote.Amount
	status := valueobject.TxnStatusPartialRefund
	if total >= txn.Amount {
		status = valueobject.TxnStatusRefunded
	}
	if _, err := c.txnRepo.UpdateStatus(ctx, txn.MethodID, gctx.Mode, status); err != nil {
		return nil, err
	}

	logging.Info("refund issued",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("refund_id", remote.ID),
		zap.Int64("amount", remote.Amount),
		zap.String("issued_by", issuedBy),
	)

	return &dto.RefundResponse{
		RefundID:      remote.ID,
		TransactionID: txn.ID.String(),
		Amount:        remote.Amount,
		TotalRefunded: total,
		Status:        status.String(),
	}, nil
}
