package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/application/dto"
	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/tests/mocks"
)

const lockTTL = 3 * time.Second

func TestRefundCommand_Execute(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)

	newTxn := func() *entity.Transaction {
		return entity.NewTransaction("ch_100", valueobject.ModeSandbox, 1000, "USD")
	}

	grantLock := func(locker *mocks.MockLocker) {
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil)
	}

	t.Run("partial refund", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := newTxn()
		grantLock(locker)
		txnRepo.On("GetByID", mock.Anything, txn.ID).Return(txn, nil)
		refundRepo.On("SumByTransaction", mock.Anything, txn.ID).Return(int64(0), nil)
		client.On("CreateRefund", mock.Anything, gctx, gateway.RefundParams{
			ChargeID: "ch_100",
			Amount:   300,
			Reason:   "requested_by_customer",
		}).Return(&gateway.Refund{ID: "re_1", Amount: 300}, nil)
		refundRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *entity.Refund) bool {
			return r.RemoteID == "re_1" && r.Amount == 300 && r.IssuedBy == "admin@example.com"
		})).Return(nil)
		txnRepo.On("UpdateStatus", mock.Anything, "ch_100", valueobject.ModeSandbox, valueobject.TxnStatusPartialRefund).Return(true, nil)

		resp, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300, Reason: "requested_by_customer"})

		require.NoError(t, err)
		assert.Equal(t, "re_1", resp.RefundID)
		assert.Equal(t, int64(300), resp.TotalRefunded)
		assert.Equal(t, "partial-refund", resp.Status)
	})

	t.Run("final refund marks the transaction refunded", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := newTxn()
		grantLock(locker)
		txnRepo.On("GetByID", mock.Anything, txn.ID).Return(txn, nil)
		refundRepo.On("SumByTransaction", mock.Anything, txn.ID).Return(int64(700), nil)
		client.On("CreateRefund", mock.Anything, gctx, mock.Anything).Return(&gateway.Refund{ID: "re_2", Amount: 300}, nil)
		refundRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		txnRepo.On("UpdateStatus", mock.Anything, "ch_100", valueobject.ModeSandbox, valueobject.TxnStatusRefunded).Return(true, nil)

		resp, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300})

		require.NoError(t, err)
		assert.Equal(t, int64(1000), resp.TotalRefunded)
		assert.Equal(t, "refunded", resp.Status)
	})

	t.Run("refund exceeding the remaining balance is rejected", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := newTxn()
		grantLock(locker)
		txnRepo.On("GetByID", mock.Anything, txn.ID).Return(txn, nil)
		refundRepo.On("SumByTransaction", mock.Anything, txn.ID).Return(int64(800), nil)

		_, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300})

		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		client.AssertNotCalled(t, "CreateRefund", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unconverted subscription transaction is not refundable", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := entity.NewTransaction("sub_1", valueobject.ModeSandbox, 1000, "USD")
		grantLock(locker)
		txnRepo.On("GetByID", mock.Anything, txn.ID).Return(txn, nil)

		_, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300})

		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("transaction from another mode reads as missing", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := entity.NewTransaction("ch_100", valueobject.ModeLive, 1000, "USD")
		grantLock(locker)
		txnRepo.On("GetByID", mock.Anything, txn.ID).Return(txn, nil)

		_, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300})

		require.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
	})

	t.Run("contended lock rejects the request", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := newTxn()
		locker.On("Acquire", mock.Anything, "refund-"+txn.ID.String(), lockTTL).Return(nil, domainErrors.ErrLockNotAcquired)

		_, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300})

		require.ErrorIs(t, err, domainErrors.ErrLockNotAcquired)
		txnRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("webhook already recorded the refund", func(t *testing.T) {
		txnRepo := mocks.NewMockTransactionRepository()
		refundRepo := mocks.NewMockRefundRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewRefundCommand(txnRepo, refundRepo, client, locker, lockTTL)

		txn := newTxn()
		grantLock(locker)
		txnRepo.On("GetByID", mock.Anything, txn.ID).Return(txn, nil)
		refundRepo.On("SumByTransaction", mock.Anything, txn.ID).Return(int64(0), nil)
		client.On("CreateRefund", mock.Anything, gctx, mock.Anything).Return(&gateway.Refund{ID: "re_1", Amount: 300}, nil)
		refundRepo.On("Create", mock.Anything, mock.Anything).Return(domainErrors.ErrDuplicateRefund)
		txnRepo.On("UpdateStatus", mock.Anything, "ch_100", valueobject.ModeSandbox, valueobject.TxnStatusPartialRefund).Return(true, nil)

		resp, err := cmd.Execute(ctx, gctx, txn.ID, "admin@example.com", &dto.RefundRequest{Amount: 300})

		require.NoError(t, err)
		assert.Equal(t, "re_1", resp.RefundID)
	})
}
