package command_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
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

func TestUpdatePaymentMethodCommand_Execute(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)
	customerID := uuid.New()

	newFixture := func() (*mocks.MockSubscriptionRepository, *mocks.MockPaymentTokenRepository, *mocks.MockCustomerRepository, *mocks.MockGatewayClient, *command.UpdatePaymentMethodCommand) {
		subRepo := mocks.NewMockSubscriptionRepository()
		tokenRepo := mocks.NewMockPaymentTokenRepository()
		customerRepo := mocks.NewMockCustomerRepository()
		client := mocks.NewMockGatewayClient()
		cmd := command.NewUpdatePaymentMethodCommand(subRepo, tokenRepo, customerRepo, client)
		return subRepo, tokenRepo, customerRepo, client, cmd
	}

	newToken := func() *entity.PaymentToken {
		return entity.NewPaymentToken(customerID, valueobject.ModeSandbox, entity.TokenKindCard, "card_new", "4242")
	}

	t.Run("points the subscription at the token", func(t *testing.T) {
		subRepo, tokenRepo, _, client, cmd := newFixture()

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		token := newToken()
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)
		subRepo.On("SetPaymentToken", mock.Anything, sub.ID, token.ID).Return(nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, &dto.UpdatePaymentMethodRequest{TokenID: token.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, "active", resp.Status)
		client.AssertNotCalled(t, "PayInvoice", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries the failed invoice and reactivates", func(t *testing.T) {
		subRepo, tokenRepo, customerRepo, client, cmd := newFixture()

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Status = valueobject.SubStatusSuspended
		sub.FailedInvoiceID = "in_9"
		token := newToken()

		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)
		subRepo.On("SetPaymentToken", mock.Anything, sub.ID, token.ID).Return(nil)
		customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1", DefaultSource: "card_old"}, nil)
		client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_new").Return(&gateway.Customer{ID: "cus_1"}, nil)
		client.On("PayInvoice", mock.Anything, gctx, "in_9").Return(&gateway.Invoice{ID: "in_9", Paid: true}, nil)
		client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_old").Return(&gateway.Customer{ID: "cus_1"}, nil)
		subRepo.On("SetFailedInvoice", mock.Anything, "sub_1", valueobject.ModeSandbox, "").Return(nil)
		subRepo.On("UpdateStatus", mock.Anything, "sub_1", valueobject.ModeSandbox, valueobject.SubStatusActive).Return(true, nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, &dto.UpdatePaymentMethodRequest{TokenID: token.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, "active", resp.Status)
		client.AssertExpectations(t)
		subRepo.AssertExpectations(t)
	})

	t.Run("retry that does not settle keeps the subscription suspended", func(t *testing.T) {
		subRepo, tokenRepo, customerRepo, client, cmd := newFixture()

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Status = valueobject.SubStatusSuspended
		sub.FailedInvoiceID = "in_9"
		token := newToken()

		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)
		subRepo.On("SetPaymentToken", mock.Anything, sub.ID, token.ID).Return(nil)
		customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1", DefaultSource: "card_old"}, nil)
		client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_new").Return(&gateway.Customer{ID: "cus_1"}, nil)
		client.On("PayInvoice", mock.Anything, gctx, "in_9").Return(nil, domainErrors.NewGatewayError("card_declined", "card was declined", nil))
		client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_old").Return(&gateway.Customer{ID: "cus_1"}, nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, &dto.UpdatePaymentMethodRequest{TokenID: token.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, "suspended", resp.Status)
		subRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("token from another mode reads as missing", func(t *testing.T) {
		subRepo, tokenRepo, _, _, cmd := newFixture()

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		token := entity.NewPaymentToken(customerID, valueobject.ModeLive, entity.TokenKindCard, "card_new", "4242")
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)

		_, err := cmd.Execute(ctx, gctx, sub.ID, &dto.UpdatePaymentMethodRequest{TokenID: token.ID.String()})

		require.ErrorIs(t, err, domainErrors.ErrNotFound)
		subRepo.AssertNotCalled(t, "SetPaymentToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled subscription rejects the update", func(t *testing.T) {
		subRepo, _, _, _, cmd := newFixture()

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Status = valueobject.SubStatusCancelled
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		_, err := cmd.Execute(ctx, gctx, sub.ID, &dto.UpdatePaymentMethodRequest{TokenID: uuid.NewString()})

		require.ErrorIs(t, err, domainErrors.ErrSubscriptionCancelled)
	})
}
