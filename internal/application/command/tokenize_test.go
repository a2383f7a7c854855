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
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/service"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/tests/mocks"
)

func TestTokenizeCommand_Execute(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)
	customerID := uuid.New()

	newFixture := func() (*mocks.MockCustomerRepository, *mocks.MockPaymentTokenRepository, *mocks.MockGatewayClient, *command.TokenizeCommand) {
		customerRepo := mocks.NewMockCustomerRepository()
		tokenRepo := mocks.NewMockPaymentTokenRepository()
		client := mocks.NewMockGatewayClient()
		cmd := command.NewTokenizeCommand(service.NewCustomerProvisioner(customerRepo, tokenRepo, client))
		return customerRepo, tokenRepo, client, cmd
	}

	t.Run("stores a card from a gateway token", func(t *testing.T) {
		customerRepo, tokenRepo, client, cmd := newFixture()

		customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1"}, nil)
		client.On("CreateSource", mock.Anything, gctx, "cus_1", gateway.SourceParams{Token: "tok_visa"}).Return(&gateway.Source{
			ID: "card_1", Kind: "card", Last4: "4242", Brand: "Visa",
		}, nil)
		tokenRepo.On("CountByCustomer", mock.Anything, customerID, valueobject.ModeSandbox).Return(1, nil)
		tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := cmd.Execute(ctx, gctx, &dto.TokenizeRequest{
			CustomerID: customerID.String(),
			Email:      "u@example.com",
			Token:      "tok_visa",
		})

		require.NoError(t, err)
		assert.Equal(t, "card", resp.Kind)
		assert.Equal(t, "4242", resp.Redacted)
		assert.False(t, resp.IsPrimary)
	})

	t.Run("rejects more than one source kind", func(t *testing.T) {
		_, _, client, cmd := newFixture()

		_, err := cmd.Execute(ctx, gctx, &dto.TokenizeRequest{
			CustomerID: customerID.String(),
			Email:      "u@example.com",
			Token:      "tok_visa",
			Card:       &dto.CardRequest{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030},
		})

		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		client.AssertNotCalled(t, "CreateSource", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a request with no source at all", func(t *testing.T) {
		_, _, _, cmd := newFixture()

		_, err := cmd.Execute(ctx, gctx, &dto.TokenizeRequest{
			CustomerID: customerID.String(),
			Email:      "u@example.com",
		})

		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("rejects a malformed customer id", func(t *testing.T) {
		_, _, _, cmd := newFixture()

		_, err := cmd.Execute(ctx, gctx, &dto.TokenizeRequest{
			CustomerID: "not-a-uuid",
			Email:      "u@example.com",
			Token:      "tok_visa",
		})

		require.ErrorIs(t, err, domainErrors.ErrInvalidInput)
	})
}
