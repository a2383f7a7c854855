package command_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bivex/stripe-gateway/internal/application/command"
	"github.com/bivex/stripe-gateway/internal/domain/entity"
	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/tests/mocks"
)

func TestPauseSubscriptionCommand_Execute(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)

	t.Run("applies the pause coupon and flags the record", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewPauseSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		client.On("GetOrCreateCoupon", mock.Anything, gctx, gateway.CouponParams{
			ID:         "PAUSE",
			Duration:   "forever",
			PercentOff: 100,
		}).Return("PAUSE", nil)
		client.On("ApplySubscriptionCoupon", mock.Anything, gctx, "sub_1", "PAUSE").Return(&gateway.Subscription{ID: "sub_1", HasDiscount: true}, nil)
		subRepo.On("SetPaused", mock.Anything, sub.ID, true, "customer").Return(nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.NoError(t, err)
		assert.True(t, resp.Paused)
		assert.Equal(t, "active", resp.Status)
		subRepo.AssertExpectations(t)
	})

	t.Run("pausing a paused subscription is a no-op", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewPauseSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Paused = true
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.NoError(t, err)
		assert.True(t, resp.Paused)
		client.AssertNotCalled(t, "ApplySubscriptionCoupon", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("discount that did not apply fails", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewPauseSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		client.On("GetOrCreateCoupon", mock.Anything, gctx, mock.Anything).Return("PAUSE", nil)
		client.On("ApplySubscriptionCoupon", mock.Anything, gctx, "sub_1", "PAUSE").Return(&gateway.Subscription{ID: "sub_1", HasDiscount: false}, nil)

		_, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		var gatewayErr *domainErrors.GatewayError
		require.ErrorAs(t, err, &gatewayErr)
		subRepo.AssertNotCalled(t, "SetPaused", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("contended lock rejects the request", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewPauseSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		locker.On("Acquire", mock.Anything, "pause-subscription-"+sub.TransactionID.String(), lockTTL).Return(nil, domainErrors.ErrLockNotAcquired)

		_, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.ErrorIs(t, err, domainErrors.ErrLockNotAcquired)
		client.AssertNotCalled(t, "ApplySubscriptionCoupon", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled subscription cannot be paused", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewPauseSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Status = valueobject.SubStatusCancelled
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		_, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.ErrorIs(t, err, domainErrors.ErrSubscriptionCancelled)
	})
}

func TestResumeSubscriptionCommand_Execute(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)

	t.Run("removes the discount and clears the flag", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewResumeSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Paused = true
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		client.On("DeleteSubscriptionDiscount", mock.Anything, gctx, "sub_1").Return(&gateway.Subscription{ID: "sub_1", HasDiscount: false}, nil)
		subRepo.On("SetPaused", mock.Anything, sub.ID, false, "customer").Return(nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.NoError(t, err)
		assert.False(t, resp.Paused)
		subRepo.AssertExpectations(t)
	})

	t.Run("resuming a running subscription is a no-op", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewResumeSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)

		resp, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.NoError(t, err)
		assert.False(t, resp.Paused)
		client.AssertNotCalled(t, "DeleteSubscriptionDiscount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("contended lock rejects the request", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		cmd := command.NewResumeSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Paused = true
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		locker.On("Acquire", mock.Anything, "resume-subscription-"+sub.TransactionID.String(), lockTTL).Return(nil, domainErrors.ErrLockNotAcquired)

		_, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		require.ErrorIs(t, err, domainErrors.ErrLockNotAcquired)
		client.AssertNotCalled(t, "DeleteSubscriptionDiscount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("discount that survived the delete fails", func(t *testing.T) {
		subRepo := mocks.NewMockSubscriptionRepository()
		client := mocks.NewMockGatewayClient()
		locker := mocks.NewMockLocker()
		locker.On("Acquire", mock.Anything, mock.AnythingOfType("string"), lockTTL).Return(func() {}, nil).Maybe()
		cmd := command.NewResumeSubscriptionCommand(subRepo, client, locker, lockTTL)

		sub := entity.NewSubscription(uuid.New(), "sub_1", valueobject.ModeSandbox)
		sub.Paused = true
		subRepo.On("GetByID", mock.Anything, sub.ID).Return(sub, nil)
		client.On("DeleteSubscriptionDiscount", mock.Anything, gctx, "sub_1").Return(&gateway.Subscription{ID: "sub_1", HasDiscount: true}, nil)

		_, err := cmd.Execute(ctx, gctx, sub.ID, "customer")

		var gatewayErr *domainErrors.GatewayError
		require.ErrorAs(t, err, &gatewayErr)
		subRepo.AssertNotCalled(t, "SetPaused", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
