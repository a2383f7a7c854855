package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bivex/stripe-gateway/internal/domain/gateway"
)

// MockGatewayClient is a mock implementation of the gateway Client
type MockGatewayClient struct {
	mock.Mock
}

// NewMockGatewayClient creates a new mock gateway client
func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{}
}

func (m *MockGatewayClient) CreateCustomer(ctx context.Context, gctx gateway.Context, params gateway.CustomerParams) (*gateway.Customer, error) {
	args := m.Called(ctx, gctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Customer), args.Error(1)
}

func (m *MockGatewayClient) RetrieveCustomer(ctx context.Context, gctx gateway.Context, id string) (*gateway.Customer, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Customer), args.Error(1)
}

func (m *MockGatewayClient) UpdateDefaultSource(ctx context.Context, gctx gateway.Context, customerID, sourceID string) (*gateway.Customer, error) {
	args := m.Called(ctx, gctx, customerID, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Customer), args.Error(1)
}

func (m *MockGatewayClient) CreateSource(ctx context.Context, gctx gateway.Context, customerID string, params gateway.SourceParams) (*gateway.Source, error) {
	args := m.Called(ctx, gctx, customerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Source), args.Error(1)
}

func (m *MockGatewayClient) UpdateSourceExpiry(ctx context.Context, gctx gateway.Context, customerID, sourceID string, expMonth, expYear int) (*gateway.Source, error) {
	args := m.Called(ctx, gctx, customerID, sourceID, expMonth, expYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Source), args.Error(1)
}

func (m *MockGatewayClient) CreateCharge(ctx context.Context, gctx gateway.Context, params gateway.ChargeParams) (*gateway.Charge, error) {
	args := m.Called(ctx, gctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Charge), args.Error(1)
}

func (m *MockGatewayClient) CreatePlan(ctx context.Context, gctx gateway.Context, params gateway.PlanParams) (*gateway.Plan, error) {
	args := m.Called(ctx, gctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Plan), args.Error(1)
}

func (m *MockGatewayClient) RetrievePlan(ctx context.Context, gctx gateway.Context, id string) (*gateway.Plan, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Plan), args.Error(1)
}

func (m *MockGatewayClient) CreateSubscription(ctx context.Context, gctx gateway.Context, params gateway.SubscriptionParams) (*gateway.Subscription, error) {
	args := m.Called(ctx, gctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Subscription), args.Error(1)
}

func (m *MockGatewayClient) RetrieveSubscription(ctx context.Context, gctx gateway.Context, id string) (*gateway.Subscription, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Subscription), args.Error(1)
}

func (m *MockGatewayClient) ApplySubscriptionCoupon(ctx context.Context, gctx gateway.Context, id, couponID string) (*gateway.Subscription, error) {
	args := m.Called(ctx, gctx, id, couponID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Subscription), args.Error(1)
}

func (m *MockGatewayClient) DeleteSubscriptionDiscount(ctx context.Context, gctx gateway.Context, id string) (*gateway.Subscription, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Subscription), args.Error(1)
}

func (m *MockGatewayClient) CancelSubscription(ctx context.Context, gctx gateway.Context, id string, atPeriodEnd bool) (*gateway.Subscription, error) {
	args := m.Called(ctx, gctx, id, atPeriodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Subscription), args.Error(1)
}

func (m *MockGatewayClient) CreateRefund(ctx context.Context, gctx gateway.Context, params gateway.RefundParams) (*gateway.Refund, error) {
	args := m.Called(ctx, gctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Refund), args.Error(1)
}

func (m *MockGatewayClient) RetrieveEvent(ctx context.Context, gctx gateway.Context, id string) (*gateway.Event, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Event), args.Error(1)
}

func (m *MockGatewayClient) RetrieveInvoice(ctx context.Context, gctx gateway.Context, id string) (*gateway.Invoice, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Invoice), args.Error(1)
}

func (m *MockGatewayClient) PayInvoice(ctx context.Context, gctx gateway.Context, id string) (*gateway.Invoice, error) {
	args := m.Called(ctx, gctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Invoice), args.Error(1)
}

func (m *MockGatewayClient) CreateInvoiceItem(ctx context.Context, gctx gateway.Context, params gateway.InvoiceItemParams) error {
	args := m.Called(ctx, gctx, params)
	return args.Error(0)
}

func (m *MockGatewayClient) GetOrCreateCoupon(ctx context.Context, gctx gateway.Context, params gateway.CouponParams) (string, error) {
	args := m.Called(ctx, gctx, params)
	return args.String(0), args.Error(1)
}

// MockLocker is a mock implementation of the command Locker
type MockLocker struct {
	mock.Mock
}

// NewMockLocker creates a new mock locker
func NewMockLocker() *MockLocker {
	return &MockLocker{}
}

func (m *MockLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, name, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}
