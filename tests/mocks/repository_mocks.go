package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/bivex/stripe-gateway/internal/domain/entity"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

// NewMockTransactionRepository creates a new mock transaction repository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByMethodID(ctx context.Context, methodID string, mode valueobject.Mode) (*entity.Transaction, error) {
	args := m.Called(ctx, methodID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, methodID string, mode valueobject.Mode, status valueobject.TransactionStatus) (bool, error) {
	args := m.Called(ctx, methodID, mode, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) ConvertMethodID(ctx context.Context, oldID, newID string, mode valueobject.Mode) error {
	args := m.Called(ctx, oldID, newID, mode)
	return args.Error(0)
}

// MockRefundRepository is a mock implementation of RefundRepository
type MockRefundRepository struct {
	mock.Mock
}

// NewMockRefundRepository creates a new mock refund repository
func NewMockRefundRepository() *MockRefundRepository {
	return &MockRefundRepository{}
}

func (m *MockRefundRepository) Create(ctx context.Context, refund *entity.Refund) error {
	args := m.Called(ctx, refund)
	return args.Error(0)
}

func (m *MockRefundRepository) SumByTransaction(ctx context.Context, transactionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRefundRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*entity.Refund, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Refund), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

// NewMockSubscriptionRepository creates a new mock subscription repository
func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{}
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetBySubscriberID(ctx context.Context, subscriberID string, mode valueobject.Mode) (*entity.Subscription, error) {
	args := m.Called(ctx, subscriberID, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entity.Subscription, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) UpdateStatus(ctx context.Context, subscriberID string, mode valueobject.Mode, status valueobject.SubscriptionStatus) (bool, error) {
	args := m.Called(ctx, subscriberID, mode, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) MarkCancelled(ctx context.Context, id uuid.UUID, cancelledBy, reason string) error {
	args := m.Called(ctx, id, cancelledBy, reason)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) SetPaused(ctx context.Context, id uuid.UUID, paused bool, actor string) error {
	args := m.Called(ctx, id, paused, actor)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) SetPaymentToken(ctx context.Context, id uuid.UUID, tokenID uuid.UUID) error {
	args := m.Called(ctx, id, tokenID)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) SetFailedInvoice(ctx context.Context, subscriberID string, mode valueobject.Mode, invoiceID string) error {
	args := m.Called(ctx, subscriberID, mode, invoiceID)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

// NewMockCustomerRepository creates a new mock customer repository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{}
}

func (m *MockCustomerRepository) GetRemoteID(ctx context.Context, customerID uuid.UUID, mode valueobject.Mode) (string, error) {
	args := m.Called(ctx, customerID, mode)
	return args.String(0), args.Error(1)
}

func (m *MockCustomerRepository) SetRemoteID(ctx context.Context, mapping *entity.CustomerMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockCustomerRepository) DeleteByRemoteID(ctx context.Context, remoteID string, mode valueobject.Mode) (bool, error) {
	args := m.Called(ctx, remoteID, mode)
	return args.Bool(0), args.Error(1)
}

// MockPaymentTokenRepository is a mock implementation of PaymentTokenRepository
type MockPaymentTokenRepository struct {
	mock.Mock
}

// NewMockPaymentTokenRepository creates a new mock payment token repository
func NewMockPaymentTokenRepository() *MockPaymentTokenRepository {
	return &MockPaymentTokenRepository{}
}

func (m *MockPaymentTokenRepository) Create(ctx context.Context, token *entity.PaymentToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockPaymentTokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentToken), args.Error(1)
}

func (m *MockPaymentTokenRepository) GetBySource(ctx context.Context, source string, mode valueobject.Mode) (*entity.PaymentToken, error) {
	args := m.Called(ctx, source, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PaymentToken), args.Error(1)
}

func (m *MockPaymentTokenRepository) DeleteBySource(ctx context.Context, source string, mode valueobject.Mode) (bool, error) {
	args := m.Called(ctx, source, mode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentTokenRepository) UpdateExpiry(ctx context.Context, id uuid.UUID, expMonth, expYear int) error {
	args := m.Called(ctx, id, expMonth, expYear)
	return args.Error(0)
}

func (m *MockPaymentTokenRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID, mode valueobject.Mode) (int, error) {
	args := m.Called(ctx, customerID, mode)
	return args.Int(0), args.Error(1)
}

func (m *MockPaymentTokenRepository) MakePrimary(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPlanRepository is a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

// NewMockPlanRepository creates a new mock plan repository
func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{}
}

func (m *MockPlanRepository) Has(ctx context.Context, productID uuid.UUID, hash string, mode valueobject.Mode) (bool, error) {
	args := m.Called(ctx, productID, hash, mode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) Record(ctx context.Context, plan *entity.ProductPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}
