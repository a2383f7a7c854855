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
	"github.com/bivex/stripe-gateway/internal/domain/service"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/tests/mocks"
)

type purchaseFixture struct {
	txnRepo      *mocks.MockTransactionRepository
	subRepo      *mocks.MockSubscriptionRepository
	customerRepo *mocks.MockCustomerRepository
	tokenRepo    *mocks.MockPaymentTokenRepository
	planRepo     *mocks.MockPlanRepository
	client       *mocks.MockGatewayClient
	cmd          *command.PurchaseCommand
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		txnRepo:      mocks.NewMockTransactionRepository(),
		subRepo:      mocks.NewMockSubscriptionRepository(),
		customerRepo: mocks.NewMockCustomerRepository(),
		tokenRepo:    mocks.NewMockPaymentTokenRepository(),
		planRepo:     mocks.NewMockPlanRepository(),
		client:       mocks.NewMockGatewayClient(),
	}
	provisioner := service.NewCustomerProvisioner(f.customerRepo, f.tokenRepo, f.client)
	planner := service.NewPlanResolver(f.planRepo, f.client, "usd")
	f.cmd = command.NewPurchaseCommand(f.txnRepo, f.subRepo, f.tokenRepo, provisioner, planner, f.client)
	return f
}

func TestPurchaseCommand_OneTime(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)
	productID := uuid.New()

	t.Run("guest checkout charges a throwaway customer", func(t *testing.T) {
		f := newPurchaseFixture()
		req := &dto.CheckoutRequest{
			Email:       "guest@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			Source:      "tok_visa",
			Amount:      2500,
			Currency:    "usd",
		}

		f.client.On("CreateCustomer", mock.Anything, gctx, mock.MatchedBy(func(p gateway.CustomerParams) bool {
			return p.IsGuest && p.Source == "tok_visa"
		})).Return(&gateway.Customer{ID: "cus_guest"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, gateway.ChargeParams{
			CustomerID: "cus_guest",
			Amount:     2500,
			Currency:   "usd",
		}).Return(&gateway.Charge{ID: "ch_1", Amount: 2500, Currency: "USD", Paid: true}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.MethodID == "ch_1" && txn.CustomerID == nil && txn.Amount == 2500
		})).Return(nil)

		resp, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		assert.Equal(t, "ch_1", resp.MethodID)
		assert.Equal(t, "succeeded", resp.Status)
		assert.True(t, resp.ClearedForDelivery)
		assert.Empty(t, resp.SubscriptionID)
		f.customerRepo.AssertNotCalled(t, "SetRemoteID", mock.Anything, mock.Anything)
	})

	t.Run("registered customer reuses their remote customer", func(t *testing.T) {
		f := newPurchaseFixture()
		customerID := uuid.New()
		req := &dto.CheckoutRequest{
			CustomerID:  customerID.String(),
			Email:       "u@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			Source:      "tok_visa",
			Amount:      2500,
			Currency:    "usd",
		}

		f.customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		f.client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.client.On("CreateSource", mock.Anything, gctx, "cus_1", gateway.SourceParams{Token: "tok_visa"}).Return(&gateway.Source{ID: "card_1", Kind: "card"}, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_1").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, mock.Anything).Return(&gateway.Charge{ID: "ch_1", Amount: 2500, Currency: "USD", Paid: true}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.CustomerID != nil && *txn.CustomerID == customerID && txn.RemoteCustomerID == "cus_1"
		})).Return(nil)

		resp, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		assert.Equal(t, "ch_1", resp.MethodID)
	})

	t.Run("purchase source gives the customer's default back afterwards", func(t *testing.T) {
		f := newPurchaseFixture()
		customerID := uuid.New()
		req := &dto.CheckoutRequest{
			CustomerID:  customerID.String(),
			Email:       "u@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			Source:      "tok_new",
			Amount:      2500,
			Currency:    "usd",
		}

		f.customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		f.client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1", DefaultSource: "card_old"}, nil)
		f.client.On("CreateSource", mock.Anything, gctx, "cus_1", gateway.SourceParams{Token: "tok_new"}).Return(&gateway.Source{ID: "card_new", Kind: "card"}, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_new").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, mock.Anything).Return(&gateway.Charge{ID: "ch_1", Amount: 2500, Currency: "USD", Paid: true}, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_old").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		f.client.AssertCalled(t, "UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_old")
	})

	t.Run("failed default restore does not void the purchase", func(t *testing.T) {
		f := newPurchaseFixture()
		customerID := uuid.New()
		req := &dto.CheckoutRequest{
			CustomerID:  customerID.String(),
			Email:       "u@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			Source:      "tok_new",
			Amount:      2500,
			Currency:    "usd",
		}

		f.customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		f.client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1", DefaultSource: "card_old"}, nil)
		f.client.On("CreateSource", mock.Anything, gctx, "cus_1", mock.Anything).Return(&gateway.Source{ID: "card_new", Kind: "card"}, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_new").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, mock.Anything).Return(&gateway.Charge{ID: "ch_1", Amount: 2500, Currency: "USD", Paid: true}, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_old").Return(nil, domainErrors.NewGatewayError("api_error", "source update failed", nil))
		f.txnRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		resp, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		assert.Equal(t, "ch_1", resp.MethodID)
	})

	t.Run("stored token pays without attaching a new source", func(t *testing.T) {
		f := newPurchaseFixture()
		customerID := uuid.New()
		token := entity.NewPaymentToken(customerID, valueobject.ModeSandbox, entity.TokenKindCard, "card_stored", "4242")
		req := &dto.CheckoutRequest{
			CustomerID:  customerID.String(),
			Email:       "u@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			TokenID:     token.ID.String(),
			Amount:      2500,
			Currency:    "usd",
		}

		f.customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		f.client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1", DefaultSource: "card_stored"}, nil)
		f.tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_stored").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, mock.Anything).Return(&gateway.Charge{ID: "ch_1", Amount: 2500, Currency: "USD", Paid: true}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		f.client.AssertNotCalled(t, "CreateSource", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stored token owned by someone else is rejected", func(t *testing.T) {
		f := newPurchaseFixture()
		customerID := uuid.New()
		token := entity.NewPaymentToken(uuid.New(), valueobject.ModeSandbox, entity.TokenKindCard, "card_stored", "4242")
		req := &dto.CheckoutRequest{
			CustomerID:  customerID.String(),
			Email:       "u@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			TokenID:     token.ID.String(),
			Amount:      2500,
			Currency:    "usd",
		}

		f.customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		f.client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.ErrorIs(t, err, domainErrors.ErrNotFound)
		f.client.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a payment source is required and exclusive", func(t *testing.T) {
		f := newPurchaseFixture()
		base := dto.CheckoutRequest{
			Email:       "g@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			Amount:      2500,
			Currency:    "usd",
		}

		none := base
		_, err := f.cmd.Execute(ctx, gctx, &none)
		var validationErr *domainErrors.ValidationError
		require.ErrorAs(t, err, &validationErr)

		both := base
		both.Source = "tok_visa"
		both.TokenID = uuid.New().String()
		_, err = f.cmd.Execute(ctx, gctx, &both)
		require.ErrorAs(t, err, &validationErr)

		guestToken := base
		guestToken.TokenID = uuid.New().String()
		_, err = f.cmd.Execute(ctx, gctx, &guestToken)
		require.ErrorAs(t, err, &validationErr)

		f.client.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("prior transaction reference links the new purchase", func(t *testing.T) {
		f := newPurchaseFixture()
		prior := entity.NewTransaction("ch_old", valueobject.ModeSandbox, 2500, "USD")
		req := &dto.CheckoutRequest{
			Email:              "g@example.com",
			ProductID:          productID.String(),
			ProductName:        "E-book",
			Source:             "tok_visa",
			Amount:             2500,
			Currency:           "usd",
			PriorTransactionID: prior.ID.String(),
		}

		f.txnRepo.On("GetByID", mock.Anything, prior.ID).Return(prior, nil)
		f.client.On("CreateCustomer", mock.Anything, gctx, mock.Anything).Return(&gateway.Customer{ID: "cus_guest"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, mock.Anything).Return(&gateway.Charge{ID: "ch_2", Amount: 2500, Currency: "USD", Paid: true}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.ParentID != nil && *txn.ParentID == prior.ID
		})).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		f.txnRepo.AssertExpectations(t)
	})

	t.Run("prior transaction from the other mode is rejected", func(t *testing.T) {
		f := newPurchaseFixture()
		prior := entity.NewTransaction("ch_old", valueobject.ModeLive, 2500, "USD")
		req := &dto.CheckoutRequest{
			Email:              "g@example.com",
			ProductID:          productID.String(),
			ProductName:        "E-book",
			Source:             "tok_visa",
			Amount:             2500,
			Currency:           "usd",
			PriorTransactionID: prior.ID.String(),
		}

		f.txnRepo.On("GetByID", mock.Anything, prior.ID).Return(prior, nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
		f.client.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid currency is rejected before any remote call", func(t *testing.T) {
		f := newPurchaseFixture()
		req := &dto.CheckoutRequest{
			Email:     "g@example.com",
			ProductID: productID.String(),
			Source:    "tok_visa",
			Amount:    2500,
			Currency:  "dollars",
		}

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.Error(t, err)
		f.client.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("declined charge records nothing", func(t *testing.T) {
		f := newPurchaseFixture()
		req := &dto.CheckoutRequest{
			Email:       "g@example.com",
			ProductID:   productID.String(),
			ProductName: "E-book",
			Source:      "tok_visa",
			Amount:      2500,
			Currency:    "usd",
		}

		f.client.On("CreateCustomer", mock.Anything, gctx, mock.Anything).Return(&gateway.Customer{ID: "cus_guest"}, nil)
		f.client.On("CreateCharge", mock.Anything, gctx, mock.Anything).Return(nil, domainErrors.NewGatewayError("card_declined", "card was declined", nil))

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.Error(t, err)
		f.txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestPurchaseCommand_Subscription(t *testing.T) {
	ctx := context.Background()
	gctx := gateway.NewContext(valueobject.ModeSandbox)
	productID := uuid.New()

	baseReq := func() *dto.CheckoutRequest {
		return &dto.CheckoutRequest{
			Email:       "guest@example.com",
			ProductID:   productID.String(),
			ProductName: "Premium",
			Source:      "tok_visa",
			Amount:      1500,
			Currency:    "usd",
			Recurring:   &dto.RecurringRequest{Interval: "month", IntervalCount: 1},
		}
	}

	stubGuest := func(f *purchaseFixture) {
		f.client.On("CreateCustomer", mock.Anything, gctx, mock.Anything).Return(&gateway.Customer{ID: "cus_guest"}, nil)
	}

	stubPlan := func(f *purchaseFixture) {
		f.planRepo.On("Has", mock.Anything, productID, mock.AnythingOfType("string"), valueobject.ModeSandbox).Return(true, nil)
		f.client.On("RetrievePlan", mock.Anything, gctx, mock.AnythingOfType("string")).Return(&gateway.Plan{}, nil)
	}

	t.Run("records the transaction under the subscription id", func(t *testing.T) {
		f := newPurchaseFixture()
		stubGuest(f)
		stubPlan(f)
		f.client.On("CreateSubscription", mock.Anything, gctx, mock.MatchedBy(func(p gateway.SubscriptionParams) bool {
			return p.CustomerID == "cus_guest"
		})).Return(&gateway.Subscription{ID: "sub_1", Status: "active"}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.MethodID == "sub_1" && txn.Amount == 1500
		})).Return(nil)
		f.subRepo.On("Create", mock.Anything, mock.MatchedBy(func(sub *entity.Subscription) bool {
			return sub.SubscriberID == "sub_1" && sub.Status == valueobject.SubStatusActive
		})).Return(nil)

		resp, err := f.cmd.Execute(ctx, gctx, baseReq())

		require.NoError(t, err)
		assert.Equal(t, "sub_1", resp.MethodID)
		assert.Equal(t, "sub_1", resp.SubscriberID)
		assert.NotEmpty(t, resp.SubscriptionID)
	})

	t.Run("sign-up fee lands on the first invoice", func(t *testing.T) {
		f := newPurchaseFixture()
		req := baseReq()
		req.SignupFee = 500
		stubGuest(f)
		stubPlan(f)
		f.client.On("CreateInvoiceItem", mock.Anything, gctx, mock.MatchedBy(func(p gateway.InvoiceItemParams) bool {
			return p.Amount == 500 && p.CustomerID == "cus_guest"
		})).Return(nil)
		f.client.On("CreateSubscription", mock.Anything, gctx, mock.Anything).Return(&gateway.Subscription{ID: "sub_1"}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
			return txn.Amount == 2000
		})).Return(nil)
		f.subRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		f.client.AssertExpectations(t)
	})

	t.Run("trial defers the recurring charge", func(t *testing.T) {
		f := newPurchaseFixture()
		req := baseReq()
		req.SignupFee = 500
		req.Recurring.TrialInterval = "week"
		req.Recurring.TrialCount = 2
		stubGuest(f)
		stubPlan(f)
		f.client.On("CreateInvoiceItem", mock.Anything, gctx, mock.Anything).Return(nil)
		f.client.On("CreateSubscription", mock.Anything, gctx, mock.Anything).Return(&gateway.Subscription{ID: "sub_1"}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entity.Transaction) bool {
			// Only the sign-up fee settles today.
			return txn.Amount == 500
		})).Return(nil)
		f.subRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		f.txnRepo.AssertExpectations(t)
	})

	t.Run("stored token is stamped on the subscription", func(t *testing.T) {
		f := newPurchaseFixture()
		customerID := uuid.New()
		token := entity.NewPaymentToken(customerID, valueobject.ModeSandbox, entity.TokenKindCard, "card_stored", "4242")
		req := baseReq()
		req.CustomerID = customerID.String()
		req.Source = ""
		req.TokenID = token.ID.String()
		stubPlan(f)

		f.customerRepo.On("GetRemoteID", mock.Anything, customerID, valueobject.ModeSandbox).Return("cus_1", nil)
		f.client.On("RetrieveCustomer", mock.Anything, gctx, "cus_1").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.tokenRepo.On("GetByID", mock.Anything, token.ID).Return(token, nil)
		f.client.On("UpdateDefaultSource", mock.Anything, gctx, "cus_1", "card_stored").Return(&gateway.Customer{ID: "cus_1"}, nil)
		f.client.On("CreateSubscription", mock.Anything, gctx, mock.Anything).Return(&gateway.Subscription{ID: "sub_1"}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.subRepo.On("Create", mock.Anything, mock.MatchedBy(func(sub *entity.Subscription) bool {
			return sub.PaymentTokenID != nil && *sub.PaymentTokenID == token.ID
		})).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, req)

		require.NoError(t, err)
		f.subRepo.AssertExpectations(t)
	})

	t.Run("unknown terms create the remote plan first", func(t *testing.T) {
		f := newPurchaseFixture()
		stubGuest(f)
		terms := valueobject.RecurringTerms{Amount: 1500, Interval: valueobject.IntervalMonth, IntervalCount: 1}
		hash := entity.PlanHash(terms)

		f.planRepo.On("Has", mock.Anything, productID, hash, valueobject.ModeSandbox).Return(false, nil)
		f.client.On("CreatePlan", mock.Anything, gctx, mock.MatchedBy(func(p gateway.PlanParams) bool {
			return p.ID == hash && p.Name == "Premium"
		})).Return(&gateway.Plan{ID: hash}, nil)
		f.planRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
		f.client.On("CreateSubscription", mock.Anything, gctx, mock.MatchedBy(func(p gateway.SubscriptionParams) bool {
			return p.PlanID == hash
		})).Return(&gateway.Subscription{ID: "sub_1"}, nil)
		f.txnRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.subRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

		_, err := f.cmd.Execute(ctx, gctx, baseReq())

		require.NoError(t, err)
		f.planRepo.AssertExpectations(t)
	})
}
