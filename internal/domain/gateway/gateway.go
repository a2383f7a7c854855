// Package gateway defines the port to the remote card-processing provider.
// The provider SDK's loosely-typed response objects are narrowed here into
// structs carrying only the fields this system consumes; missing or null
// remote fields decode to zero values and are valid.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// Context carries the credential/mode selection for a single logical request.
// It is constructed per request and passed into every call; there is no
// process-wide active credential, so concurrent requests in different modes
// cannot interfere.
type Context struct {
	Mode       valueobject.Mode
	APIVersion string
}

// NewContext creates a gateway context for the given mode
func NewContext(mode valueobject.Mode) Context {
	return Context{Mode: mode}
}

// Customer is a remote gateway customer.
type Customer struct {
	ID            string
	Email         string
	DefaultSource string
	Deleted       bool
}

// Source is a tokenized payment instrument attached to a customer.
type Source struct {
	ID          string
	Kind        string // "card" or "bank_account"
	Last4       string
	Brand       string
	ExpMonth    int
	ExpYear     int
	Funding     string
	BankName    string
	HolderType  string
	Fingerprint string
}

// Charge is a remote one-time payment.
type Charge struct {
	ID       string
	Amount   int64
	Currency string
	Paid     bool
}

// Plan is a remote recurring-billing template.
type Plan struct {
	ID            string
	Amount        int64
	Currency      string
	Interval      string
	IntervalCount int
	TrialDays     int
}

// Subscription is a remote recurring billing agreement.
type Subscription struct {
	ID          string
	Status      string
	CustomerID  string
	CanceledAt  int64
	HasDiscount bool
}

// Refund is a remote refund of a charge.
type Refund struct {
	ID      string
	Amount  int64
	Created int64
}

// Invoice is a remote billing invoice for a subscription cycle.
type Invoice struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	ChargeID       string
	Total          int64
	Closed         bool
	Paid           bool
}

// Event is a provider notification re-fetched by id. Object is the raw JSON
// of the event's subject; callers decode only the fields they act on.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// CustomerParams describes a customer to create remotely.
type CustomerParams struct {
	Email string
	// LocalID ties the remote customer back to the platform account.
	LocalID string
	// IsGuest marks customers that have no persisted local mapping.
	IsGuest bool
	// Source is an initial payment source token to attach.
	Source string
}

// CardParams holds raw card details to tokenize. The values never touch
// local storage.
type CardParams struct {
	Number     string
	ExpMonth   int
	ExpYear    int
	CVC        string
	HolderName string
}

// BankAccountParams holds raw bank account details to tokenize.
type BankAccountParams struct {
	AccountNumber string
	RoutingNumber string
	Country       string
	Currency      string
	HolderName    string
	HolderType    string
}

// SourceParams describes a payment source to attach to a customer. Exactly
// one of Token, Card, or BankAccount is set.
type SourceParams struct {
	Token       string
	Card        *CardParams
	BankAccount *BankAccountParams
}

// ChargeParams describes a one-time charge.
type ChargeParams struct {
	CustomerID  string
	Amount      int64
	Currency    string
	Description string
}

// PlanParams describes a plan to create. ID is the content hash of the terms.
type PlanParams struct {
	ID       string
	Name     string
	Currency string
	Terms    valueobject.RecurringTerms
}

// SubscriptionParams describes a subscription to create.
type SubscriptionParams struct {
	CustomerID string
	PlanID     string
	// TrialEnd, when non-zero, overrides the plan trial (prorated upgrades).
	TrialEnd int64
	Prorate  bool
}

// RefundParams describes a refund of a charge.
type RefundParams struct {
	ChargeID string
	Amount   int64
	Reason   string
}

// InvoiceItemParams front-loads a one-time amount (e.g. a sign-up fee) onto
// the customer's next invoice.
type InvoiceItemParams struct {
	CustomerID  string
	Amount      int64
	Currency    string
	Description string
}

// CouponParams describes a coupon to create idempotently by id.
type CouponParams struct {
	ID         string
	Duration   string
	PercentOff float64
}

// Client is the stateless façade over the remote provider. Every call is a
// blocking network round-trip and may fail with a *errors.GatewayError;
// creations of id-addressed objects that already exist fail with a
// *errors.ConflictError. Callers must not assume partial success: a failed
// call can still have left earlier side effects persisted remotely.
type Client interface {
	CreateCustomer(ctx context.Context, gctx Context, params CustomerParams) (*Customer, error)
	RetrieveCustomer(ctx context.Context, gctx Context, id string) (*Customer, error)
	UpdateDefaultSource(ctx context.Context, gctx Context, customerID, sourceID string) (*Customer, error)

	CreateSource(ctx context.Context, gctx Context, customerID string, params SourceParams) (*Source, error)
	UpdateSourceExpiry(ctx context.Context, gctx Context, customerID, sourceID string, expMonth, expYear int) (*Source, error)

	CreateCharge(ctx context.Context, gctx Context, params ChargeParams) (*Charge, error)

	CreatePlan(ctx context.Context, gctx Context, params PlanParams) (*Plan, error)
	RetrievePlan(ctx context.Context, gctx Context, id string) (*Plan, error)

	CreateSubscription(ctx context.Context, gctx Context, params SubscriptionParams) (*Subscription, error)
	RetrieveSubscription(ctx context.Context, gctx Context, id string) (*Subscription, error)
	ApplySubscriptionCoupon(ctx context.Context, gctx Context, id, couponID string) (*Subscription, error)
	DeleteSubscriptionDiscount(ctx context.Context, gctx Context, id string) (*Subscription, error)
	CancelSubscription(ctx context.Context, gctx Context, id string, atPeriodEnd bool) (*Subscription, error)

	CreateRefund(ctx context.Context, gctx Context, params RefundParams) (*Refund, error)

	RetrieveEvent(ctx context.Context, gctx Context, id string) (*Event, error)

	RetrieveInvoice(ctx context.Context, gctx Context, id string) (*Invoice, error)
	PayInvoice(ctx context.Context, gctx Context, id string) (*Invoice, error)
	CreateInvoiceItem(ctx context.Context, gctx Context, params InvoiceItemParams) error

	GetOrCreateCoupon(ctx context.Context, gctx Context, params CouponParams) (string, error)
}
