// Package stripegw implements the gateway port on the Stripe SDK.
//
// Credentials are held per mode in separate SDK clients; the mode on the
// gateway.Context picks the client for each call, so there is no package
// global key and live and sandbox requests can run concurrently.
package stripegw

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"

	domainErrors "github.com/bivex/stripe-gateway/internal/domain/errors"
	"github.com/bivex/stripe-gateway/internal/domain/gateway"
	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
	"github.com/bivex/stripe-gateway/internal/infrastructure/config"
)

// Client implements gateway.Client against Stripe.
type Client struct {
	apis map[valueobject.Mode]*client.API
}

var _ gateway.Client = (*Client)(nil)

// New creates a Stripe gateway client. Modes without a configured key are
// absent; using them fails rather than silently falling back to the other
// credential set.
func New(cfg config.StripeConfig) *Client {
	apis := make(map[valueobject.Mode]*client.API, 2)
	if cfg.LiveSecretKey != "" {
		api := &client.API{}
		api.Init(cfg.LiveSecretKey, nil)
		apis[valueobject.ModeLive] = api
	}
	if cfg.TestSecretKey != "" {
		api := &client.API{}
		api.Init(cfg.TestSecretKey, nil)
		apis[valueobject.ModeSandbox] = api
	}
	return &Client{apis: apis}
}

func (c *Client) api(gctx gateway.Context) (*client.API, error) {
	api, ok := c.apis[gctx.Mode]
	if !ok {
		return nil, domainErrors.NewGatewayError("", fmt.Sprintf("no credentials configured for %s mode", gctx.Mode), nil)
	}
	return api, nil
}

// wrapErr converts SDK errors into the domain taxonomy. Stripe reports an
// id collision on creation with the resource_already_exists code; that
// becomes a ConflictError so callers can adopt the existing object without
// matching on message text.
func wrapErr(entity string, err error) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceAlreadyExists {
			return &domainErrors.ConflictError{Entity: entity, Reason: "already exists", Err: err}
		}
		if stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return &domainErrors.NotFoundError{Entity: entity, ID: stripeErr.Param, Err: err}
		}
		return domainErrors.NewGatewayError(string(stripeErr.Code), stripeErr.Msg, err)
	}
	return domainErrors.NewGatewayError("", err.Error(), err)
}

func (c *Client) CreateCustomer(ctx context.Context, gctx gateway.Context, params gateway.CustomerParams) (*gateway.Customer, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	cp := &stripe.CustomerParams{Email: stripe.String(params.Email)}
	cp.Context = ctx
	cp.AddMetadata("local_customer_id", params.LocalID)
	if params.IsGuest {
		cp.AddMetadata("is_guest", "true")
	}
	if params.Source != "" {
		if err := cp.SetSource(params.Source); err != nil {
			return nil, wrapErr("customer", err)
		}
	}

	cus, err := api.Customers.New(cp)
	if err != nil {
		return nil, wrapErr("customer", err)
	}
	return toCustomer(cus), nil
}

func (c *Client) RetrieveCustomer(ctx context.Context, gctx gateway.Context, id string) (*gateway.Customer, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	cp := &stripe.CustomerParams{}
	cp.Context = ctx
	cus, err := api.Customers.Get(id, cp)
	if err != nil {
		return nil, wrapErr("customer", err)
	}
	return toCustomer(cus), nil
}

func (c *Client) UpdateDefaultSource(ctx context.Context, gctx gateway.Context, customerID, sourceID string) (*gateway.Customer, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	cp := &stripe.CustomerParams{DefaultSource: stripe.String(sourceID)}
	cp.Context = ctx
	cus, err := api.Customers.Update(customerID, cp)
	if err != nil {
		return nil, wrapErr("customer", err)
	}
	return toCustomer(cus), nil
}

func (c *Client) CreateSource(ctx context.Context, gctx gateway.Context, customerID string, params gateway.SourceParams) (*gateway.Source, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	sp := &stripe.CustomerSourceParams{Customer: stripe.String(customerID)}
	sp.Context = ctx

	switch {
	case params.Token != "":
		if err := sp.SetSource(params.Token); err != nil {
			return nil, wrapErr("source", err)
		}
	case params.Card != nil:
		card := params.Card
		err := sp.SetSource(map[string]interface{}{
			"object":    "card",
			"number":    card.Number,
			"exp_month": strconv.Itoa(card.ExpMonth),
			"exp_year":  strconv.Itoa(card.ExpYear),
			"cvc":       card.CVC,
			"name":      card.HolderName,
		})
		if err != nil {
			return nil, wrapErr("source", err)
		}
	case params.BankAccount != nil:
		ba := params.BankAccount
		err := sp.SetSource(map[string]interface{}{
			"object":              "bank_account",
			"account_number":      ba.AccountNumber,
			"routing_number":      ba.RoutingNumber,
			"country":             ba.Country,
			"currency":            strings.ToLower(ba.Currency),
			"account_holder_name": ba.HolderName,
			"account_holder_type": ba.HolderType,
		})
		if err != nil {
			return nil, wrapErr("source", err)
		}
	default:
		return nil, domainErrors.NewGatewayError("", "no source material provided", nil)
	}

	src, err := api.PaymentSource.New(sp)
	if err != nil {
		return nil, wrapErr("source", err)
	}
	return toSource(src), nil
}

func (c *Client) UpdateSourceExpiry(ctx context.Context, gctx gateway.Context, customerID, sourceID string, expMonth, expYear int) (*gateway.Source, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	cp := &stripe.CardParams{Customer: stripe.String(customerID)}
	cp.Context = ctx
	if expMonth > 0 {
		cp.ExpMonth = stripe.String(strconv.Itoa(expMonth))
	}
	if expYear > 0 {
		cp.ExpYear = stripe.String(strconv.Itoa(expYear))
	}

	card, err := api.Cards.Update(sourceID, cp)
	if err != nil {
		return nil, wrapErr("source", err)
	}
	return &gateway.Source{
		ID:          card.ID,
		Kind:        "card",
		Last4:       card.Last4,
		Brand:       string(card.Brand),
		ExpMonth:    int(card.ExpMonth),
		ExpYear:     int(card.ExpYear),
		Funding:     string(card.Funding),
		Fingerprint: card.Fingerprint,
	}, nil
}

func (c *Client) CreateCharge(ctx context.Context, gctx gateway.Context, params gateway.ChargeParams) (*gateway.Charge, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	chp := &stripe.ChargeParams{
		Customer:    stripe.String(params.CustomerID),
		Amount:      stripe.Int64(params.Amount),
		Currency:    stripe.String(strings.ToLower(params.Currency)),
		Description: stripe.String(params.Description),
	}
	chp.Context = ctx

	ch, err := api.Charges.New(chp)
	if err != nil {
		return nil, wrapErr("charge", err)
	}
	return &gateway.Charge{
		ID:       ch.ID,
		Amount:   ch.Amount,
		Currency: strings.ToUpper(string(ch.Currency)),
		Paid:     ch.Paid,
	}, nil
}

func (c *Client) CreatePlan(ctx context.Context, gctx gateway.Context, params gateway.PlanParams) (*gateway.Plan, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	pp := &stripe.PlanParams{
		ID:            stripe.String(params.ID),
		Amount:        stripe.Int64(params.Terms.Amount),
		Currency:      stripe.String(strings.ToLower(params.Currency)),
		Interval:      stripe.String(string(params.Terms.Interval)),
		IntervalCount: stripe.Int64(int64(params.Terms.IntervalCount)),
		Nickname:      stripe.String(params.Name),
		Product:       &stripe.PlanProductParams{Name: stripe.String(params.Name)},
	}
	pp.Context = ctx
	if params.Terms.TrialDays > 0 {
		pp.TrialPeriodDays = stripe.Int64(int64(params.Terms.TrialDays))
	}

	plan, err := api.Plans.New(pp)
	if err != nil {
		return nil, wrapErr("plan", err)
	}
	return toPlan(plan), nil
}

func (c *Client) RetrievePlan(ctx context.Context, gctx gateway.Context, id string) (*gateway.Plan, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	pp := &stripe.PlanParams{}
	pp.Context = ctx
	plan, err := api.Plans.Get(id, pp)
	if err != nil {
		return nil, wrapErr("plan", err)
	}
	return toPlan(plan), nil
}

func (c *Client) CreateSubscription(ctx context.Context, gctx gateway.Context, params gateway.SubscriptionParams) (*gateway.Subscription, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	sp := &stripe.SubscriptionParams{
		Customer: stripe.String(params.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Plan: stripe.String(params.PlanID)},
		},
	}
	sp.Context = ctx
	if params.TrialEnd > 0 {
		sp.TrialEnd = stripe.Int64(params.TrialEnd)
	}
	if !params.Prorate {
		sp.ProrationBehavior = stripe.String("none")
	}

	sub, err := api.Subscriptions.New(sp)
	if err != nil {
		return nil, wrapErr("subscription", err)
	}
	return toSubscription(sub), nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, gctx gateway.Context, id string) (*gateway.Subscription, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	sp := &stripe.SubscriptionParams{}
	sp.Context = ctx
	sub, err := api.Subscriptions.Get(id, sp)
	if err != nil {
		return nil, wrapErr("subscription", err)
	}
	return toSubscription(sub), nil
}

func (c *Client) ApplySubscriptionCoupon(ctx context.Context, gctx gateway.Context, id, couponID string) (*gateway.Subscription, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	sp := &stripe.SubscriptionParams{Coupon: stripe.String(couponID)}
	sp.Context = ctx
	sub, err := api.Subscriptions.Update(id, sp)
	if err != nil {
		return nil, wrapErr("subscription", err)
	}
	return toSubscription(sub), nil
}

func (c *Client) DeleteSubscriptionDiscount(ctx context.Context, gctx gateway.Context, id string) (*gateway.Subscription, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	dp := &stripe.DiscountParams{}
	dp.Context = ctx
	if _, err := api.Discounts.DelSub(id, dp); err != nil {
		return nil, wrapErr("discount", err)
	}
	return c.RetrieveSubscription(ctx, gctx, id)
}

func (c *Client) CancelSubscription(ctx context.Context, gctx gateway.Context, id string, atPeriodEnd bool) (*gateway.Subscription, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	if atPeriodEnd {
		sp := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		sp.Context = ctx
		sub, err := api.Subscriptions.Update(id, sp)
		if err != nil {
			return nil, wrapErr("subscription", err)
		}
		return toSubscription(sub), nil
	}

	cp := &stripe.SubscriptionCancelParams{}
	cp.Context = ctx
	sub, err := api.Subscriptions.Cancel(id, cp)
	if err != nil {
		return nil, wrapErr("subscription", err)
	}
	return toSubscription(sub), nil
}

func (c *Client) CreateRefund(ctx context.Context, gctx gateway.Context, params gateway.RefundParams) (*gateway.Refund, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	rp := &stripe.RefundParams{
		Charge: stripe.String(params.ChargeID),
		Amount: stripe.Int64(params.Amount),
	}
	rp.Context = ctx
	if params.Reason != "" {
		rp.AddMetadata("internal_reason", params.Reason)
	}

	ref, err := api.Refunds.New(rp)
	if err != nil {
		return nil, wrapErr("refund", err)
	}
	return &gateway.Refund{ID: ref.ID, Amount: ref.Amount, Created: ref.Created}, nil
}

func (c *Client) RetrieveEvent(ctx context.Context, gctx gateway.Context, id string) (*gateway.Event, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	ep := &stripe.EventParams{}
	ep.Context = ctx
	ev, err := api.Events.Get(id, ep)
	if err != nil {
		return nil, wrapErr("event", err)
	}

	out := &gateway.Event{ID: ev.ID, Type: ev.Type}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

func (c *Client) RetrieveInvoice(ctx context.Context, gctx gateway.Context, id string) (*gateway.Invoice, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	ip := &stripe.InvoiceParams{}
	ip.Context = ctx
	inv, err := api.Invoices.Get(id, ip)
	if err != nil {
		return nil, wrapErr("invoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) PayInvoice(ctx context.Context, gctx gateway.Context, id string) (*gateway.Invoice, error) {
	api, err := c.api(gctx)
	if err != nil {
		return nil, err
	}

	pp := &stripe.InvoicePayParams{}
	pp.Context = ctx
	inv, err := api.Invoices.Pay(id, pp)
	if err != nil {
		return nil, wrapErr("invoice", err)
	}
	return toInvoice(inv), nil
}

func (c *Client) CreateInvoiceItem(ctx context.Context, gctx gateway.Context, params gateway.InvoiceItemParams) error {
	api, err := c.api(gctx)
	if err != nil {
		return err
	}

	ip := &stripe.InvoiceItemParams{
		Customer:    stripe.String(params.CustomerID),
		Amount:      stripe.Int64(params.Amount),
		Currency:    stripe.String(strings.ToLower(params.Currency)),
		Description: stripe.String(params.Description),
	}
	ip.Context = ctx

	_, err = api.InvoiceItems.New(ip)
	return wrapErr("invoice item", err)
}

func (c *Client) GetOrCreateCoupon(ctx context.Context, gctx gateway.Context, params gateway.CouponParams) (string, error) {
	api, err := c.api(gctx)
	if err != nil {
		return "", err
	}

	gp := &stripe.CouponParams{}
	gp.Context = ctx
	if coupon, err := api.Coupons.Get(params.ID, gp); err == nil && coupon != nil {
		return coupon.ID, nil
	}

	cp := &stripe.CouponParams{
		ID:         stripe.String(params.ID),
		Duration:   stripe.String(params.Duration),
		PercentOff: stripe.Float64(params.PercentOff),
	}
	cp.Context = ctx
	coupon, err := api.Coupons.New(cp)
	if err != nil {
		// A concurrent creator winning the race is still success.
		if domainErrors.IsConflict(wrapErr("coupon", err)) {
			return params.ID, nil
		}
		return "", wrapErr("coupon", err)
	}
	return coupon.ID, nil
}

func toCustomer(cus *stripe.Customer) *gateway.Customer {
	out := &gateway.Customer{
		ID:      cus.ID,
		Email:   cus.Email,
		Deleted: cus.Deleted,
	}
	if cus.DefaultSource != nil {
		out.DefaultSource = cus.DefaultSource.ID
	}
	return out
}

func toSource(src *stripe.PaymentSource) *gateway.Source {
	out := &gateway.Source{ID: src.ID, Kind: string(src.Type)}
	if src.Card != nil {
		out.Last4 = src.Card.Last4
		out.Brand = string(src.Card.Brand)
		out.ExpMonth = int(src.Card.ExpMonth)
		out.ExpYear = int(src.Card.ExpYear)
		out.Funding = string(src.Card.Funding)
		out.Fingerprint = src.Card.Fingerprint
	}
	if src.BankAccount != nil {
		out.Last4 = src.BankAccount.Last4
		out.BankName = src.BankAccount.BankName
		out.HolderType = string(src.BankAccount.AccountHolderType)
		out.Fingerprint = src.BankAccount.Fingerprint
	}
	return out
}

func toPlan(plan *stripe.Plan) *gateway.Plan {
	return &gateway.Plan{
		ID:            plan.ID,
		Amount:        plan.Amount,
		Currency:      strings.ToUpper(string(plan.Currency)),
		Interval:      string(plan.Interval),
		IntervalCount: int(plan.IntervalCount),
		TrialDays:     int(plan.TrialPeriodDays),
	}
}

func toSubscription(sub *stripe.Subscription) *gateway.Subscription {
	out := &gateway.Subscription{
		ID:          sub.ID,
		Status:      string(sub.Status),
		CanceledAt:  sub.CanceledAt,
		HasDiscount: sub.Discount != nil && sub.Discount.Coupon != nil,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out
}

func toInvoice(inv *stripe.Invoice) *gateway.Invoice {
	out := &gateway.Invoice{
		ID:    inv.ID,
		Total: inv.Total,
		Paid:  inv.Paid,
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.Charge != nil {
		out.ChargeID = inv.Charge.ID
	}
	switch inv.Status {
	case stripe.InvoiceStatusPaid, stripe.InvoiceStatusVoid, stripe.InvoiceStatusUncollectible:
		out.Closed = true
	}
	return out
}
