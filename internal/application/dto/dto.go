package dto

// ========== CHECKOUT DTOs ==========

// RecurringRequest describes the auto-renew terms of a subscription purchase
type RecurringRequest struct {
	Interval      string `json:"interval" binding:"required,oneof=day week month year"`
	IntervalCount int    `json:"interval_count" binding:"required,min=1"`
	TrialInterval string `json:"trial_interval" binding:"omitempty,oneof=day week month year"`
	TrialCount    int    `json:"trial_count" binding:"omitempty,min=0"`
}

// CheckoutRequest represents a purchase. A nil Recurring block is a one-time
// charge; otherwise a subscription is created. Amount is in cents. Exactly
// one of Source (a new gateway source token) or TokenID (a stored payment
// token) carries the payment instrument.
type CheckoutRequest struct {
	// CustomerID is stamped from the authenticated session by the handler
	// and never read from the request body. Empty means a guest checkout.
	CustomerID         string            `json:"-"`
	Email              string            `json:"email" binding:"required,email"`
	ProductID          string            `json:"product_id" binding:"required,uuid"`
	ProductName        string            `json:"product_name" binding:"required"`
	Source             string            `json:"source"`
	TokenID            string            `json:"token_id" binding:"omitempty,uuid"`
	Amount             int64             `json:"amount" binding:"min=0"`
	Currency           string            `json:"currency" binding:"required,len=3"`
	Description        string            `json:"description"`
	SignupFee          int64             `json:"signup_fee" binding:"omitempty,min=0"`
	PriorTransactionID string            `json:"prior_transaction_id" binding:"omitempty,uuid"`
	Recurring          *RecurringRequest `json:"recurring"`
}

// CheckoutResponse represents a completed purchase
type CheckoutResponse struct {
	TransactionID      string `json:"transaction_id"`
	MethodID           string `json:"method_id"`
	Status             string `json:"status"`
	ClearedForDelivery bool   `json:"cleared_for_delivery"`
	SubscriptionID     string `json:"subscription_id,omitempty"`
	SubscriberID       string `json:"subscriber_id,omitempty"`
}

// ========== PAYMENT TOKEN DTOs ==========

// CardRequest carries raw card details for tokenization. They are forwarded
// to the gateway and never stored.
type CardRequest struct {
	Number     string `json:"number" binding:"required"`
	ExpMonth   int    `json:"exp_month" binding:"required,min=1,max=12"`
	ExpYear    int    `json:"exp_year" binding:"required"`
	CVC        string `json:"cvc" binding:"omitempty"`
	HolderName string `json:"holder_name" binding:"omitempty"`
}

// BankAccountRequest carries raw bank account details for tokenization
type BankAccountRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	RoutingNumber string `json:"routing_number" binding:"required"`
	Country       string `json:"country" binding:"required,len=2"`
	Currency      string `json:"currency" binding:"required,len=3"`
	HolderName    string `json:"holder_name" binding:"omitempty"`
	HolderType    string `json:"holder_type" binding:"omitempty,oneof=individual company"`
}

// TokenizeRequest represents a request to store a payment source. Exactly
// one of Token, Card, or BankAccount must be set.
type TokenizeRequest struct {
	CustomerID  string              `json:"customer_id" binding:"required,uuid"`
	Email       string              `json:"email" binding:"required,email"`
	Label       string              `json:"label"`
	MakePrimary bool                `json:"make_primary"`
	Token       string              `json:"token"`
	Card        *CardRequest        `json:"card"`
	BankAccount *BankAccountRequest `json:"bank_account"`
}

// UpdateTokenRequest refreshes a stored card's expiration
type UpdateTokenRequest struct {
	ExpMonth int `json:"exp_month" binding:"required,min=1,max=12"`
	ExpYear  int `json:"exp_year" binding:"required"`
}

// TokenResponse represents a stored payment token
type TokenResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Label     string `json:"label,omitempty"`
	Redacted  string `json:"redacted"`
	Brand     string `json:"brand,omitempty"`
	ExpMonth  int    `json:"exp_month,omitempty"`
	ExpYear   int    `json:"exp_year,omitempty"`
	Funding   string `json:"funding,omitempty"`
	IsPrimary bool   `json:"is_primary"`
}

// ========== SUBSCRIPTION DTOs ==========

// CancelSubscriptionRequest represents a cancellation
type CancelSubscriptionRequest struct {
	Reason      string `json:"reason"`
	AtPeriodEnd bool   `json:"at_period_end"`
}

// UpdatePaymentMethodRequest points a subscription at a stored token
type UpdatePaymentMethodRequest struct {
	TokenID string `json:"token_id" binding:"required,uuid"`
}

// SubscriptionResponse represents a subscription's local state
type SubscriptionResponse struct {
	ID           string `json:"id"`
	SubscriberID string `json:"subscriber_id"`
	Status       string `json:"status"`
	Paused       bool   `json:"paused"`
}

// ========== REFUND DTOs ==========

// RefundRequest represents an admin-issued refund. Amount is in cents.
type RefundRequest struct {
	Amount int64  `json:"amount" binding:"required,min=1"`
	Reason string `json:"reason"`
}

// RefundResponse represents an issued refund
type RefundResponse struct {
	RefundID      string `json:"refund_id"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	TotalRefunded int64  `json:"total_refunded"`
	Status        string `json:"status"`
}

// ========== WEBHOOK DTOs ==========

// WebhookEvent is the inbound notification envelope. Only the id is used;
// the event is re-fetched from the gateway before acting on it.
type WebhookEvent struct {
	ID       string `json:"id" binding:"required"`
	Type     string `json:"type"`
	Livemode bool   `json:"livemode"`
}
