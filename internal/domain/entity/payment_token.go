package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// TokenKind distinguishes the funding instrument behind a payment token.
type TokenKind string

const (
	TokenKindCard        TokenKind = "card"
	TokenKindBankAccount TokenKind = "bank_account"
)

// PaymentToken is a stored, redacted payment source. Token is the gateway
// source id and is only ever used within the mode it was created in.
type PaymentToken struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Mode       valueobject.Mode
	Kind       TokenKind
	Token      string
	Label      string
	Redacted   string // last4
	Brand      string
	ExpMonth   int
	ExpYear    int
	Funding    string
	IsPrimary  bool
	CreatedAt  time.Time
}

// NewPaymentToken creates a payment token entity
func NewPaymentToken(customerID uuid.UUID, mode valueobject.Mode, kind TokenKind, token, redacted string) *PaymentToken {
	return &PaymentToken{
		ID:         uuid.New(),
		CustomerID: customerID,
		Mode:       mode,
		Kind:       kind,
		Token:      token,
		Redacted:   redacted,
		CreatedAt:  time.Now(),
	}
}
