package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// Transaction is a completed or attempted payment. MethodID is the gateway's
// identifier for the charge or subscription that produced it; exactly one
// transaction owns a given MethodID within a mode. For subscription purchases
// the MethodID starts out as the subscription id and is converted to the
// permanent charge id once the first real charge exists.
type Transaction struct {
	ID               uuid.UUID
	MethodID         string
	Mode             valueobject.Mode
	Status           valueobject.TransactionStatus
	Amount           int64
	Currency         string
	CustomerID       *uuid.UUID
	RemoteCustomerID string
	ParentID         *uuid.UUID
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransaction creates a transaction entity for a successful gateway operation
func NewTransaction(methodID string, mode valueobject.Mode, amount int64, currency string) *Transaction {
	now := time.Now()
	return &Transaction{
		ID:        uuid.New(),
		MethodID:  methodID,
		Mode:      mode,
		Status:    valueobject.TxnStatusSucceeded,
		Amount:    amount,
		Currency:  strings.ToUpper(currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewChildTransaction creates a renewal payment transaction linked to the
// originating purchase.
func NewChildTransaction(parent *Transaction, methodID string, amount int64) *Transaction {
	child := NewTransaction(methodID, parent.Mode, amount, parent.Currency)
	parentID := parent.ID
	child.ParentID = &parentID
	child.CustomerID = parent.CustomerID
	child.RemoteCustomerID = parent.RemoteCustomerID
	return child
}

// IsGuest reports whether the purchase was made without a registered customer
func (t *Transaction) IsGuest() bool {
	return t.CustomerID == nil
}

// IsFreeTrial reports whether the transaction recorded a zero-total purchase
func (t *Transaction) IsFreeTrial() bool {
	return t.Amount == 0
}

// Refundable reports whether the transaction references a charge the gateway
// can refund. Subscription ids are not refundable until converted.
func (t *Transaction) Refundable() bool {
	return strings.HasPrefix(t.MethodID, "ch_")
}

// ClearedForDelivery reports whether the order behind this payment may ship
func (t *Transaction) ClearedForDelivery() bool {
	return t.Status.ClearedForDelivery()
}
