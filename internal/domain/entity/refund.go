package entity

import (
	"time"

	"github.com/google/uuid"
)

// Refund is an amount returned against a transaction. RemoteID is the
// gateway's refund id and doubles as the idempotency key: a refund with a
// given RemoteID is never recorded twice, which is what makes webhook
// replays safe.
type Refund struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	RemoteID      string
	Amount        int64
	Reason        string
	IssuedBy      string
	CreatedAt     time.Time
}

// NewRefund creates a refund record
func NewRefund(transactionID uuid.UUID, remoteID string, amount int64) *Refund {
	return &Refund{
		ID:            uuid.New(),
		TransactionID: transactionID,
		RemoteID:      remoteID,
		Amount:        amount,
		CreatedAt:     time.Now(),
	}
}
