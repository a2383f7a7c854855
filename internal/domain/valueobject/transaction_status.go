package valueobject

import (
	"errors"
)

var ErrInvalidTransactionStatus = errors.New("invalid transaction status")

type TransactionStatus string

const (
	TxnStatusSucceeded     TransactionStatus = "succeeded"
	TxnStatusFailed        TransactionStatus = "failed"
	TxnStatusRefunded      TransactionStatus = "refunded"
	TxnStatusPartialRefund TransactionStatus = "partial-refund"
	TxnStatusNeedsResponse TransactionStatus = "needs_response"
	TxnStatusUnderReview   TransactionStatus = "under_review"
	TxnStatusWon           TransactionStatus = "won"
	TxnStatusCancelled     TransactionStatus = "cancelled"
)

// NewTransactionStatus creates a TransactionStatus value object
func NewTransactionStatus(status string) (TransactionStatus, error) {
	s := TransactionStatus(status)
	switch s {
	case TxnStatusSucceeded, TxnStatusFailed, TxnStatusRefunded, TxnStatusPartialRefund,
		TxnStatusNeedsResponse, TxnStatusUnderReview, TxnStatusWon, TxnStatusCancelled:
		return s, nil
	default:
		return "", ErrInvalidTransactionStatus
	}
}

// String returns the string representation of the status
func (s TransactionStatus) String() string {
	return string(s)
}

// ClearedForDelivery reports whether the payment is settled enough for the
// order to be fulfilled.
func (s TransactionStatus) ClearedForDelivery() bool {
	switch s {
	case TxnStatusSucceeded, TxnStatusPartialRefund, TxnStatusWon:
		return true
	default:
		return false
	}
}

// DisputeStatus maps a gateway dispute status string onto a transaction
// status. Dispute statuses mirror the remote value directly.
func DisputeStatus(remote string) (TransactionStatus, error) {
	return NewTransactionStatus(remote)
}
