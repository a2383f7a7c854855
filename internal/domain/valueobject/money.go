package valueobject

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAmount   = errors.New("amount must be non-negative")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// Money represents a monetary value in the currency's smallest unit (cents),
// matching the wire format the gateway uses.
type Money struct {
	Amount   int64
	Currency string // ISO 4217 currency code (e.g., "USD", "EUR")
}

// NewMoney creates a new Money value object
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if !isValidCurrency(currency) {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}
	return Money{
		Amount:   amount,
		Currency: strings.ToUpper(currency),
	}, nil
}

// isValidCurrency checks if the currency code is valid (3 letters)
func isValidCurrency(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, c := range currency {
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}

// String returns a string representation of the money
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.Amount/100, m.Amount%100, m.Currency)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.Amount == 0
}
