package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// CustomerMapping links a local customer to their remote gateway customer.
// Live and sandbox mappings for the same customer are distinct remote
// entities and never shared.
type CustomerMapping struct {
	CustomerID       uuid.UUID
	Mode             valueobject.Mode
	RemoteCustomerID string
	CreatedAt        time.Time
}

// NewCustomerMapping creates a customer mapping
func NewCustomerMapping(customerID uuid.UUID, mode valueobject.Mode, remoteID string) *CustomerMapping {
	return &CustomerMapping{
		CustomerID:       customerID,
		Mode:             mode,
		RemoteCustomerID: remoteID,
		CreatedAt:        time.Now(),
	}
}
