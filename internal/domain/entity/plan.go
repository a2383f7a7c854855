package entity

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bivex/stripe-gateway/internal/domain/valueobject"
)

// ProductPlan records that a remote plan was created (or adopted) for a
// product with a particular hash of its recurring terms. The history lets
// the resolver reuse plans instead of creating a new one per purchase.
type ProductPlan struct {
	ProductID uuid.UUID
	PlanHash  string
	Mode      valueobject.Mode
	CreatedAt time.Time
}

// NewProductPlan creates a product plan history entry
func NewProductPlan(productID uuid.UUID, hash string, mode valueobject.Mode) *ProductPlan {
	return &ProductPlan{
		ProductID: productID,
		PlanHash:  hash,
		Mode:      mode,
		CreatedAt: time.Now(),
	}
}

// PlanHash content-addresses a plan by its billing terms. The hash doubles
// as the remote plan id, so identical terms always resolve to the same
// remote plan, and a racing create can be adopted by id. A zero trial hashes
// with an empty trial segment to stay compatible with plans created before
// trials existed.
func PlanHash(terms valueobject.RecurringTerms) string {
	trial := ""
	if terms.TrialDays > 0 {
		trial = fmt.Sprintf("%d", terms.TrialDays)
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%d|%s|%d|%s", terms.Amount, terms.Interval, terms.IntervalCount, trial)))
	return hex.EncodeToString(sum[:])
}
