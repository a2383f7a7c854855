package valueobject

import (
	"errors"
	"fmt"
)

var ErrInvalidInterval = errors.New("invalid billing interval")

// Interval is a recurring billing period unit.
type Interval string

const (
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// NewInterval creates an Interval value object
func NewInterval(interval string) (Interval, error) {
	i := Interval(interval)
	switch i {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return i, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
}

// String returns the string representation of the interval
func (i Interval) String() string {
	return string(i)
}

// Days returns the approximate day count of one interval, used to express
// trial lengths in the whole-day unit the gateway expects.
func (i Interval) Days() int {
	switch i {
	case IntervalYear:
		return 365
	case IntervalMonth:
		return 31
	case IntervalWeek:
		return 7
	default:
		return 1
	}
}

// RecurringTerms describes a product's auto-renewing billing terms as the
// platform computed them. Amount is the recurring charge in cents, net of
// one-time fees. TrialDays is zero when the purchasing customer is not
// eligible for a trial, which keeps trial and non-trial purchases on
// distinct plans.
type RecurringTerms struct {
	Amount        int64
	Interval      Interval
	IntervalCount int
	TrialDays     int
}

// Validate checks the terms are usable for plan creation
func (t RecurringTerms) Validate() error {
	if t.Amount < 0 {
		return ErrInvalidAmount
	}
	if _, err := NewInterval(string(t.Interval)); err != nil {
		return err
	}
	if t.IntervalCount < 1 {
		return fmt.Errorf("%w: interval count %d", ErrInvalidInterval, t.IntervalCount)
	}
	return nil
}

// TrialDaysFrom converts a trial expressed as interval units into whole days.
func TrialDaysFrom(interval Interval, count int) int {
	if count <= 0 {
		return 0
	}
	return count * interval.Days()
}
