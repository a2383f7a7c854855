package valueobject

import (
	"errors"
)

var ErrInvalidMode = errors.New("invalid gateway mode")

// Mode selects which gateway credential universe an operation runs in.
// Live and sandbox objects never mix: every stored record and every remote
// call is partitioned by mode.
type Mode string

const (
	ModeLive    Mode = "live"
	ModeSandbox Mode = "sandbox"
)

// NewMode creates a Mode value object
func NewMode(mode string) (Mode, error) {
	m := Mode(mode)
	switch m {
	case ModeLive, ModeSandbox:
		return m, nil
	default:
		return "", ErrInvalidMode
	}
}

// String returns the string representation of the mode
func (m Mode) String() string {
	return string(m)
}

// IsLive reports whether real money moves in this mode
func (m Mode) IsLive() bool {
	return m == ModeLive
}
