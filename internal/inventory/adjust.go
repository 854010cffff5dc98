package inventory

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonRestock    Reason = "restock"
	ReasonReturn     Reason = "return"
	ReasonDamage     Reason = "damage"
	ReasonTheft      Reason = "theft"
	ReasonCorrection Reason = "correction"
	ReasonOther      Reason = "other"
)

func Reasons() []Reason {
	return []Reason{ReasonRestock, ReasonReturn, ReasonDamage, ReasonTheft, ReasonCorrection, ReasonOther}
}

func (r Reason) Valid() bool {
	for _, v := range Reasons() {
		if r == v {
			return true
		}
	}
	return false
}

var (
	ErrMissingReason = errors.New("adjustment reason is required")
	ErrUnknownReason = errors.New("unknown adjustment reason")
	ErrZeroDelta     = errors.New("adjustment quantity must not be zero")
	ErrNegativeStock = errors.New("adjustment would make stock negative")
)

// Adjustment is a signed change to an item's stock.
type Adjustment struct {
	Delta  int    `json:"quantity"`
	Reason Reason `json:"reason"`
	Note   string `json:"note,omitempty"`
}

// ValidateAdjustment is the client-side guard run before submitting. The
// server repeats the check against its own current quantity.
func ValidateAdjustment(current int, a Adjustment) error {
	if a.Reason == "" {
		return ErrMissingReason
	}
	if !a.Reason.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownReason, a.Reason)
	}
	if a.Delta == 0 {
		return ErrZeroDelta
	}
	if current+a.Delta < 0 {
		return fmt.Errorf("%w: %d%+d", ErrNegativeStock, current, a.Delta)
	}
	return nil
}
