package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// DriftEpsilon is the largest difference between a reported and a ledger
// balance still treated as rounding noise.
var DriftEpsilon = decimal.New(1, -2)

// ParseAmount converts a client supplied amount into minor units.
func ParseAmount(d decimal.Decimal) (int64, error) {
	if !d.IsPositive() {
		return 0, ErrAmountMustBePositive
	}
	if !d.IsInteger() {
		return 0, ErrAmountNotWhole
	}
	if d.GreaterThan(maxAmount) {
		return 0, ErrAmountTooLarge
	}
	return d.IntPart(), nil
}

// ParseAmountJSON converts the raw JSON value of an amount field into minor
// units. Numbers and numeric strings are accepted; a missing value is zero.
func ParseAmountJSON(raw []byte) (int64, error) {
	var d decimal.Decimal
	if len(raw) > 0 {
		if err := d.UnmarshalJSON(raw); err != nil {
			return 0, ErrAmountNotNumeric
		}
	}
	return ParseAmount(d)
}

// HasDrift reports whether reported differs from the ledger balance by more
// than DriftEpsilon.
func HasDrift(ledger int64, reported decimal.Decimal) bool {
	return reported.Sub(decimal.NewFromInt(ledger)).Abs().GreaterThan(DriftEpsilon)
}
