package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stemsi/surveychain/internal/model"
)

// ErrAmount is returned for negative, fractional-e8s or overflowing amounts.
var ErrAmount = errors.New("invalid ICP amount")

var e8sPerICP = decimal.NewFromInt(int64(model.E8sPerICP))

// ToE8s converts an ICP amount to ledger units, rounding to the nearest e8.
func ToE8s(icp decimal.Decimal) (uint64, error) {
	if icp.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrAmount, icp)
	}
	e8s := icp.Mul(e8sPerICP).Round(0)
	if !e8s.BigInt().IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows", ErrAmount, icp)
	}
	return e8s.BigInt().Uint64(), nil
}

// ParseICP parses a decimal ICP string such as "0.01" into e8s.
func ParseICP(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAmount, err)
	}
	return ToE8s(d)
}

// FromE8s converts ledger units to ICP.
func FromE8s(e8s uint64) decimal.Decimal {
	return decimal.NewFromUint64(e8s).Div(e8sPerICP)
}

// FormatICP renders e8s as an ICP decimal string with 8 fraction digits.
func FormatICP(e8s uint64) string {
	return FromE8s(e8s).StringFixed(8)
}
