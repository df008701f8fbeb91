package discount

import (
	"github.com/shopspring/decimal"
)

var (
	hundred     = decimal.NewFromInt(100)
	yearDays360 = decimal.NewFromInt(360)
)

// Compute calculates the discount withheld for early payment and the amount
// to pay out, using a 360-day-year convention:
//
//	discount = round2(principal * rate/100 * days/360)
//	payout   = round2(principal - discount)
//
// Rounding is half-up to 2 fractional digits at each boundary, so
// discount + payout always equals principal to the cent. Pure function:
// invalid inputs (non-positive principal, rate out of range) are rejected
// upstream by the operation guards.
func Compute(principal, rate decimal.Decimal, days int) (discount, payout decimal.Decimal) {
	discount = principal.
		Mul(rate).Div(hundred).
		Mul(decimal.NewFromInt(int64(days))).Div(yearDays360).
		Round(2)
	payout = principal.Sub(discount).Round(2)
	return discount, payout
}
