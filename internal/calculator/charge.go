package calculator

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ResolveCharge splits a charge-inclusive total into its base and the
// service charge, so that base + charge == total.
//
// A fixed charge larger than the total yields a negative base; it is
// returned as is.
func ResolveCharge(total decimal.Decimal, spec ChargeSpec) (base, charge decimal.Decimal) {
	switch spec.Type {
	case ChargePercentage:
		factor := decimal.NewFromInt(1).Add(spec.Value.Div(hundred))
		if factor.IsZero() {
			return decimal.Zero, total
		}
		base = total.Div(factor)
		return base, total.Sub(base)
	case ChargeFixed:
		return total.Sub(spec.Value), spec.Value
	}
	return total, decimal.Zero
}
