// Package calculator splits a charge-inclusive total among people and works
// out the transfers needed when one of them paid the whole bill.
//
// The pipeline is strictly sequential:
//
//	ResolveCharge -> Allocate -> Round -> DistributeRemainder -> Settle
//
// All functions are pure and safe for concurrent use. Input validation is the
// caller's job; the package never returns errors for domain edge cases.
package calculator

import "github.com/shopspring/decimal"

// CalculateSplit runs the full pipeline over one input snapshot.
// The rounded amounts in the result always sum to input.TotalAmount.
func CalculateSplit(input CalculationInput) CalculationResult {
	base, charge := ResolveCharge(input.TotalAmount, input.ServiceCharge)

	raw := Allocate(input, charge)
	beforeRounding := decimal.Zero
	for _, s := range raw {
		beforeRounding = beforeRounding.Add(s.RawAmount)
	}

	rounded := Round(raw, input.RoundingMethod)
	shares, adjustment := DistributeRemainder(rounded, input.TotalAmount, input.RoundingMethod)

	return CalculationResult{
		TotalWithCharge:  input.TotalAmount,
		PerPersonAmounts: shares,
		Settlements:      Settle(shares, input.PaidBy, input.TotalAmount),
		Breakdown: Breakdown{
			BaseAmount:          base,
			ServiceCharge:       charge,
			TotalBeforeRounding: beforeRounding,
			RoundingAdjustment:  adjustment,
		},
	}
}
