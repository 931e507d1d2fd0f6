package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Round rounds each share's RoundedAmount to the method's unit. Ties round
// half away from zero (2.5 -> 3, 250 -> 300 for unit100). RoundNone returns
// the shares unchanged. The input slice is not modified.
func Round(shares []PersonShare, method RoundingMethod) []PersonShare {
	out := make([]PersonShare, len(shares))
	copy(out, shares)

	unit, ok := method.Unit()
	if !ok {
		return out
	}
	for i := range out {
		out[i].RoundedAmount = out[i].RoundedAmount.Div(unit).Round(0).Mul(unit)
	}
	return out
}

// DistributeRemainder repairs the shares so that their rounded amounts sum to
// total exactly, and returns the repaired copy together with the signed
// remainder that was handed out.
//
// People are visited by rounded amount, largest first, ties in input order.
// Each visit moves one unit towards the total; when the remainder holds more
// units than there are people the walk starts over from the top. Whatever is
// smaller than a unit (everything, for RoundNone) goes to the first person in
// that order.
func DistributeRemainder(shares []PersonShare, total decimal.Decimal, method RoundingMethod) ([]PersonShare, decimal.Decimal) {
	out := make([]PersonShare, len(shares))
	copy(out, shares)

	sum := decimal.Zero
	for _, s := range out {
		sum = sum.Add(s.RoundedAmount)
	}
	remainder := total.Sub(sum)
	if remainder.IsZero() || len(out) == 0 {
		return out, remainder
	}

	order := distributionOrder(out)
	leftover := remainder
	if unit, ok := method.Unit(); ok {
		step := unit
		if remainder.IsNegative() {
			step = unit.Neg()
		}
		steps := remainder.Abs().Div(unit).Floor().IntPart()
		for k := int64(0); k < steps; k++ {
			i := order[k%int64(len(order))]
			out[i].RoundedAmount = out[i].RoundedAmount.Add(step)
		}
		leftover = remainder.Sub(step.Mul(decimal.NewFromInt(steps)))
	}
	if !leftover.IsZero() {
		i := order[0]
		out[i].RoundedAmount = out[i].RoundedAmount.Add(leftover)
	}
	return out, remainder
}

// distributionOrder returns share indexes sorted by rounded amount descending,
// keeping input order among equal amounts.
func distributionOrder(shares []PersonShare) []int {
	order := make([]int, len(shares))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return shares[order[a]].RoundedAmount.GreaterThan(shares[order[b]].RoundedAmount)
	})
	return order
}
