package calculator

import "github.com/shopspring/decimal"

// Allocate distributes the full total across people with the input's split
// method. Every returned share has RoundedAmount equal to RawAmount; rounding
// happens later.
//
// charge is the absolute service charge; only the item strategy reads it.
func Allocate(input CalculationInput, charge decimal.Decimal) []PersonShare {
	if len(input.People) == 0 {
		return nil
	}
	switch input.SplitMethod {
	case SplitRatio:
		return allocateRatio(input.People, input.TotalAmount)
	case SplitManual:
		return allocateManual(input.People, input.TotalAmount)
	case SplitItem:
		return allocateItems(input.People, input.Items, charge)
	default:
		return allocateEqual(input.People, input.TotalAmount)
	}
}

func newShare(p Person, amount decimal.Decimal) PersonShare {
	return PersonShare{
		PersonID:      p.ID,
		Name:          p.Name,
		RawAmount:     amount,
		RoundedAmount: amount,
	}
}

func allocateEqual(people []Person, total decimal.Decimal) []PersonShare {
	perPerson := total.Div(decimal.NewFromInt(int64(len(people))))
	shares := make([]PersonShare, len(people))
	for i, p := range people {
		shares[i] = newShare(p, perPerson)
	}
	return shares
}

// allocateRatio splits proportionally to each person's ratio. When no one has
// a positive ratio it falls back to an equal split.
func allocateRatio(people []Person, total decimal.Decimal) []PersonShare {
	sum := decimal.Zero
	for _, p := range people {
		sum = sum.Add(p.Ratio)
	}
	if sum.IsZero() {
		return allocateEqual(people, total)
	}

	shares := make([]PersonShare, len(people))
	for i, p := range people {
		shares[i] = newShare(p, total.Mul(p.Ratio).Div(sum))
	}
	return shares
}

// allocateManual takes everyone's amount literally except the last person,
// who absorbs whatever is left of the total.
func allocateManual(people []Person, total decimal.Decimal) []PersonShare {
	shares := make([]PersonShare, len(people))
	assigned := decimal.Zero
	last := len(people) - 1
	for i, p := range people[:last] {
		shares[i] = newShare(p, p.Amount)
		assigned = assigned.Add(p.Amount)
	}
	shares[last] = newShare(people[last], total.Sub(assigned))
	return shares
}

// allocateItems splits each item evenly among the people it is assigned to,
// then adds an equal slice of the service charge to everyone.
func allocateItems(people []Person, items []Item, charge decimal.Decimal) []PersonShare {
	subtotals := make(map[string]decimal.Decimal, len(people))
	for _, item := range items {
		if len(item.AssignedTo) == 0 {
			continue
		}
		perPerson := item.Price.Div(decimal.NewFromInt(int64(len(item.AssignedTo))))
		for _, id := range item.AssignedTo {
			subtotals[id] = subtotals[id].Add(perPerson)
		}
	}

	chargePerPerson := charge.Div(decimal.NewFromInt(int64(len(people))))
	shares := make([]PersonShare, len(people))
	for i, p := range people {
		shares[i] = newShare(p, subtotals[p.ID].Add(chargePerPerson))
	}
	return shares
}
