package service

import (
	"fmt"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/pkg/api"
)

// toInput converts a validated request into the calculator's input.
func toInput(req *api.CalculateRequest) (calculator.CalculationInput, error) {
	splitMethod, err := calculator.ParseSplitMethod(req.SplitMethod)
	if err != nil {
		return calculator.CalculationInput{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	roundingMethod, err := calculator.ParseRoundingMethod(req.RoundingMethod)
	if err != nil {
		return calculator.CalculationInput{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	chargeType, err := calculator.ParseChargeType(req.ServiceCharge.Type)
	if err != nil {
		return calculator.CalculationInput{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	people := make([]calculator.Person, len(req.People))
	for i, p := range req.People {
		people[i] = calculator.Person{ID: p.ID, Name: p.Name, Ratio: p.Ratio, Amount: p.Amount}
	}
	items := make([]calculator.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = calculator.Item{
			ID:         item.ID,
			Name:       item.Name,
			Price:      item.Price,
			AssignedTo: item.AssignedTo,
		}
	}

	return calculator.CalculationInput{
		TotalAmount:    req.TotalAmount,
		People:         people,
		ServiceCharge:  calculator.ChargeSpec{Type: chargeType, Value: req.ServiceCharge.Value},
		SplitMethod:    splitMethod,
		RoundingMethod: roundingMethod,
		Items:          items,
		PaidBy:         req.PaidBy,
	}, nil
}

// toResult converts a calculator result to its wire form. Slices are never
// nil so they encode as [] rather than null.
func toResult(r calculator.CalculationResult) api.CalculationResult {
	shares := make([]api.PersonShare, len(r.PerPersonAmounts))
	for i, s := range r.PerPersonAmounts {
		shares[i] = api.PersonShare{
			PersonID:      s.PersonID,
			Name:          s.Name,
			RawAmount:     s.RawAmount,
			RoundedAmount: s.RoundedAmount,
		}
	}
	settlements := make([]api.Settlement, len(r.Settlements))
	for i, s := range r.Settlements {
		settlements[i] = api.Settlement{From: s.From, To: s.To, Amount: s.Amount}
	}

	return api.CalculationResult{
		TotalWithCharge:  r.TotalWithCharge,
		PerPersonAmounts: shares,
		Settlements:      settlements,
		Breakdown: api.Breakdown{
			BaseAmount:          r.Breakdown.BaseAmount,
			ServiceCharge:       r.Breakdown.ServiceCharge,
			TotalBeforeRounding: r.Breakdown.TotalBeforeRounding,
			RoundingAdjustment:  r.Breakdown.RoundingAdjustment,
		},
	}
}
