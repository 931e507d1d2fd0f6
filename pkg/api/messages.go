// Package api defines the wire messages of the warikan.v1 services.
//
// Amounts are decimals and travel as JSON strings ("1000", "333.5"); plain
// JSON numbers are accepted on input as well. Field names follow the web
// client's camelCase convention.
package api

import "github.com/shopspring/decimal"

// Person is a participant of the split.
type Person struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`

	// Ratio is read by the ratio split only. Zero or absent counts as 0.
	Ratio decimal.Decimal `json:"ratio" validate:"gte=0"`

	// Amount is read by the manual split only. The last person's amount is
	// ignored; they absorb whatever the others leave.
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

// Item is a line item for the item split.
type Item struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	AssignedTo []string        `json:"assignedTo" validate:"required,min=1,dive,required"`
}

// ServiceCharge describes the charge already included in the total.
type ServiceCharge struct {
	Type  string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value" validate:"gte=0"`
}

// CalculateRequest is the calculation input shared by every RPC.
type CalculateRequest struct {
	TotalAmount    decimal.Decimal `json:"totalAmount" validate:"gt=0"`
	People         []Person        `json:"people" validate:"required,min=1,dive"`
	ServiceCharge  ServiceCharge   `json:"serviceCharge"`
	SplitMethod    string          `json:"splitMethod" validate:"required,oneof=equal ratio manual item"`
	RoundingMethod string          `json:"roundingMethod" validate:"required,oneof=none unit1 unit10 unit100 yen1 yen10 yen100"`
	Items          []Item          `json:"items,omitempty" validate:"omitempty,dive"`
	PaidBy         string          `json:"paidBy,omitempty"`
}

// PersonShare is one person's computed share.
type PersonShare struct {
	PersonID      string          `json:"personId"`
	Name          string          `json:"name"`
	RawAmount     decimal.Decimal `json:"rawAmount"`
	RoundedAmount decimal.Decimal `json:"roundedAmount"`
}

// Settlement is a transfer between two people.
type Settlement struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Breakdown explains how the total was composed.
type Breakdown struct {
	BaseAmount          decimal.Decimal `json:"baseAmount"`
	ServiceCharge       decimal.Decimal `json:"serviceCharge"`
	TotalBeforeRounding decimal.Decimal `json:"totalBeforeRounding"`
	RoundingAdjustment  decimal.Decimal `json:"roundingAdjustment"`
}

// CalculationResult is the computed split.
type CalculationResult struct {
	TotalWithCharge  decimal.Decimal `json:"totalWithCharge"`
	PerPersonAmounts []PersonShare   `json:"perPersonAmounts"`
	Settlements      []Settlement    `json:"settlements"`
	Breakdown        Breakdown       `json:"breakdown"`
}

type CalculateResponse struct {
	Result CalculationResult `json:"result"`
}

type ExportCSVResponse struct {
	CSV string `json:"csv"`
}

type CreateShareResponse struct {
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expiresAt"`
}

type GetShareRequest struct {
	Code string `json:"code" validate:"required"`
}

type GetShareResponse struct {
	Input     CalculateRequest  `json:"input"`
	Result    CalculationResult `json:"result"`
	CreatedAt int64             `json:"createdAt"`
	ExpiresAt int64             `json:"expiresAt"`
}
