package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SplitMethod selects how the total is allocated across people.
type SplitMethod string

const (
	SplitEqual  SplitMethod = "equal"
	SplitRatio  SplitMethod = "ratio"
	SplitManual SplitMethod = "manual"
	SplitItem   SplitMethod = "item"
)

// RoundingMethod selects the unit each share is rounded to.
type RoundingMethod string

const (
	RoundNone    RoundingMethod = "none"
	RoundUnit1   RoundingMethod = "unit1"
	RoundUnit10  RoundingMethod = "unit10"
	RoundUnit100 RoundingMethod = "unit100"
)

// ChargeType tells how a ChargeSpec value is interpreted.
type ChargeType string

const (
	ChargePercentage ChargeType = "percentage"
	ChargeFixed      ChargeType = "fixed"
)

var (
	ErrUnknownSplitMethod    = errors.New("unknown split method")
	ErrUnknownRoundingMethod = errors.New("unknown rounding method")
	ErrUnknownChargeType     = errors.New("unknown charge type")
)

// Person is one participant of the split.
// Ratio is only read by the ratio strategy and Amount only by the manual one;
// a zero value means "not given".
type Person struct {
	ID     string
	Name   string
	Ratio  decimal.Decimal
	Amount decimal.Decimal
}

// Item is a line item for the itemized strategy.
type Item struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	AssignedTo []string
}

// ChargeSpec describes the service charge already included in the total.
type ChargeSpec struct {
	Type  ChargeType
	Value decimal.Decimal
}

// CalculationInput is a validated snapshot supplied by the caller.
type CalculationInput struct {
	TotalAmount    decimal.Decimal
	People         []Person
	ServiceCharge  ChargeSpec
	SplitMethod    SplitMethod
	RoundingMethod RoundingMethod
	Items          []Item
	PaidBy         string
}

// PersonShare is one person's part of the total.
type PersonShare struct {
	PersonID      string
	Name          string
	RawAmount     decimal.Decimal
	RoundedAmount decimal.Decimal
}

// Settlement is a transfer from a debtor to a creditor.
type Settlement struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// Breakdown explains how the total was composed.
type Breakdown struct {
	BaseAmount          decimal.Decimal
	ServiceCharge       decimal.Decimal
	TotalBeforeRounding decimal.Decimal
	// RoundingAdjustment is the signed amount handed out by the remainder step.
	RoundingAdjustment decimal.Decimal
}

// CalculationResult is the output of CalculateSplit.
type CalculationResult struct {
	TotalWithCharge  decimal.Decimal
	PerPersonAmounts []PersonShare
	Settlements      []Settlement
	Breakdown        Breakdown
}

// ParseSplitMethod converts a wire value into a SplitMethod.
func ParseSplitMethod(s string) (SplitMethod, error) {
	switch m := SplitMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case SplitEqual, SplitRatio, SplitManual, SplitItem:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSplitMethod, s)
}

// ParseRoundingMethod converts a wire value into a RoundingMethod.
// The yen-prefixed names are accepted as aliases of the unit ones.
func ParseRoundingMethod(s string) (RoundingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return RoundNone, nil
	case "unit1", "yen1":
		return RoundUnit1, nil
	case "unit10", "yen10":
		return RoundUnit10, nil
	case "unit100", "yen100":
		return RoundUnit100, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoundingMethod, s)
}

// ParseChargeType converts a wire value into a ChargeType.
func ParseChargeType(s string) (ChargeType, error) {
	switch t := ChargeType(strings.ToLower(strings.TrimSpace(s))); t {
	case ChargePercentage, ChargeFixed:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChargeType, s)
}

// Unit returns the rounding unit and false for RoundNone.
func (m RoundingMethod) Unit() (decimal.Decimal, bool) {
	switch m {
	case RoundUnit1:
		return decimal.NewFromInt(1), true
	case RoundUnit10:
		return decimal.NewFromInt(10), true
	case RoundUnit100:
		return decimal.NewFromInt(100), true
	}
	return decimal.Zero, false
}
