package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/pkg/api"
)

// MaxRatioSum bounds the sum of ratios in a ratio split.
var MaxRatioSum = decimal.NewFromInt(101)

// itemsTolerance is how far item prices may drift from the base amount.
// Anything smaller than one currency unit is a residue of the charge
// division and is left to the remainder step.
var itemsTolerance = decimal.NewFromInt(1)

// Validation errors.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrDuplicatePersonID   = errors.New("duplicate person id")
	ErrUnknownPayer        = errors.New("paidBy must be one of the people")
	ErrRatioSumTooLarge    = errors.New("sum of ratios exceeds 101")
	ErrManualOverAllocated = errors.New("manual amounts exceed the total")
	ErrItemsRequired       = errors.New("item split needs at least one item")
	ErrUnknownAssignee     = errors.New("item assigned to unknown person")
	ErrDuplicateAssignee   = errors.New("item assigned to the same person twice")
	ErrItemsMismatchTotal  = errors.New("item prices do not add up to the amount before charge")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		vld := validator.New(validator.WithRequiredStructEnabled())
		vld.RegisterCustomTypeFunc(func(v reflect.Value) any {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})
		vld.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		validate = vld
	})
	return validate
}

// validateRequest checks everything the calculator expects its caller to
// guarantee. The returned error wraps ErrInvalidRequest.
func validateRequest(req *api.CalculateRequest) error {
	if err := getValidator().Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := checkDomain(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "CalculateRequest.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", field)
	case "min":
		return fmt.Sprintf("'%s' needs at least %s entries", field, fe.Param())
	case "gt":
		return fmt.Sprintf("'%s' must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("'%s' must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("'%s' must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("'%s' failed '%s' check", field, fe.Tag())
}

func checkDomain(req *api.CalculateRequest) error {
	ids := make(map[string]bool, len(req.People))
	for _, p := range req.People {
		if ids[p.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicatePersonID, p.ID)
		}
		ids[p.ID] = true
	}

	if req.PaidBy != "" && !ids[req.PaidBy] {
		return fmt.Errorf("%w: %s", ErrUnknownPayer, req.PaidBy)
	}

	method, err := calculator.ParseSplitMethod(req.SplitMethod)
	if err != nil {
		return err
	}

	switch method {
	case calculator.SplitRatio:
		sum := decimal.Zero
		for _, p := range req.People {
			sum = sum.Add(p.Ratio)
		}
		if sum.GreaterThan(MaxRatioSum) {
			return fmt.Errorf("%w: got %s", ErrRatioSumTooLarge, sum)
		}
	case calculator.SplitManual:
		// The last person absorbs the rest, so only the others count.
		others := decimal.Zero
		for _, p := range req.People[:len(req.People)-1] {
			others = others.Add(p.Amount)
		}
		if others.GreaterThan(req.TotalAmount) {
			return fmt.Errorf("%w: %s > %s", ErrManualOverAllocated, others, req.TotalAmount)
		}
	case calculator.SplitItem:
		if len(req.Items) == 0 {
			return ErrItemsRequired
		}
		prices := decimal.Zero
		for _, item := range req.Items {
			prices = prices.Add(item.Price)
			seen := make(map[string]bool, len(item.AssignedTo))
			for _, id := range item.AssignedTo {
				if !ids[id] {
					return fmt.Errorf("%w: %q on item %q", ErrUnknownAssignee, id, item.Name)
				}
				if seen[id] {
					return fmt.Errorf("%w: %q on item %q", ErrDuplicateAssignee, id, item.Name)
				}
				seen[id] = true
			}
		}
		chargeType, err := calculator.ParseChargeType(req.ServiceCharge.Type)
		if err != nil {
			return err
		}
		base, _ := calculator.ResolveCharge(req.TotalAmount, calculator.ChargeSpec{
			Type:  chargeType,
			Value: req.ServiceCharge.Value,
		})
		if prices.Sub(base).Abs().GreaterThanOrEqual(itemsTolerance) {
			return fmt.Errorf("%w: items %s, base %s", ErrItemsMismatchTotal, prices, base)
		}
	}
	return nil
}
