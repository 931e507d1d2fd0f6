package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/internal/metrics"
	"github.com/mmynk/warikan/pkg/api"
	"github.com/mmynk/warikan/pkg/api/apiconnect"
)

// CalculatorService implements the Connect CalculatorService.
type CalculatorService struct {
	apiconnect.UnimplementedCalculatorServiceHandler
	metrics *metrics.Metrics
}

// NewCalculatorService creates a CalculatorService. m may be nil.
func NewCalculatorService(m *metrics.Metrics) *CalculatorService {
	return &CalculatorService{metrics: m}
}

// Calculate validates the input and returns the computed split.
func (s *CalculatorService) Calculate(ctx context.Context, req *connect.Request[api.CalculateRequest]) (*connect.Response[api.CalculateResponse], error) {
	result, err := calculate(req.Msg, s.metrics)
	if err != nil {
		slog.Debug("Calculate rejected", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&api.CalculateResponse{Result: toResult(result)}), nil
}

// ExportCSV computes the split and renders it as CSV.
func (s *CalculatorService) ExportCSV(ctx context.Context, req *connect.Request[api.CalculateRequest]) (*connect.Response[api.ExportCSVResponse], error) {
	result, err := calculate(req.Msg, s.metrics)
	if err != nil {
		slog.Debug("ExportCSV rejected", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&api.ExportCSVResponse{CSV: calculator.ResultToCSV(result)}), nil
}

// calculate validates req, runs the calculator and records metrics.
// Errors wrap ErrInvalidRequest.
func calculate(req *api.CalculateRequest, m *metrics.Metrics) (calculator.CalculationResult, error) {
	input, result, err := compute(req)
	if err != nil {
		return calculator.CalculationResult{}, err
	}

	adjustment, _ := result.Breakdown.RoundingAdjustment.Float64()
	m.ObserveCalculation(string(input.SplitMethod), string(input.RoundingMethod), adjustment, len(result.Settlements))
	slog.Debug("Split calculated",
		"split_method", input.SplitMethod,
		"rounding_method", input.RoundingMethod,
		"people", len(input.People),
		"total", input.TotalAmount,
		"rounding_adjustment", result.Breakdown.RoundingAdjustment,
	)
	return result, nil
}

// compute validates req and runs the calculator without recording anything.
func compute(req *api.CalculateRequest) (calculator.CalculationInput, calculator.CalculationResult, error) {
	if err := validateRequest(req); err != nil {
		return calculator.CalculationInput{}, calculator.CalculationResult{}, err
	}
	input, err := toInput(req)
	if err != nil {
		return calculator.CalculationInput{}, calculator.CalculationResult{}, err
	}
	return input, calculator.CalculateSplit(input), nil
}
