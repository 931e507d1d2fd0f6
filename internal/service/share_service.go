package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/internal/metrics"
	"github.com/mmynk/warikan/internal/models"
	"github.com/mmynk/warikan/internal/storage"
	"github.com/mmynk/warikan/pkg/api"
	"github.com/mmynk/warikan/pkg/api/apiconnect"
)

// DefaultShareTTL is how long a share link stays valid.
const DefaultShareTTL = 24 * time.Hour

// ShareService implements the Connect ShareService and the CSV download
// endpoint for shared results.
type ShareService struct {
	apiconnect.UnimplementedShareServiceHandler
	store   storage.Store
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewShareService creates a ShareService on top of store. A zero ttl means
// shares never expire. m may be nil.
func NewShareService(store storage.Store, ttl time.Duration, m *metrics.Metrics) *ShareService {
	return &ShareService{store: store, ttl: ttl, metrics: m, now: time.Now}
}

// CreateShare validates the input, stores it and returns its short code.
// Expired shares are purged first.
func (s *ShareService) CreateShare(ctx context.Context, req *connect.Request[api.CalculateRequest]) (*connect.Response[api.CreateShareResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		s.metrics.ObserveShare("create", "invalid")
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	payload, err := json.Marshal(req.Msg)
	if err != nil {
		s.metrics.ObserveShare("create", "error")
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to encode share: %w", err))
	}

	now := s.now()
	if n, err := s.store.DeleteExpired(ctx, now); err != nil {
		slog.Warn("CreateShare: failed to purge expired shares", "error", err)
	} else if n > 0 {
		slog.Info("Purged expired shares", "count", n)
	}

	share := &models.Share{
		Title:     shareTitle(req.Msg.People),
		Payload:   payload,
		CreatedAt: now.Unix(),
	}
	if s.ttl > 0 {
		share.ExpiresAt = now.Add(s.ttl).Unix()
	}

	if err := s.store.CreateShare(ctx, share); err != nil {
		slog.Error("CreateShare failed", "error", err)
		s.metrics.ObserveShare("create", "error")
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Share created", "code", share.Code, "title", share.Title)
	s.metrics.ObserveShare("create", "ok")
	return connect.NewResponse(&api.CreateShareResponse{
		Code:      share.Code,
		ExpiresAt: share.ExpiresAt,
	}), nil
}

// GetShare loads a share and recomputes its result.
func (s *ShareService) GetShare(ctx context.Context, req *connect.Request[api.GetShareRequest]) (*connect.Response[api.GetShareResponse], error) {
	if strings.TrimSpace(req.Msg.Code) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: 'code' is required", ErrInvalidRequest))
	}

	share, input, result, err := s.load(ctx, req.Msg.Code)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetShareResponse{
		Input:     *input,
		Result:    toResult(result),
		CreatedAt: share.CreatedAt,
		ExpiresAt: share.ExpiresAt,
	}), nil
}

// ServeCSV handles GET /s/{code}/csv.
func (s *ShareService) ServeCSV(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	_, _, result, err := s.load(r.Context(), code)
	if err != nil {
		status := http.StatusInternalServerError
		switch connect.CodeOf(err) {
		case connect.CodeNotFound:
			status = http.StatusNotFound
		case connect.CodeInvalidArgument:
			status = http.StatusBadRequest
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "warikan-"+code+".csv"))
	if _, err := w.Write([]byte(calculator.ResultToCSV(result))); err != nil {
		slog.Warn("ServeCSV: write failed", "code", code, "error", err)
	}
}

// load fetches the share by code and recomputes its result. Reads count
// towards share metrics only, not calculation metrics. Errors are
// *connect.Error values.
func (s *ShareService) load(ctx context.Context, code string) (*models.Share, *api.CalculateRequest, calculator.CalculationResult, error) {
	var none calculator.CalculationResult

	share, err := s.store.GetShare(ctx, code)
	if errors.Is(err, storage.ErrNotFound) {
		s.metrics.ObserveShare("get", "not_found")
		return nil, nil, none, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		slog.Error("GetShare failed", "code", code, "error", err)
		s.metrics.ObserveShare("get", "error")
		return nil, nil, none, connect.NewError(connect.CodeInternal, err)
	}
	if share.Expired(s.now().Unix()) {
		s.metrics.ObserveShare("get", "expired")
		return nil, nil, none, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s expired", storage.ErrNotFound, code))
	}

	input := &api.CalculateRequest{}
	if err := json.Unmarshal(share.Payload, input); err != nil {
		slog.Error("GetShare: corrupt payload", "code", code, "error", err)
		s.metrics.ObserveShare("get", "error")
		return nil, nil, none, connect.NewError(connect.CodeInternal, fmt.Errorf("failed to decode share: %w", err))
	}

	_, result, err := compute(input)
	if err != nil {
		s.metrics.ObserveShare("get", "error")
		return nil, nil, none, connect.NewError(connect.CodeInternal, err)
	}

	s.metrics.ObserveShare("get", "ok")
	return share, input, result, nil
}

// shareTitle builds a label like "Split with Aoi, Ren and 2 others".
func shareTitle(people []api.Person) string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = p.ID
		}
		names = append(names, name)
	}
	switch {
	case len(names) == 0:
		return "Split"
	case len(names) <= 3:
		return "Split with " + strings.Join(names, ", ")
	default:
		return fmt.Sprintf("Split with %s and %d others", strings.Join(names[:2], ", "), len(names)-2)
	}
}
