package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/warikan/internal/metrics"
	"github.com/mmynk/warikan/internal/storage/sqlite"
	"github.com/mmynk/warikan/pkg/api"
	"github.com/mmynk/warikan/pkg/api/apiconnect"
)

type testServer struct {
	calc    apiconnect.CalculatorServiceClient
	share   apiconnect.ShareServiceClient
	shares  *ShareService
	metrics *metrics.Metrics
	url     string
}

// setupTestServer starts both services on an httptest server backed by a
// temp SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := metrics.New("warikan_test", prometheus.NewRegistry())
	calcSvc := NewCalculatorService(m)
	shareSvc := NewShareService(store, DefaultShareTTL, m)

	mux := http.NewServeMux()
	calcPath, calcHandler := apiconnect.NewCalculatorServiceHandler(calcSvc)
	mux.Handle(calcPath, calcHandler)
	sharePath, shareHandler := apiconnect.NewShareServiceHandler(shareSvc)
	mux.Handle(sharePath, shareHandler)
	mux.HandleFunc("GET /s/{code}/csv", shareSvc.ServeCSV)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		calc:    apiconnect.NewCalculatorServiceClient(http.DefaultClient, server.URL),
		share:   apiconnect.NewShareServiceClient(http.DefaultClient, server.URL),
		shares:  shareSvc,
		metrics: m,
		url:     server.URL,
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func threePeople() []api.Person {
	return []api.Person{
		{ID: "p1", Name: "Aoi"},
		{ID: "p2", Name: "Ren"},
		{ID: "p3", Name: "Sora"},
	}
}

func equalRequest() *api.CalculateRequest {
	return &api.CalculateRequest{
		TotalAmount:    d("1000"),
		People:         threePeople(),
		ServiceCharge:  api.ServiceCharge{Type: "percentage", Value: decimal.Zero},
		SplitMethod:    "equal",
		RoundingMethod: "unit1",
	}
}

func roundedAmounts(shares []api.PersonShare) []string {
	out := make([]string, len(shares))
	for i, s := range shares {
		out[i] = s.RoundedAmount.String()
	}
	return out
}

func TestCalculate(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name         string
		modify       func(*api.CalculateRequest)
		wantAmounts  []string
		validateFunc func(t *testing.T, r api.CalculationResult)
	}{
		{
			name:        "equal split unit1",
			wantAmounts: []string{"334", "333", "333"},
			validateFunc: func(t *testing.T, r api.CalculationResult) {
				assert.True(t, r.Breakdown.RoundingAdjustment.Equal(d("1")))
				assert.Empty(t, r.Settlements)
				assert.NotNil(t, r.Settlements)
			},
		},
		{
			name: "equal split unit100 with yen alias",
			modify: func(r *api.CalculateRequest) {
				r.RoundingMethod = "yen100"
			},
			wantAmounts: []string{"400", "300", "300"},
		},
		{
			name: "percentage charge",
			modify: func(r *api.CalculateRequest) {
				r.TotalAmount = d("1100")
				r.ServiceCharge = api.ServiceCharge{Type: "percentage", Value: d("10")}
				r.People = r.People[:2]
			},
			wantAmounts: []string{"550", "550"},
			validateFunc: func(t *testing.T, r api.CalculationResult) {
				assert.True(t, r.Breakdown.BaseAmount.Equal(d("1000")), "base = %s", r.Breakdown.BaseAmount)
				assert.True(t, r.Breakdown.ServiceCharge.Equal(d("100")), "charge = %s", r.Breakdown.ServiceCharge)
				assert.True(t, r.TotalWithCharge.Equal(d("1100")))
			},
		},
		{
			name: "ratio split",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "ratio"
				r.People[0].Ratio = d("50")
				r.People[1].Ratio = d("30")
				r.People[2].Ratio = d("20")
			},
			wantAmounts: []string{"500", "300", "200"},
		},
		{
			name: "manual split last person absorbs the rest",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "manual"
				r.People[0].Amount = d("600")
				r.People[1].Amount = d("100")
				r.People[2].Amount = d("9999")
			},
			wantAmounts: []string{"600", "100", "300"},
		},
		{
			name: "item split with fixed charge",
			modify: func(r *api.CalculateRequest) {
				r.TotalAmount = d("1300")
				r.SplitMethod = "item"
				r.ServiceCharge = api.ServiceCharge{Type: "fixed", Value: d("300")}
				r.Items = []api.Item{
					{ID: "i1", Name: "Ramen", Price: d("600"), AssignedTo: []string{"p1"}},
					{ID: "i2", Name: "Gyoza", Price: d("400"), AssignedTo: []string{"p2", "p3"}},
				}
			},
			wantAmounts: []string{"700", "300", "300"},
		},
		{
			name: "settlements towards the payer",
			modify: func(r *api.CalculateRequest) {
				r.PaidBy = "p2"
			},
			wantAmounts: []string{"334", "333", "333"},
			validateFunc: func(t *testing.T, r api.CalculationResult) {
				require.Len(t, r.Settlements, 2)
				assert.Equal(t, "p1", r.Settlements[0].From)
				assert.Equal(t, "p2", r.Settlements[0].To)
				assert.True(t, r.Settlements[0].Amount.Equal(d("334")))
				assert.Equal(t, "p3", r.Settlements[1].From)
				assert.True(t, r.Settlements[1].Amount.Equal(d("333")))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := equalRequest()
			if tt.modify != nil {
				tt.modify(req)
			}
			resp, err := srv.calc.Calculate(context.Background(), connect.NewRequest(req))
			require.NoError(t, err)

			result := resp.Msg.Result
			assert.Equal(t, tt.wantAmounts, roundedAmounts(result.PerPersonAmounts))

			sum := decimal.Zero
			for _, s := range result.PerPersonAmounts {
				sum = sum.Add(s.RoundedAmount)
			}
			assert.True(t, sum.Equal(req.TotalAmount), "sum %s != total %s", sum, req.TotalAmount)

			if tt.validateFunc != nil {
				tt.validateFunc(t, result)
			}
		})
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(srv.metrics.Calculations.WithLabelValues("equal", "unit1")))
}

func TestCalculate_InvalidArgument(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name    string
		modify  func(*api.CalculateRequest)
		wantErr error
	}{
		{
			name:   "no people",
			modify: func(r *api.CalculateRequest) { r.People = nil },
		},
		{
			name:   "negative total",
			modify: func(r *api.CalculateRequest) { r.TotalAmount = d("-1") },
		},
		{
			name:   "zero total",
			modify: func(r *api.CalculateRequest) { r.TotalAmount = decimal.Zero },
		},
		{
			name:   "unknown split method",
			modify: func(r *api.CalculateRequest) { r.SplitMethod = "weighted" },
		},
		{
			name:   "unknown rounding method",
			modify: func(r *api.CalculateRequest) { r.RoundingMethod = "unit5" },
		},
		{
			name:   "unknown charge type",
			modify: func(r *api.CalculateRequest) { r.ServiceCharge.Type = "tip" },
		},
		{
			name:   "empty person id",
			modify: func(r *api.CalculateRequest) { r.People[1].ID = "" },
		},
		{
			name:    "duplicate person id",
			modify:  func(r *api.CalculateRequest) { r.People[1].ID = "p1" },
			wantErr: ErrDuplicatePersonID,
		},
		{
			name:    "unknown payer",
			modify:  func(r *api.CalculateRequest) { r.PaidBy = "p9" },
			wantErr: ErrUnknownPayer,
		},
		{
			name: "ratio sum above 101",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "ratio"
				r.People[0].Ratio = d("60")
				r.People[1].Ratio = d("42")
			},
			wantErr: ErrRatioSumTooLarge,
		},
		{
			name: "negative ratio",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "ratio"
				r.People[0].Ratio = d("-5")
			},
		},
		{
			name: "manual amounts over total",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "manual"
				r.People[0].Amount = d("700")
				r.People[1].Amount = d("400")
			},
			wantErr: ErrManualOverAllocated,
		},
		{
			name:    "item split without items",
			modify:  func(r *api.CalculateRequest) { r.SplitMethod = "item" },
			wantErr: ErrItemsRequired,
		},
		{
			name: "item assigned to nobody",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "item"
				r.Items = []api.Item{{Name: "Tea", Price: d("100")}}
			},
		},
		{
			name: "item assigned to unknown person",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "item"
				r.Items = []api.Item{{Name: "Tea", Price: d("100"), AssignedTo: []string{"p7"}}}
			},
			wantErr: ErrUnknownAssignee,
		},
		{
			name: "item assigned twice to one person",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "item"
				r.Items = []api.Item{{Name: "Tea", Price: d("100"), AssignedTo: []string{"p1", "p1"}}}
			},
			wantErr: ErrDuplicateAssignee,
		},
		{
			name: "item prices short of the total",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "item"
				r.ServiceCharge = api.ServiceCharge{Type: "fixed", Value: decimal.Zero}
				r.People = r.People[:2]
				r.Items = []api.Item{{Name: "Tea", Price: d("100"), AssignedTo: []string{"p2"}}}
				r.RoundingMethod = "none"
			},
			wantErr: ErrItemsMismatchTotal,
		},
		{
			name: "item prices above the amount before charge",
			modify: func(r *api.CalculateRequest) {
				r.SplitMethod = "item"
				r.ServiceCharge = api.ServiceCharge{Type: "fixed", Value: d("200")}
				r.Items = []api.Item{{Name: "Course", Price: d("1000"), AssignedTo: []string{"p1", "p2", "p3"}}}
			},
			wantErr: ErrItemsMismatchTotal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := equalRequest()
			tt.modify(req)

			_, err := srv.calc.Calculate(context.Background(), connect.NewRequest(req))
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

			// The sentinel itself does not cross the wire; check it in-process.
			verr := validateRequest(req)
			require.ErrorIs(t, verr, ErrInvalidRequest)
			if tt.wantErr != nil {
				assert.ErrorIs(t, verr, tt.wantErr)
			}
		})
	}
}

func TestRatioSumAtLimitAccepted(t *testing.T) {
	req := equalRequest()
	req.SplitMethod = "ratio"
	req.People[0].Ratio = d("50.5")
	req.People[1].Ratio = d("50.5")
	assert.NoError(t, validateRequest(req))
}

func TestItemPricesWithinChargeResidueAccepted(t *testing.T) {
	// 1000 with 10% included leaves a base of 909.09...
	req := equalRequest()
	req.SplitMethod = "item"
	req.ServiceCharge = api.ServiceCharge{Type: "percentage", Value: d("10")}
	req.Items = []api.Item{
		{Name: "Ramen", Price: d("600"), AssignedTo: []string{"p1"}},
		{Name: "Gyoza", Price: d("309"), AssignedTo: []string{"p2", "p3"}},
	}
	require.NoError(t, validateRequest(req))

	_, result, err := compute(req)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, s := range result.PerPersonAmounts {
		sum = sum.Add(s.RoundedAmount)
	}
	assert.True(t, sum.Equal(d("1000")), "sum = %s", sum)
	assert.True(t, result.Breakdown.RoundingAdjustment.Abs().LessThan(d("3")),
		"adjustment = %s", result.Breakdown.RoundingAdjustment)
}

func TestCheckDomainNormalisesSplitMethod(t *testing.T) {
	req := equalRequest()
	req.SplitMethod = " Ratio "
	req.People[0].Ratio = d("60")
	req.People[1].Ratio = d("42")
	assert.ErrorIs(t, checkDomain(req), ErrRatioSumTooLarge)
}

func TestExportCSV(t *testing.T) {
	srv := setupTestServer(t)

	resp, err := srv.calc.ExportCSV(context.Background(), connect.NewRequest(equalRequest()))
	require.NoError(t, err)
	assert.Equal(t, "name,roundedAmount\nAoi,334\nRen,333\nSora,333", resp.Msg.CSV)
}

func TestShareRoundTrip(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()

	req := equalRequest()
	req.PaidBy = "p1"
	created, err := srv.share.CreateShare(ctx, connect.NewRequest(req))
	require.NoError(t, err)
	require.Len(t, created.Msg.Code, 8)
	assert.NotZero(t, created.Msg.ExpiresAt)

	got, err := srv.share.GetShare(ctx, connect.NewRequest(&api.GetShareRequest{Code: created.Msg.Code}))
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Msg.Input.PaidBy)
	assert.True(t, got.Msg.Input.TotalAmount.Equal(d("1000")))
	assert.Equal(t, []string{"334", "333", "333"}, roundedAmounts(got.Msg.Result.PerPersonAmounts))
	assert.Len(t, got.Msg.Result.Settlements, 2)
	assert.Equal(t, created.Msg.ExpiresAt, got.Msg.ExpiresAt)

	httpResp, err := http.Get(srv.url + "/s/" + created.Msg.Code + "/csv")
	require.NoError(t, err)
	defer httpResp.Body.Close()
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)
	assert.Contains(t, httpResp.Header.Get("Content-Type"), "text/csv")
	body, err := io.ReadAll(httpResp.Body)
	require.NoError(t, err)
	assert.Equal(t, "name,roundedAmount\nAoi,334\nRen,333\nSora,333", string(body))

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.Shares.WithLabelValues("create", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(srv.metrics.Shares.WithLabelValues("get", "ok")))

	// Reading a share is not a new calculation.
	assert.Equal(t, 0, testutil.CollectAndCount(srv.metrics.Calculations))
	assert.Equal(t, 0.0, testutil.ToFloat64(srv.metrics.Settlements))
}

func TestShareErrors(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()

	_, err := srv.share.GetShare(ctx, connect.NewRequest(&api.GetShareRequest{Code: "missing1"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = srv.share.GetShare(ctx, connect.NewRequest(&api.GetShareRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	bad := equalRequest()
	bad.People = nil
	_, err = srv.share.CreateShare(ctx, connect.NewRequest(bad))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	httpResp, err := http.Get(srv.url + "/s/missing1/csv")
	require.NoError(t, err)
	httpResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, httpResp.StatusCode)
}

func TestShareExpiry(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()

	start := time.Now()
	srv.shares.now = func() time.Time { return start }
	created, err := srv.share.CreateShare(ctx, connect.NewRequest(equalRequest()))
	require.NoError(t, err)

	srv.shares.now = func() time.Time { return start.Add(DefaultShareTTL + time.Second) }
	_, err = srv.share.GetShare(ctx, connect.NewRequest(&api.GetShareRequest{Code: created.Msg.Code}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	// The next create purges the expired row.
	_, err = srv.share.CreateShare(ctx, connect.NewRequest(equalRequest()))
	require.NoError(t, err)
	_, err = srv.share.GetShare(ctx, connect.NewRequest(&api.GetShareRequest{Code: created.Msg.Code}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
	assert.Equal(t, 2.0, testutil.ToFloat64(srv.metrics.Shares.WithLabelValues("get", "expired"))+
		testutil.ToFloat64(srv.metrics.Shares.WithLabelValues("get", "not_found")))
}

func TestShareTitle(t *testing.T) {
	tests := []struct {
		people []api.Person
		want   string
	}{
		{nil, "Split"},
		{[]api.Person{{ID: "p1", Name: "Aoi"}}, "Split with Aoi"},
		{[]api.Person{{ID: "p1", Name: "Aoi"}, {ID: "p2"}}, "Split with Aoi, p2"},
		{threePeople(), "Split with Aoi, Ren, Sora"},
		{append(threePeople(), api.Person{ID: "p4", Name: "Yui"}), "Split with Aoi, Ren and 2 others"},
	}
	for _, tt := range tests {
		if got := shareTitle(tt.people); got != tt.want {
			t.Errorf("shareTitle() = %q, want %q", got, tt.want)
		}
	}
}
