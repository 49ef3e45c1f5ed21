package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticsapp "crmdash/internal/analytics/application"
	analytics "crmdash/internal/analytics/domain"
	"crmdash/internal/auth"
	customersinfra "crmdash/internal/customers/infrastructure"
	exportapp "crmdash/internal/export/application"
	forecastsapp "crmdash/internal/forecasts/application"
	forecastsinfra "crmdash/internal/forecasts/infrastructure"
	issuesinfra "crmdash/internal/issues/infrastructure"
	"crmdash/internal/jobs"
	ordersinfra "crmdash/internal/orders/infrastructure"
	"crmdash/internal/testhelpers"
)

type stubDispatcher struct {
	job *jobs.Job
	err error
}

func (s stubDispatcher) Dispatch(context.Context) (*jobs.Job, error) { return s.job, s.err }

type stubRunner struct {
	result json.RawMessage
	err    error
}

func (s stubRunner) Run(context.Context) (json.RawMessage, error) { return s.result, s.err }

type testAPI struct {
	handler http.Handler
}

func newTestAPI(t *testing.T, verifier auth.Verifier, dispatcher Dispatcher, runner Runner) *testAPI {
	t.Helper()
	m := testhelpers.NewDemoStore(t)
	forecastRepo := forecastsinfra.NewForecastRepository(m, 0)
	reports := analyticsapp.NewReportService(analyticsapp.Readers{
		Orders:    ordersinfra.NewOrderQueryRepository(m, 0),
		Customers: customersinfra.NewCustomerQueryRepository(m, 0),
		Forecasts: forecastRepo,
		Issues:    issuesinfra.NewIssueQueryRepository(m, 0),
	}, m, 0, analyticsapp.WithClock(func() time.Time { return testhelpers.Now }))

	h := NewHandlers(reports, forecastsapp.NewForecastService(forecastRepo, nil), exportapp.NewExportService(reports), dispatcher, runner)
	return &testAPI{handler: NewRouter(h, verifier, 5*time.Second)}
}

func newMockAPI(t *testing.T) *testAPI {
	return newTestAPI(t, auth.NewMockVerifier(), stubDispatcher{}, stubRunner{})
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Data
}

func TestHealth_IsPublic(t *testing.T) {
	api := newTestAPI(t, auth.NewJWTVerifier("secret", nil), stubDispatcher{}, stubRunner{})

	rec := api.do(http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeData[analyticsapp.Health](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = api.do(http.MethodGet, "/api/reports/region", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReports(t *testing.T) {
	api := newMockAPI(t)

	rec := api.do(http.MethodGet, "/api/reports/company-type", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[
		{"companyType":"B2B","totalAmount":100,"month":"2024-05"},
		{"companyType":"B2C","totalAmount":50,"month":"2024-05"},
		{"companyType":"Unknown","totalAmount":35,"month":"2024-05"}]}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/reports/forecast-monthly?from=2024-12&to=2025-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[{"month":"2024-12","predictedQuantity":0},{"month":"2025-01","predictedQuantity":7}]}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/issues/recent-open?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[{"date":"2024-06-12","type":"N/A","severity":"Low","daysAgo":3}]}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/reports/kpis?month=2024-05", "")
	require.Equal(t, http.StatusOK, rec.Code)
	kpis := decodeData[map[string]any](t, rec)
	assert.Equal(t, 4.0, kpis["totalOrders"])
	assert.Equal(t, "2024-04", kpis["previousMonth"])
}

func TestInvalidParameters(t *testing.T) {
	api := newMockAPI(t)

	tests := []struct {
		name string
		path string
	}{
		{"months not a number", "/api/reports/daily-sales?months=abc"},
		{"months out of range", "/api/reports/registrations?months=0"},
		{"half window", "/api/reports/forecast-monthly?from=2024-12"},
		{"bad month", "/api/reports/kpis?month=2024-13"},
		{"limit too large", "/api/issues/recent-open?limit=1000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "invalid request", body.Error)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestForecastMutations(t *testing.T) {
	api := newMockAPI(t)

	rec := api.do(http.MethodPatch, "/api/customer-forecasts/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No fields to update")

	rec = api.do(http.MethodPatch, "/api/customer-forecasts/abc", `{"mape":0.3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPatch, "/api/customer-forecasts/999", `{"mape":0.3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPatch, "/api/customer-forecasts/1", `{"predictedQuantity":40,"predictionModel":"manual"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	groups := decodeData[[]analytics.CustomerForecast](t, api.do(http.MethodGet, "/api/customer-forecasts", ""))
	require.NotEmpty(t, groups)
	require.NotEmpty(t, groups[0].Forecasts)
	assert.Equal(t, 40.0, *groups[0].Forecasts[0].PredictedQuantity)
	assert.Equal(t, "manual", *groups[0].Forecasts[0].PredictionModel)

	for i := 0; i < 2; i++ {
		rec = api.do(http.MethodDelete, "/api/customer-forecasts/3", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Forecast ID 3 deleted successfully."}`, rec.Body.String())
	}
}

func TestForecastJobs(t *testing.T) {
	job := &jobs.Job{ID: "job-1", Workflow: "run_forecast.yml", Ref: "main", Status: "dispatched"}
	api := newTestAPI(t, auth.NewMockVerifier(),
		stubDispatcher{job: job},
		stubRunner{err: jobs.ErrRunnerUnavailable})

	rec := api.do(http.MethodPost, "/api/forecast-jobs", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "dispatched", decodeData[jobs.Job](t, rec).Status)

	rec = api.do(http.MethodPost, "/api/forecast-jobs/run", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	api = newTestAPI(t, auth.NewMockVerifier(),
		stubDispatcher{err: &jobs.UpstreamError{Service: "github", Status: 401, Body: "Bad credentials"}},
		stubRunner{result: json.RawMessage(`{"status":"ok"}`)})

	rec = api.do(http.MethodPost, "/api/forecast-jobs", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bad credentials")

	rec = api.do(http.MethodPost, "/api/forecast-jobs/run", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"status":"ok"}}`, rec.Body.String())

	api = newTestAPI(t, auth.NewMockVerifier(), stubDispatcher{err: jobs.ErrNotConfigured}, stubRunner{})
	rec = api.do(http.MethodPost, "/api/forecast-jobs", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExportOrdersCSV(t *testing.T) {
	rec := newMockAPI(t).do(http.MethodGet, "/api/orders/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=orders_"+time.Now().UTC().Format("20060102")+".csv", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "order_id,order_date,"))
}

func TestExportOrdersParquet(t *testing.T) {
	rec := newMockAPI(t).do(http.MethodGet, "/api/orders/export.parquet", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apache.parquet", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=orders_"+time.Now().UTC().Format("20060102")+".parquet", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PAR1"))
}

func TestSessionAndListings(t *testing.T) {
	api := newMockAPI(t)

	rec := api.do(http.MethodGet, "/api/auth/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "demo-user", decodeData[auth.Identity](t, rec).Subject)

	for path, want := range map[string]int{"/api/orders": 6, "/api/contacts": 4, "/api/customers": 3, "/api/issues": 5} {
		rec := api.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Len(t, decodeData[[]map[string]any](t, rec), want, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	api := newMockAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/customer-forecasts/1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	api := newMockAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
