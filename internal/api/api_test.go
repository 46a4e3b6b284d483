package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/waterportal/internal/portal"
	"github.com/bher20/waterportal/internal/ratelimit"
	"github.com/bher20/waterportal/internal/rates"
	"github.com/bher20/waterportal/internal/requests"
	"github.com/bher20/waterportal/internal/storage"
)

var testNow = time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, limiter *ratelimit.Store) http.Handler {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	store := storage.NewMemoryWithAnnouncements(storage.DefaultAnnouncements())
	return NewHandler(Deps{
		Calculator: rates.NewCalculator(rates.DefaultTable()),
		Requests:   requests.NewService(store, requests.WithClock(clock)),
		Portal:     portal.NewService(store, portal.DefaultFigures(), clock),
		Store:      store,
		Limiter:    limiter,
		Clock:      clock,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRoot(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Banner, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(t, h, http.MethodGet, "/api/test", "")
	assert.JSONEq(t, `{"status":"ok","message":"API is working!"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID_Propagated(t *testing.T) {
	h := newTestHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCalculateBill_POST(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodPost, "/api/calculate-bill", `{"consumption": 15, "customer_type": "residential"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `{
		"success": true,
		"consumption": 15,
		"customer_class": "residential",
		"customer_type": "residential",
		"total_bill": 292.50,
		"breakdown": ["First 10 cu.m: ₱180.00", "Next 5.0 cu.m: ₱112.50"],
		"schedule_version": "2026-01",
		"calculated_at": "2026-01-15T08:00:00Z"
	}`, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_bill":292.50`)
}

func TestCalculateBill_GET(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodGet, "/api/calculate-bill?consumption=50&customer_class=commercial", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 1700.0, body["total_bill"])
	assert.Equal(t, []any{"First 20 cu.m: ₱450.00", "Next 20 cu.m: ₱800.00", "Remaining 10.0 cu.m: ₱450.00"}, body["breakdown"])

	rec = do(t, h, http.MethodGet, "/api/calculate-bill?consumption=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "residential", body["customer_class"], "class defaults to residential")
	assert.Equal(t, 180.0, body["total_bill"])
}

func TestCalculateBill_StringConsumption(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := do(t, h, http.MethodPost, "/api/calculate-bill", `{"consumption": "35", "customer_class": "Residential"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 860.0, decode(t, rec)["total_bill"])
}

func TestCalculateBill_Errors(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		name, method, target, body string
		wantErr                    string
	}{
		{"zero consumption", http.MethodPost, "/api/calculate-bill", `{"consumption": 0}`, "consumption must be greater than 0"},
		{"negative consumption", http.MethodGet, "/api/calculate-bill?consumption=-4", "", "consumption must be greater than 0"},
		{"missing consumption", http.MethodGet, "/api/calculate-bill", "", "consumption must be greater than 0"},
		{"non numeric", http.MethodGet, "/api/calculate-bill?consumption=lots", "", "consumption must be greater than 0"},
		{"boolean consumption", http.MethodPost, "/api/calculate-bill", `{"consumption": true}`, "consumption must be greater than 0"},
		{"huge exponent", http.MethodPost, "/api/calculate-bill", `{"consumption": 1e3000000}`, "consumption must be at most"},
		{"huge exponent string", http.MethodGet, "/api/calculate-bill?consumption=1e3000000", "", "consumption must be at most"},
		{"tiny exponent", http.MethodPost, "/api/calculate-bill", `{"consumption": "1e-3000000"}`, "decimal places"},
		{"unknown class", http.MethodPost, "/api/calculate-bill", `{"consumption": 10, "customer_class": "industrial"}`, "unknown customer class"},
		{"empty body", http.MethodPost, "/api/calculate-bill", "", "No JSON data provided"},
		{"empty object", http.MethodPost, "/api/calculate-bill", `{}`, "No JSON data provided"},
		{"malformed json", http.MethodPost, "/api/calculate-bill", `{"consumption":`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec)["error"], tt.wantErr)
		})
	}
}

func TestCalculateBill_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := do(t, h, http.MethodDelete, "/api/calculate-bill", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRates(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := do(t, h, http.MethodGet, "/api/rates", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ratesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rates.DefaultVersion, resp.Version)
	require.Len(t, resp.Schedules, 2)

	res := resp.Schedules[1]
	for _, s := range resp.Schedules {
		if s.CustomerClass == "residential" {
			res = s
		}
	}
	require.Len(t, res.Brackets, 4)
	assert.Equal(t, json.Number("180.00"), *res.Brackets[0].Flat)
	assert.Equal(t, json.Number("10"), *res.Brackets[0].To)
	assert.Equal(t, json.Number("30"), res.Brackets[3].From)
	assert.Nil(t, res.Brackets[3].To)
	assert.Equal(t, json.Number("35.00"), *res.Brackets[3].Rate)
}

func TestServiceRequest_POSTThenList(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodPost, "/api/service-request", `{
		"name": "Maria Santos", "email": "maria@example.org", "phone": "09171234567",
		"address": "Brgy. Poblacion", "service_type": "repair", "message": "Leak"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Service request submitted successfully!", body["message"])
	assert.Equal(t, 1.0, body["request_id"])
	assert.Equal(t, "SR-000001", body["reference_number"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "repair", data["service_type"])
	assert.Equal(t, "2026-01-15T08:00:00Z", data["created_at"])

	rec = do(t, h, http.MethodGet, "/api/service-request?name=Juan", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "SR-000002", body["reference_number"])
	assert.Equal(t, "Juan", body["data"].(map[string]any)["name"])
	assert.Equal(t, "test@example.com", body["data"].(map[string]any)["email"])

	rec = do(t, h, http.MethodGet, "/api/service-requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.Equal(t, 2.0, list["count"])
	assert.Len(t, list["requests"], 2)

	rec = do(t, h, http.MethodGet, "/api/stats", "")
	stats := decode(t, rec)
	assert.Equal(t, 2.0, stats["serviceRequests"])
	assert.Equal(t, 2.0, stats["pendingRequests"])
	assert.Equal(t, "15,842", stats["totalCustomers"])
	assert.Equal(t, "2.5M", stats["dailyConsumption"])
	assert.Equal(t, "94%", stats["satisfactionRate"])
}

func TestServiceRequest_Invalid(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodPost, "/api/service-request", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/service-request", `{"name":"A","email":"not-an-email","phone":"1","address":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "invalid service request")

	rec = do(t, h, http.MethodGet, "/api/service-requests", "")
	assert.Equal(t, 0.0, decode(t, rec)["count"])
}

func TestServiceRequest_RateLimited(t *testing.T) {
	h := newTestHandler(t, ratelimit.NewStore(0.01, 1))

	rec := do(t, h, http.MethodGet, "/api/service-request", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/service-request", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = do(t, h, http.MethodGet, "/api/calculate-bill?consumption=5", "")
	assert.Equal(t, http.StatusOK, rec.Code, "calculator is not rate limited")
}

func TestAnnouncements(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := do(t, h, http.MethodGet, "/api/announcements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{
		"id": 1,
		"title": "Scheduled Water Interruption",
		"content": "Water service will be interrupted on Jan 20, 2026",
		"date": "2026-01-15",
		"type": "maintenance"
	}]`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/calculate-bill", nil)
	req.Header.Set("Origin", "https://portal.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Origin", "https://portal.example.org")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestHandler(t, nil)
	for path, want := range map[string]string{"/healthz": "ok", "/livez": "live", "/readyz": "ready"} {
		rec := do(t, h, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, rec.Body.String(), path)
	}

	do(t, h, http.MethodGet, "/api/test", "")
	rec := do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waterportal_requests_total")
}

func TestUIAndSwaggerMounted(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := do(t, h, http.MethodGet, "/ui/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Water Bill Estimator")

	rec = do(t, h, http.MethodGet, "/swagger/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/calculate-bill")
}

func TestNewServer_Timeouts(t *testing.T) {
	srv := NewServer(":0", http.NotFoundHandler())
	assert.Equal(t, ":0", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
	assert.NotZero(t, srv.WriteTimeout)
	assert.NotZero(t, srv.IdleTimeout)
}
