package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AllowBurstThenReject(t *testing.T) {
	s := NewStore(1, 2)
	assert.Equal(t, 1.0, s.RPS())
	assert.Equal(t, 2, s.Burst())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, _ := s.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = s.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, wait := s.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), wait.Seconds(), 0.01)

	ok, _ = s.Allow("10.0.0.2")
	assert.True(t, ok, "keys are limited independently")

	now = now.Add(time.Second)
	ok, _ = s.Allow("10.0.0.1")
	assert.True(t, ok, "a token refills after one second")
}

func TestStore_Disabled(t *testing.T) {
	s := NewStore(0, 0)
	for i := 0; i < 10; i++ {
		ok, _ := s.Allow("k")
		require.True(t, ok)
	}
	assert.Equal(t, 0, s.Len())
}

func TestStore_Cleanup(t *testing.T) {
	s := NewStore(1, 1, WithIdleTTL(time.Minute))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Get("old")
	now = now.Add(2 * time.Minute)
	s.Get("fresh")
	s.Cleanup()

	assert.Equal(t, 1, s.Len())
}

func TestMiddleware_Rejects(t *testing.T) {
	h := Middleware(Options{Store: NewStore(0.5, 1)})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/service-request", nil)
	req.RemoteAddr = "192.0.2.10:51000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests, please try again later"}`, rec.Body.String())
}

func TestDefaultKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:51000"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	assert.Equal(t, "192.0.2.10", DefaultKeyFunc(false)(req))
	assert.Equal(t, "203.0.113.5", DefaultKeyFunc(true)(req))
}
