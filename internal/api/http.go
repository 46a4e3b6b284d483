// Package api exposes the portal over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/bher20/waterportal/internal/api/swagger"
	"github.com/bher20/waterportal/internal/portal"
	"github.com/bher20/waterportal/internal/ratelimit"
	"github.com/bher20/waterportal/internal/rates"
	"github.com/bher20/waterportal/internal/requests"
	"github.com/bher20/waterportal/internal/storage"
	"github.com/bher20/waterportal/internal/ui"
)

// Banner is the plain-text body of GET /.
const Banner = "Santa Cruz Water District API is running!"

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Calculator *rates.Calculator
	Requests   *requests.Service
	Portal     *portal.Service
	Store      storage.Storage

	// Limiter throttles service request intake; nil disables limiting.
	Limiter            *ratelimit.Store
	TrustXForwardedFor bool

	CORSAllowedOrigins []string
	Clock              clockwork.Clock
}

type server struct {
	calc     *rates.Calculator
	requests *requests.Service
	portal   *portal.Service
	store    storage.Storage
	clock    clockwork.Clock
}

// NewMux registers every route without the outer middleware.
func NewMux(d Deps) *http.ServeMux {
	s := &server{
		calc:     d.Calculator,
		requests: d.Requests,
		portal:   d.Portal,
		store:    d.Store,
		clock:    d.Clock,
	}
	if s.calc == nil {
		s.calc = rates.NewCalculator(nil)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}

	limit := ratelimit.Middleware(ratelimit.Options{
		Store:              d.Limiter,
		TrustXForwardedFor: d.TrustXForwardedFor,
	})

	mux := http.NewServeMux()

	mux.Handle("GET /{$}", instrument("root", http.HandlerFunc(handleRoot)))
	mux.Handle("GET /api/test", instrument("test", http.HandlerFunc(handleTest)))

	calc := instrument("calculate_bill", http.HandlerFunc(s.handleCalculateBill))
	mux.Handle("GET /api/calculate-bill", calc)
	mux.Handle("POST /api/calculate-bill", calc)
	mux.Handle("GET /api/rates", instrument("rates", http.HandlerFunc(s.handleRates)))

	intake := instrument("service_request", limit(http.HandlerFunc(s.handleServiceRequest)))
	mux.Handle("GET /api/service-request", intake)
	mux.Handle("POST /api/service-request", intake)
	mux.Handle("GET /api/service-requests", instrument("service_requests", http.HandlerFunc(s.handleListServiceRequests)))

	mux.Handle("GET /api/announcements", instrument("announcements", http.HandlerFunc(s.handleAnnouncements)))
	mux.Handle("GET /api/stats", instrument("stats", http.HandlerFunc(s.handleStats)))

	// Metrics endpoint.
	mux.Handle("GET /metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("/swagger/", http.StripPrefix("/swagger", swagger.Handler()))
	mux.Handle("GET /ui/", http.StripPrefix("/ui/", ui.Handler()))

	return mux
}

// NewHandler wraps the mux with CORS, request IDs and access logging.
func NewHandler(d Deps) http.Handler {
	origins := d.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:         600,
	})
	return requestID(accessLog(c.Handler(NewMux(d))))
}

// NewServer returns an http.Server with conservative timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

func handleTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is working!"})
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		loggerFrom(r.Context()).Warn("readyz: store ping failed", errField(err))
		http.Error(w, "store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
