package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/rates"
	"github.com/bher20/waterportal/internal/requests"
)

// errBadRequest marks transport-level input problems such as malformed JSON.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("encode response failed", zap.Error(err))
	}
}

// writeError maps domain errors to status codes. Caller-correctable errors
// echo their message; anything else is logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		loggerFrom(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rates.ErrInvalidConsumption),
		errors.Is(err, rates.ErrUnknownCustomerClass),
		errors.Is(err, requests.ErrInvalidRequest),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
