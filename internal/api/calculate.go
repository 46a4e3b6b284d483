package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bher20/waterportal/internal/metrics"
	"github.com/bher20/waterportal/internal/rates"
)

const maxBodyBytes = 1 << 20

// calculateRequest accepts consumption as a JSON number or a numeric string.
// customer_type is the frontend's name for customer_class.
type calculateRequest struct {
	Consumption   json.RawMessage `json:"consumption"`
	CustomerClass string          `json:"customer_class"`
	CustomerType  string          `json:"customer_type"`
}

type billResponse struct {
	Success         bool        `json:"success"`
	Consumption     json.Number `json:"consumption"`
	CustomerClass   string      `json:"customer_class"`
	CustomerType    string      `json:"customer_type"`
	TotalBill       json.Number `json:"total_bill"`
	Breakdown       []string    `json:"breakdown"`
	ScheduleVersion string      `json:"schedule_version"`
	CalculatedAt    string      `json:"calculated_at"`
}

func (s *server) handleCalculateBill(w http.ResponseWriter, r *http.Request) {
	var rawConsumption, class string

	if r.Method == http.MethodPost {
		var req calculateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := consumptionString(req.Consumption)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rawConsumption = c
		class = firstNonEmpty(req.CustomerClass, req.CustomerType)
	} else {
		q := r.URL.Query()
		rawConsumption = q.Get("consumption")
		class = firstNonEmpty(q.Get("customer_class"), q.Get("customer_type"))
	}

	consumption, err := rates.ParseConsumption(rawConsumption)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := s.calc.Calculate(consumption, class)
	if err != nil {
		writeError(w, r, err)
		return
	}
	metrics.ObserveQuote(string(quote.CustomerClass), quote.Total.InexactFloat64())

	writeJSON(w, http.StatusOK, billResponse{
		Success:         true,
		Consumption:     json.Number(quote.Consumption.String()),
		CustomerClass:   string(quote.CustomerClass),
		CustomerType:    string(quote.CustomerClass),
		TotalBill:       json.Number(quote.Total.StringFixed(2)),
		Breakdown:       quote.Breakdown,
		ScheduleVersion: quote.ScheduleVersion,
		CalculatedAt:    s.clock.Now().Format(time.RFC3339),
	})
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) || bytes.Equal(body, []byte("{}")) {
		return fmt.Errorf("%w: No JSON data provided", errBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

func consumptionString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: consumption: %v", errBadRequest, err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w (not a number: %s)", rates.ErrInvalidConsumption, raw)
	}
	return n.String(), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

type bracketView struct {
	From json.Number  `json:"from"`
	To   *json.Number `json:"to"`
	Flat *json.Number `json:"flat,omitempty"`
	Rate *json.Number `json:"rate,omitempty"`
}

type scheduleView struct {
	CustomerClass string        `json:"customer_class"`
	Brackets      []bracketView `json:"brackets"`
}

type ratesResponse struct {
	Version   string         `json:"version"`
	Currency  string         `json:"currency"`
	Unit      string         `json:"unit"`
	Schedules []scheduleView `json:"schedules"`
}

func (s *server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ratesView(s.calc.Table()))
}

func ratesView(t *rates.Table) ratesResponse {
	resp := ratesResponse{
		Version:  t.Version(),
		Currency: rates.CurrencySymbol,
		Unit:     rates.VolumeUnit,
	}
	for _, sch := range t.Schedules() {
		view := scheduleView{CustomerClass: string(sch.Class)}
		lower := decimal.Zero
		for _, b := range sch.Brackets {
			bv := bracketView{From: num(lower, false)}
			if b.Ceiling != nil {
				to := num(*b.Ceiling, false)
				bv.To = &to
			}
			if b.IsFlat() {
				flat := num(*b.Flat, true)
				bv.Flat = &flat
			} else {
				rate := num(b.Rate, true)
				bv.Rate = &rate
			}
			view.Brackets = append(view.Brackets, bv)
			if b.Ceiling != nil {
				lower = *b.Ceiling
			}
		}
		resp.Schedules = append(resp.Schedules, view)
	}
	return resp
}

func num(d decimal.Decimal, money bool) json.Number {
	if money {
		return json.Number(d.StringFixed(2))
	}
	return json.Number(d.String())
}

