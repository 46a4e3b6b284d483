package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/requests"
	"github.com/bher20/waterportal/internal/storage"
)

type serviceRequestResponse struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message"`
	RequestID       int64                  `json:"request_id"`
	ReferenceNumber string                 `json:"reference_number"`
	Data            storage.ServiceRequest `json:"data"`
}

type serviceRequestList struct {
	Count    int                      `json:"count"`
	Requests []storage.ServiceRequest `json:"requests"`
}

// handleServiceRequest accepts a JSON body on POST. GET submits the sample
// request, with any query parameter overriding its field.
func (s *server) handleServiceRequest(w http.ResponseWriter, r *http.Request) {
	var in requests.Input
	if r.Method == http.MethodPost {
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		in = requests.TestInput()
		q := r.URL.Query()
		override := func(dst *string, key string) {
			if q.Has(key) {
				*dst = q.Get(key)
			}
		}
		override(&in.Name, "name")
		override(&in.Email, "email")
		override(&in.Phone, "phone")
		override(&in.Address, "address")
		override(&in.ServiceType, "service_type")
		override(&in.Message, "message")
	}

	req, err := s.requests.Submit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s.portal != nil {
		if err := s.portal.Refresh(r.Context()); err != nil {
			loggerFrom(r.Context()).Warn("stats refresh after intake failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, serviceRequestResponse{
		Success:         true,
		Message:         "Service request submitted successfully!",
		RequestID:       req.ID,
		ReferenceNumber: req.ReferenceNumber(),
		Data:            *req,
	})
}

func (s *server) handleListServiceRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.requests.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.ServiceRequest{}
	}
	writeJSON(w, http.StatusOK, serviceRequestList{Count: len(list), Requests: list})
}

func (s *server) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := s.portal.Announcements(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.Announcement{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.portal.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
