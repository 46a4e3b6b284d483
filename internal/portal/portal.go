// Package portal serves the home page content: announcements and the
// dashboard figures.
package portal

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bher20/waterportal/internal/metrics"
	"github.com/bher20/waterportal/internal/storage"
)

// Figures are the published numbers that are not derived from stored data.
type Figures struct {
	TotalCustomers   string
	DailyConsumption string
	SatisfactionRate string
}

// DefaultFigures are the values published by the district.
func DefaultFigures() Figures {
	return Figures{
		TotalCustomers:   "15,842",
		DailyConsumption: "2.5M",
		SatisfactionRate: "94%",
	}
}

// Stats is the dashboard payload.
type Stats struct {
	TotalCustomers   string    `json:"totalCustomers"`
	DailyConsumption string    `json:"dailyConsumption"`
	ServiceRequests  int       `json:"serviceRequests"`
	PendingRequests  int       `json:"pendingRequests"`
	SatisfactionRate string    `json:"satisfactionRate"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Service serves announcements and caches the dashboard stats.
type Service struct {
	store   storage.Storage
	figures Figures
	clock   clockwork.Clock

	mu       sync.RWMutex
	snapshot *Stats
}

// NewService returns a Service over store. A nil clock uses the wall clock.
func NewService(store storage.Storage, figures Figures, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{store: store, figures: figures, clock: clock}
}

// Announcements returns notices newest first.
func (s *Service) Announcements(ctx context.Context) ([]storage.Announcement, error) {
	return s.store.ListAnnouncements(ctx)
}

// Refresh recounts service requests into the stats snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	counts, err := s.store.CountServiceRequestsByStatus(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	metrics.SetServiceRequestCounts(counts)

	st := &Stats{
		TotalCustomers:   s.figures.TotalCustomers,
		DailyConsumption: s.figures.DailyConsumption,
		ServiceRequests:  total,
		PendingRequests:  counts[storage.StatusPending],
		SatisfactionRate: s.figures.SatisfactionRate,
		UpdatedAt:        s.clock.Now(),
	}
	s.mu.Lock()
	s.snapshot = st
	s.mu.Unlock()
	return nil
}

// Stats returns the latest snapshot, computing it on first use.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		if err := s.Refresh(ctx); err != nil {
			return Stats{}, err
		}
		s.mu.RLock()
		snap = s.snapshot
		s.mu.RUnlock()
	}
	return *snap, nil
}
