package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments. Nothing survives a restart.
type MemoryStorage struct {
	mu            sync.RWMutex
	nextID        int64
	requests      map[int64]ServiceRequest
	announcements map[int64]Announcement
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		nextID:        1,
		requests:      make(map[int64]ServiceRequest),
		announcements: make(map[int64]Announcement),
	}
}

// NewMemoryWithAnnouncements returns a MemoryStorage preloaded with the given
// announcements.
func NewMemoryWithAnnouncements(list []Announcement) *MemoryStorage {
	m := NewMemory()
	for _, a := range list {
		m.announcements[a.ID] = a
	}
	return m
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) CreateServiceRequest(ctx context.Context, req *ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.nextID
	m.nextID++
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *MemoryStorage) ListServiceRequests(ctx context.Context) ([]ServiceRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ServiceRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	sortServiceRequests(out)
	return out, nil
}

func (m *MemoryStorage) CountServiceRequestsByStatus(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, r := range m.requests {
		counts[r.Status]++
	}
	return counts, nil
}

func (m *MemoryStorage) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Announcement, 0, len(m.announcements))
	for _, a := range m.announcements {
		out = append(out, a)
	}
	sortAnnouncements(out)
	return out, nil
}

func (m *MemoryStorage) UpsertAnnouncement(ctx context.Context, a Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements[a.ID] = a
	return nil
}
