package storage

import "context"

// Storage abstracts persistence for portal service requests and announcements.
// Bill quotes are never stored.
type Storage interface {
	// Service requests
	CreateServiceRequest(ctx context.Context, req *ServiceRequest) error
	ListServiceRequests(ctx context.Context) ([]ServiceRequest, error)
	CountServiceRequestsByStatus(ctx context.Context) (map[string]int, error)

	// Announcements
	ListAnnouncements(ctx context.Context) ([]Announcement, error)
	UpsertAnnouncement(ctx context.Context, a Announcement) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
