package storage

import (
	"fmt"
	"sort"
	"time"
)

// Service request statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// ServiceRequest is a customer request submitted through the portal.
// ID is assigned by the backend on create.
type ServiceRequest struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `json:"name" gorm:"column:name"`
	Email       string    `json:"email" gorm:"column:email"`
	Phone       string    `json:"phone" gorm:"column:phone"`
	Address     string    `json:"address" gorm:"column:address"`
	ServiceType string    `json:"service_type" gorm:"column:service_type"`
	Message     string    `json:"message" gorm:"column:message"`
	Status      string    `json:"status" gorm:"column:status;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
}

// ReferenceNumber is the customer-facing identifier, e.g. SR-000042.
func (r ServiceRequest) ReferenceNumber() string {
	return fmt.Sprintf("SR-%06d", r.ID)
}

// Announcement is a notice shown on the portal home page.
type Announcement struct {
	ID      int64  `json:"id" gorm:"primaryKey;column:id"`
	Title   string `json:"title" gorm:"column:title"`
	Content string `json:"content" gorm:"column:content"`
	// Date is the publication date, YYYY-MM-DD.
	Date string `json:"date" gorm:"column:published_on"`
	Type string `json:"type" gorm:"column:type"`
}

// DefaultAnnouncements seeds a fresh store.
func DefaultAnnouncements() []Announcement {
	return []Announcement{
		{
			ID:      1,
			Title:   "Scheduled Water Interruption",
			Content: "Water service will be interrupted on Jan 20, 2026",
			Date:    "2026-01-15",
			Type:    "maintenance",
		},
	}
}

// sortAnnouncements orders newest first; ties fall back to ID.
func sortAnnouncements(list []Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		return list[i].ID < list[j].ID
	})
}

func sortServiceRequests(list []ServiceRequest) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
