package storage

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultSQLiteDSN is used when the sqlite driver is selected without a DSN.
const DefaultSQLiteDSN = "waterportal.db"

type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return &GormStorage{db: db}, nil
}

// Migrate creates or updates the tables backing the portal models.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&ServiceRequest{},
		&Announcement{},
	)
}

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Service requests

func (s *GormStorage) CreateServiceRequest(ctx context.Context, req *ServiceRequest) error {
	return s.db.WithContext(ctx).Create(req).Error
}

func (s *GormStorage) ListServiceRequests(ctx context.Context) ([]ServiceRequest, error) {
	var out []ServiceRequest
	result := s.db.WithContext(ctx).Order("id asc").Find(&out)
	return out, result.Error
}

func (s *GormStorage) CountServiceRequestsByStatus(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	result := s.db.WithContext(ctx).Model(&ServiceRequest{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// Announcements

func (s *GormStorage) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	var out []Announcement
	result := s.db.WithContext(ctx).Order("published_on desc").Order("id asc").Find(&out)
	return out, result.Error
}

func (s *GormStorage) UpsertAnnouncement(ctx context.Context, a Announcement) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&a).Error
}
