package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/logging"
)

// Config controls how the storage backend is opened.
type Config struct {
	Driver string
	DSN    string

	// Announcements seed an empty store; nil uses DefaultAnnouncements.
	Announcements []Announcement
}

// Open constructs a Storage based on the given configuration.
func Open(ctx context.Context, cfg Config) (Storage, error) {
	drv := cfg.Driver
	if drv == "" {
		drv = "memory"
	}
	seed := cfg.Announcements
	if seed == nil {
		seed = DefaultAnnouncements()
	}

	var (
		st  Storage
		err error
	)
	switch drv {
	case "memory":
		logging.Info("storage: using in-memory backend")
		return NewMemoryWithAnnouncements(seed), nil

	case "sqlite", "postgres":
		logging.Info("storage: using gorm", zap.String("driver", drv))
		gs, gerr := NewGormStorage(drv, cfg.DSN)
		if gerr != nil {
			return nil, gerr
		}
		if err := gs.Migrate(ctx); err != nil {
			gs.Close()
			return nil, fmt.Errorf("storage migrate: %w", err)
		}
		st = gs

	case "redis":
		logging.Info("storage: using redis")
		st, err = OpenRedis(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", drv)
	}

	if err := seedAnnouncements(ctx, st, seed); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed announcements: %w", err)
	}
	return st, nil
}

func seedAnnouncements(ctx context.Context, st Storage, seed []Announcement) error {
	existing, err := st.ListAnnouncements(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, a := range seed {
		if err := st.UpsertAnnouncement(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
