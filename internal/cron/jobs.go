package cron

import (
	"context"

	"github.com/bher20/waterportal/internal/portal"
)

// RefreshStatsJob recounts service requests into the dashboard snapshot.
func RefreshStatsJob(p *portal.Service) Job {
	return Job{
		Name: "refresh_stats",
		Run: func(ctx context.Context) error {
			return p.Refresh(ctx)
		},
	}
}
