package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/alerting"
	"github.com/bher20/waterportal/internal/api"
	"github.com/bher20/waterportal/internal/cron"
	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/migrate"
	"github.com/bher20/waterportal/internal/notification"
	"github.com/bher20/waterportal/internal/portal"
	"github.com/bher20/waterportal/internal/ratelimit"
	"github.com/bher20/waterportal/internal/rates"
	"github.com/bher20/waterportal/internal/requests"
	"github.com/bher20/waterportal/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	defer logging.Sync()

	table, err := rates.LoadTable(cfg.RateScheduleFile)
	if err != nil {
		return fmt.Errorf("load rate table: %w", err)
	}
	logging.Info("rate table loaded",
		zap.String("version", table.Version()),
		zap.String("source", sourceName(cfg.RateScheduleFile)))

	if cfg.Storage.AutoMigrate && isSQLDriver(cfg.Storage.Driver) {
		if err := migrate.Up(ctx, cfg.Storage.Driver, cfg.Storage.DSN); err != nil {
			return fmt.Errorf("auto-migration: %w", err)
		}
	}

	store, err := storage.Open(ctx, storage.Config{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	alerter := alerting.NewAlerter(alerting.AlertConfig{
		WebhookURL:  cfg.Alert.WebhookURL,
		WebhookType: cfg.Alert.WebhookType,
	})
	reqs := requests.NewService(store,
		requests.WithClock(clock),
		requests.WithAlerter(alerter),
		requests.WithNotifier(notification.New(notification.SendgridConfig{
			APIKey:      cfg.Notify.SendgridAPIKey,
			FromAddress: cfg.Notify.FromAddress,
			FromName:    cfg.Notify.FromName,
		})),
	)
	portalSvc := portal.NewService(store, portal.Figures{
		TotalCustomers:   cfg.Stats.TotalCustomers,
		DailyConsumption: cfg.Stats.DailyConsumption,
		SatisfactionRate: cfg.Stats.SatisfactionRate,
	}, clock)

	limiter := ratelimit.NewStore(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limiter.StartJanitor(ctx)
	logging.Info("intake rate limit",
		zap.Bool("enabled", limiter.Enabled()),
		zap.Float64("rps", limiter.RPS()),
		zap.Int("burst", limiter.Burst()))

	go func() {
		if err := cron.Run(ctx, cron.RefreshStatsJob(portalSvc), cfg.StatsRefresh); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("stats refresh worker stopped", zap.Error(err))
		}
	}()

	srv := api.NewServer(cfg.HTTPAddr, api.NewHandler(api.Deps{
		Calculator:         rates.NewCalculator(table),
		Requests:           reqs,
		Portal:             portalSvc,
		Store:              store,
		Limiter:            limiter,
		TrustXForwardedFor: cfg.RateLimit.TrustForwardedFor,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Clock:              clock,
	}))

	errCh := make(chan error, 1)
	go func() {
		logging.Info("waterportal listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func isSQLDriver(driver string) bool {
	return driver == "sqlite" || driver == "postgres"
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
