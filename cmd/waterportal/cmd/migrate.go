package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bher20/waterportal/internal/logging"
	"github.com/bher20/waterportal/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the SQL schema (sqlite and postgres drivers)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(); err != nil {
				return err
			}
			if !isSQLDriver(a.cfg.Storage.Driver) {
				return fmt.Errorf("migrations apply to the sqlite and postgres drivers, not %q", a.cfg.Storage.Driver)
			}
			return nil
		},
	}

	steps := []struct {
		use, short string
		run        func(*cobra.Command) error
	}{
		{"up", "Apply all pending migrations", func(c *cobra.Command) error {
			return migrate.Up(c.Context(), a.cfg.Storage.Driver, a.cfg.Storage.DSN)
		}},
		{"down", "Roll back the most recent migration", func(c *cobra.Command) error {
			return migrate.Down(c.Context(), a.cfg.Storage.Driver, a.cfg.Storage.DSN)
		}},
		{"status", "Show migration status", func(c *cobra.Command) error {
			return migrate.Status(c.Context(), a.cfg.Storage.Driver, a.cfg.Storage.DSN)
		}},
	}
	for _, s := range steps {
		cmd.AddCommand(&cobra.Command{
			Use:   s.use,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, args []string) error {
				if err := s.run(c); err != nil {
					return fmt.Errorf("migrate %s: %w", s.use, err)
				}
				logging.Info("migrate: done", zap.String("step", s.use), zap.String("driver", a.cfg.Storage.Driver))
				return nil
			},
		})
	}
	return cmd
}
