// Package cmd provides the CLI commands for waterportal.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/waterportal/internal/config"
	"github.com/bher20/waterportal/internal/logging"
)

// app carries what the root command resolves before any subcommand runs.
type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "waterportal",
		Short: "Santa Cruz Water District customer portal API",
		Long: `waterportal serves the water district's customer portal: bill estimates
from the tiered rate schedule, service request intake, announcements and
dashboard stats.

Examples:
  waterportal serve
  waterportal quote 15
  waterportal quote 50 --class commercial --json
  waterportal migrate up`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newQuoteCmd(a))
	root.AddCommand(newRatesCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) init() error {
	cfg, err := config.Load(config.New(), a.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	if err := logging.Initialize(cfg.Log); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	a.cfg = cfg
	return nil
}

// Version is set at build time with -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "waterportal version %s\n", Version)
		},
	}
}
