package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bher20/waterportal/internal/logging"
)

// EnvPrefix namespaces every environment variable, e.g. WATERPORTAL_STORAGE_DRIVER.
const EnvPrefix = "WATERPORTAL"

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	Log     logging.Config
	Storage StorageConfig

	// RateScheduleFile optionally replaces the built-in rate table (JSON or YAML).
	RateScheduleFile string

	CORSAllowedOrigins []string
	RateLimit          RateLimitConfig

	// StatsRefresh is integer seconds or a standard cron expression.
	StatsRefresh string
	Stats        StatsConfig

	Notify NotifyConfig
	Alert  AlertConfig
}

type StorageConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
	// TrustForwardedFor keys clients on X-Forwarded-For; enable only behind a proxy.
	TrustForwardedFor bool
}

// StatsConfig holds the published figures shown on the portal dashboard.
type StatsConfig struct {
	TotalCustomers   string
	DailyConsumption string
	SatisfactionRate string
}

type NotifyConfig struct {
	SendgridAPIKey string
	FromAddress    string
	FromName       string
}

type AlertConfig struct {
	WebhookURL  string
	WebhookType string
}

// New returns a viper instance with defaults and environment bindings applied.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "5000")
	v.SetDefault("http.addr", "")
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.development", false)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.auto_migrate", false)

	v.SetDefault("rates.schedule_file", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("ratelimit.trust_forwarded_for", false)

	v.SetDefault("stats.refresh_interval", "300")
	v.SetDefault("stats.total_customers", "15,842")
	v.SetDefault("stats.daily_consumption", "2.5M")
	v.SetDefault("stats.satisfaction_rate", "94%")

	v.SetDefault("notify.sendgrid_api_key", "")
	v.SetDefault("notify.from_address", "no-reply@santacruzwater.gov.ph")
	v.SetDefault("notify.from_name", "Santa Cruz Water District")

	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("alert.webhook_type", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Hosting platforms inject a bare PORT.
	_ = v.BindEnv("port", "PORT", EnvPrefix+"_PORT")

	return v
}

// Load reads an optional config file into v and builds a validated Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	addr := v.GetString("http.addr")
	if addr == "" {
		addr = ":" + v.GetString("port")
	}

	cfg := &Config{
		HTTPAddr:        addr,
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		Log: logging.Config{
			Level:       v.GetString("log.level"),
			Format:      v.GetString("log.format"),
			Output:      v.GetString("log.output"),
			Development: v.GetBool("log.development"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			DSN:         v.GetString("storage.dsn"),
			AutoMigrate: v.GetBool("storage.auto_migrate"),
		},
		RateScheduleFile:   v.GetString("rates.schedule_file"),
		CORSAllowedOrigins: splitList(v.GetStringSlice("cors.allowed_origins")),
		RateLimit: RateLimitConfig{
			RPS:               v.GetFloat64("ratelimit.rps"),
			Burst:             v.GetInt("ratelimit.burst"),
			TrustForwardedFor: v.GetBool("ratelimit.trust_forwarded_for"),
		},
		StatsRefresh: v.GetString("stats.refresh_interval"),
		Stats: StatsConfig{
			TotalCustomers:   v.GetString("stats.total_customers"),
			DailyConsumption: v.GetString("stats.daily_consumption"),
			SatisfactionRate: v.GetString("stats.satisfaction_rate"),
		},
		Notify: NotifyConfig{
			SendgridAPIKey: v.GetString("notify.sendgrid_api_key"),
			FromAddress:    v.GetString("notify.from_address"),
			FromName:       v.GetString("notify.from_name"),
		},
		Alert: AlertConfig{
			WebhookURL:  v.GetString("alert.webhook_url"),
			WebhookType: strings.ToLower(v.GetString("alert.webhook_type")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if (c.Storage.Driver == "postgres" || c.Storage.Driver == "redis") && c.Storage.DSN == "" {
		return fmt.Errorf("storage driver %q requires WATERPORTAL_STORAGE_DSN", c.Storage.Driver)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if c.RateLimit.RPS < 0 {
		return errors.New("ratelimit.rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return errors.New("ratelimit.burst must be at least 1 when rate limiting is enabled")
	}
	switch c.Alert.WebhookType {
	case "", "slack", "discord", "generic":
	default:
		return fmt.Errorf("unsupported alert webhook type %q", c.Alert.WebhookType)
	}
	return nil
}

// splitList accepts both repeated values and a single comma-separated value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
