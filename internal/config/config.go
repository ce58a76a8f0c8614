// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and environment on top.
// - Validation failures wrap ErrInvalidConfig, source failures ErrLoadConfig.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/gameweek/internal/domain/model"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBDriver is sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is a file path for sqlite or a postgres:// URL.
	DBDSN string `koanf:"db_dsn"`

	// AdminUsername and AdminPassword gate every mutating route.
	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	// AuthRateLimit is the number of failed credential checks allowed per
	// second per client IP; AuthRateBurst is the bucket size.
	AuthRateLimit float64 `koanf:"auth_rate_limit"`
	AuthRateBurst int     `koanf:"auth_rate_burst"`

	// MaxGameweek is the last gameweek of a season, at most 38.
	MaxGameweek int `koanf:"max_gameweek"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// League, when set, is attached to every metric as a constant label.
	League string `koanf:"league"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		Addr:          ":8000",
		DBDriver:      DriverSQLite,
		DBDSN:         "gameweek.db",
		AdminUsername: "admin",
		AdminPassword: "password",
		AuthRateLimit: 1,
		AuthRateBurst: 5,
		MaxGameweek:   38,

		MetricsNamespace: "gameweek",
		MetricsSubsystem: "tracker",
	}
}

// Validate reports the first problem found in c.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	case strings.TrimSpace(c.DBDSN) == "":
		return fmt.Errorf("%w: db_dsn must not be empty", ErrInvalidConfig)
	case c.AdminUsername == "" || c.AdminPassword == "":
		return fmt.Errorf("%w: admin credentials must not be empty", ErrInvalidConfig)
	case c.AuthRateLimit <= 0 || c.AuthRateBurst < 1:
		return fmt.Errorf("%w: auth rate limit must be positive", ErrInvalidConfig)
	case c.MaxGameweek < model.MinGameweek || c.MaxGameweek > model.MaxGameweek:
		return fmt.Errorf("%w: max_gameweek must be in [%d, %d]", ErrInvalidConfig, model.MinGameweek, model.MaxGameweek)
	}
	return nil
}
