// Package config provides configuration management for the Sabiscore
// prediction service.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete service configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Cache       CacheConfig       `mapstructure:"cache" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Betting     BettingConfig     `mapstructure:"betting" validate:"required"`
	DataSource  DataSourceConfig  `mapstructure:"data_source" validate:"required"`
	ResultFeed  ResultFeedConfig  `mapstructure:"result_feed"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Leagues     []LeagueConfig    `mapstructure:"leagues" validate:"required,min=1,dive"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	HealthPort  int    `mapstructure:"health_port" validate:"required,min=1,max=65535"`
}

// DatabaseConfig represents the historical match store connection.
// Optional: the serving path never touches it, only training and the
// durable result append.
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// CacheConfig represents prediction cache configuration
type CacheConfig struct {
	TTLSeconds   int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	RedisEnabled bool   `mapstructure:"redis_enabled"`
	RedisAddr    string `mapstructure:"redis_addr" validate:"required_if=RedisEnabled true"`
}

// CalibrationConfig represents the recalibration loop configuration
type CalibrationConfig struct {
	IntervalSeconds    int `mapstructure:"interval_seconds" validate:"required,gt=0"`
	MinSamples         int `mapstructure:"min_samples" validate:"required,gt=0"`
	IsotonicMinSamples int `mapstructure:"isotonic_min_samples" validate:"required,gt=0"`
	BufferCapacity     int `mapstructure:"buffer_capacity" validate:"required,gt=0"`
}

// BettingConfig represents edge detection and stake sizing configuration
type BettingConfig struct {
	Bankroll            float64 `mapstructure:"bankroll" validate:"required,gt=0"`
	KellyFraction       float64 `mapstructure:"kelly_fraction" validate:"required,gt=0,lte=1"`
	MaxBankrollFraction float64 `mapstructure:"max_bankroll_fraction" validate:"required,gt=0,lte=0.2"`
	CurrencyRate        float64 `mapstructure:"currency_rate" validate:"required,gt=0"`
	CurrencyCode        string  `mapstructure:"currency_code" validate:"required,len=3"`
}

// DataSourceConfig represents the external match-context aggregator
type DataSourceConfig struct {
	BaseURL       string  `mapstructure:"base_url" validate:"required,url"`
	APIKey        string  `mapstructure:"api_key"`
	TimeoutMillis int     `mapstructure:"timeout_millis" validate:"required,gt=0"`
	RateLimit     float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	MaxRetries    int     `mapstructure:"max_retries" validate:"gte=0"`
}

// ResultFeedConfig represents the finished-match result stream
type ResultFeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"required_if=Enabled true"`
}

// MetricsConfig represents metrics exposure configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// LeagueConfig represents one league's model configuration
type LeagueConfig struct {
	Name    string             `mapstructure:"name" validate:"required,league"`
	Aliases []string           `mapstructure:"aliases"`
	Weights map[string]float64 `mapstructure:"weights"`
	MinEdge float64            `mapstructure:"min_edge" validate:"gte=0,lte=0.5"`
	Rules   RuleConfig         `mapstructure:"rules"`
}

// RuleConfig holds the per-league adjustment rule magnitudes. These are
// empirically tunable parameters, not validated constants; zero disables
// a rule.
type RuleConfig struct {
	RainDrawBoost         float64 `mapstructure:"rain_draw_boost" validate:"gte=0,lte=2"`
	RainThresholdMM       float64 `mapstructure:"rain_threshold_mm" validate:"gte=0"`
	ContinentalHomeFade   float64 `mapstructure:"continental_home_fade" validate:"gte=0,lte=2"`
	ContinentalWithinDays float64 `mapstructure:"continental_within_days" validate:"gte=0"`
	CongestedAwayFade     float64 `mapstructure:"congested_away_fade" validate:"gte=0,lte=2"`
	CongestedMinMatches   float64 `mapstructure:"congested_min_matches" validate:"gte=0"`
	DerbyDrawBoost        float64 `mapstructure:"derby_draw_boost" validate:"gte=0,lte=2"`
}

// IsProduction checks if the service is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// CacheTTL returns the prediction cache TTL as a duration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// CalibrationInterval returns the recalibration tick interval
func (c *Config) CalibrationInterval() time.Duration {
	return time.Duration(c.Calibration.IntervalSeconds) * time.Second
}

// DataSourceTimeout returns the context-fetch deadline
func (c *Config) DataSourceTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutMillis) * time.Millisecond
}

// MinEdgeByLeague returns the per-league minimum edge map for the detector
func (c *Config) MinEdgeByLeague() map[string]float64 {
	out := make(map[string]float64, len(c.Leagues))
	for _, lc := range c.Leagues {
		if lc.MinEdge > 0 {
			out[lc.Name] = lc.MinEdge
		}
	}
	return out
}
