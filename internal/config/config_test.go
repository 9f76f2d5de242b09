package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "sabiscore",
			Environment: "development",
			LogLevel:    "info",
			HealthPort:  8080,
		},
		Cache: CacheConfig{TTLSeconds: 300},
		Calibration: CalibrationConfig{
			IntervalSeconds:    180,
			MinSamples:         30,
			IsotonicMinSamples: 80,
			BufferCapacity:     500,
		},
		Betting: BettingConfig{
			Bankroll:            10000,
			KellyFraction:       0.125,
			MaxBankrollFraction: 0.05,
			CurrencyRate:        1,
			CurrencyCode:        "USD",
		},
		DataSource: DataSourceConfig{
			BaseURL:       "https://aggregator.example.com",
			TimeoutMillis: 50,
			RateLimit:     20,
			MaxRetries:    2,
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
		Leagues: []LeagueConfig{
			{Name: "epl", Aliases: []string{"premier-league"}, MinEdge: 0.042},
			{Name: "laliga", MinEdge: 0.043},
		},
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejections(t *testing.T) {
	t.Run("bad environment", func(t *testing.T) {
		cfg := validConfig()
		cfg.App.Environment = "qa"
		assert.Error(t, Validate(cfg))
	})

	t.Run("bad log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.App.LogLevel = "trace"
		assert.Error(t, Validate(cfg))
	})

	t.Run("league name must be lowercase alphanumeric", func(t *testing.T) {
		cfg := validConfig()
		cfg.Leagues[0].Name = "Premier League"
		assert.Error(t, Validate(cfg))
	})

	t.Run("no leagues", func(t *testing.T) {
		cfg := validConfig()
		cfg.Leagues = nil
		assert.Error(t, Validate(cfg))
	})

	t.Run("isotonic threshold below min samples", func(t *testing.T) {
		cfg := validConfig()
		cfg.Calibration.IsotonicMinSamples = 10
		assert.Error(t, Validate(cfg))
	})

	t.Run("alias claimed by two leagues", func(t *testing.T) {
		cfg := validConfig()
		cfg.Leagues[1].Aliases = []string{"premier-league"}
		assert.Error(t, Validate(cfg))
	})

	t.Run("enabled database needs connection details", func(t *testing.T) {
		cfg := validConfig()
		cfg.Database.Enabled = true
		assert.Error(t, Validate(cfg))
	})

	t.Run("implausible kelly fraction", func(t *testing.T) {
		cfg := validConfig()
		cfg.Betting.MaxBankrollFraction = 0.005
		cfg.Betting.KellyFraction = 0.9
		assert.Error(t, Validate(cfg))
	})
}

func TestLoadWithDefaults(t *testing.T) {
	t.Run("missing file fills defaults", func(t *testing.T) {
		cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 300, cfg.Cache.TTLSeconds)
		assert.Equal(t, 180, cfg.Calibration.IntervalSeconds)
		assert.Equal(t, 30, cfg.Calibration.MinSamples)
		assert.Equal(t, 80, cfg.Calibration.IsotonicMinSamples)
		assert.Equal(t, 0.125, cfg.Betting.KellyFraction)
		assert.Equal(t, 0.05, cfg.Betting.MaxBankrollFraction)
	})

	t.Run("file values override defaults and expand env", func(t *testing.T) {
		t.Setenv("TEST_BANKROLL", "2500")
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
app:
  name: sabiscore
  environment: development
  log_level: debug
  health_port: 8081
betting:
  bankroll: ${TEST_BANKROLL}
leagues:
  - name: epl
    min_edge: 0.042
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadWithDefaults(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.App.LogLevel)
		assert.Equal(t, 8081, cfg.App.HealthPort)
		assert.Equal(t, 2500.0, cfg.Betting.Bankroll)
		require.Len(t, cfg.Leagues, 1)
		assert.Equal(t, "epl", cfg.Leagues[0].Name)
		// Defaults still backfill untouched sections
		assert.Equal(t, 500, cfg.Calibration.BufferCapacity)
	})
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfigHelpers(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{
		Enabled: true, Host: "db", Port: 5432, Name: "sabiscore",
		User: "svc", Password: "pw", SSLMode: "require",
	}

	assert.False(t, cfg.IsProduction())
	cfg.App.Environment = "production"
	assert.True(t, cfg.IsProduction())

	assert.Equal(t, "postgres://svc:pw@db:5432/sabiscore?sslmode=require", cfg.GetDatabaseDSN())
	assert.Equal(t, 300*time.Second, cfg.CacheTTL())
	assert.Equal(t, 180*time.Second, cfg.CalibrationInterval())
	assert.Equal(t, 50*time.Millisecond, cfg.DataSourceTimeout())

	edges := cfg.MinEdgeByLeague()
	assert.Equal(t, 0.042, edges["epl"])
	assert.Equal(t, 0.043, edges["laliga"])
}
