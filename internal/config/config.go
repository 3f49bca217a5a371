package config

import (
	"fmt"
	"os"
	"strconv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Upstream defaults. The job runs with no environment at all; every
// variable only overrides one of these.
const (
	DefaultAquaviewURL     = "https://aquaview-sfeos-1025757962819.us-east1.run.app"
	DefaultNDBCURL         = "https://www.ndbc.noaa.gov/data/realtime2"
	DefaultCoopsURL        = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	DefaultGliderERDDAPURL = "https://gliders.ioos.us/erddap"
	DefaultCurrentsURL     = "https://coastwatch.noaa.gov/erddap/griddap/" +
		"noaacwBLENDEDNRTcurrentsDaily.json?" +
		"u_current[(last)][(18):(32)][(-98):(-80)]," +
		"v_current[(last)][(18):(32)][(-98):(-80)]"
	DefaultUserAgent = "AQUAVIEW-Explorer/2.0"
)

// Config holds all updater settings, populated from environment variables.
type Config struct {
	OutputDir string

	AquaviewURL     string
	NDBCURL         string
	CoopsURL        string
	GliderERDDAPURL string
	CurrentsURL     string
	UserAgent       string

	// Live reading caps: only the leading records of each run get a
	// secondary telemetry fetch.
	BuoyLiveLimit int
	TideLiveLimit int

	LogLevel  string
	LogFormat string

	// Optional sinks. Empty disables them.
	PushgatewayURL     string
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	buoyLimit, err := parseLimit("BUOY_LIVE_LIMIT", 200)
	if err != nil {
		return nil, err
	}
	tideLimit, err := parseLimit("TIDE_LIVE_LIMIT", 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputDir:          sharedcfg.EnvOrDefault("OUTPUT_DIR", "docs/data"),
		AquaviewURL:        sharedcfg.EnvOrDefault("AQUAVIEW_URL", DefaultAquaviewURL),
		NDBCURL:            sharedcfg.EnvOrDefault("NDBC_URL", DefaultNDBCURL),
		CoopsURL:           sharedcfg.EnvOrDefault("COOPS_URL", DefaultCoopsURL),
		GliderERDDAPURL:    sharedcfg.EnvOrDefault("GLIDER_ERDDAP_URL", DefaultGliderERDDAPURL),
		CurrentsURL:        sharedcfg.EnvOrDefault("CURRENTS_URL", DefaultCurrentsURL),
		UserAgent:          sharedcfg.EnvOrDefault("USER_AGENT", DefaultUserAgent),
		BuoyLiveLimit:      buoyLimit,
		TideLiveLimit:      tideLimit,
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		PushgatewayURL:     os.Getenv("PUSHGATEWAY_URL"),
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "ocean-data-snapshots"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("OUTPUT_DIR is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSnapshotTopic == "" {
		return nil, fmt.Errorf("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether snapshot publishing is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parseLimit(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
