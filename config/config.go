// Package config holds the process-wide settings. The configuration is
// read once at startup from the environment (with an optional .env file)
// and passed into each component; nothing mutates it afterwards.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"fire-scenes/util"
)

type Config struct {
	// DataDir is the root of the output tree; events live under
	// <DataDir>/Fire_events/<event_id>/.
	DataDir string

	// MaxCloudCover is the catalog query ceiling in percent.
	MaxCloudCover float64

	DownloadScenes bool
	SaveFootprints bool
	UpdateSidecar  bool

	Sentinel SentinelConfig
	Landsat  LandsatConfig
	Retry    RetryConfig

	LogLevel string
}

type SentinelConfig struct {
	Username    string
	Password    string
	APIURL      string
	ProductType string
	Platform    string
	BufferDays  int
}

type LandsatConfig struct {
	Username   string
	Password   string
	APIURL     string
	Dataset    string
	BufferDays int
}

type RetryConfig struct {
	MaxAttempts int
	Wait        time.Duration
}

func Load() (*Config, error) {
	// Missing .env is fine; plain environment variables still apply.
	godotenv.Load()

	cfg := &Config{
		DataDir:        util.EnvOrDefault("DATA_DIR", "./data"),
		MaxCloudCover:  util.EnvOrDefaultFloat("MAX_CLOUD_COVER", 30),
		DownloadScenes: util.EnvOrDefaultBool("DOWNLOAD_SCENES", false),
		SaveFootprints: util.EnvOrDefaultBool("SAVE_FOOTPRINTS", true),
		UpdateSidecar:  util.EnvOrDefaultBool("UPDATE_JSON", false),
		Sentinel: SentinelConfig{
			Username:    util.EnvOrDefault("SENTINEL_USERNAME", ""),
			Password:    util.EnvOrDefault("SENTINEL_PASSWORD", ""),
			APIURL:      util.EnvOrDefault("SENTINEL_API_URL", "https://apihub.copernicus.eu/apihub"),
			ProductType: util.EnvOrDefault("SENTINEL_PRODUCT_TYPE", "S2MSI2A"),
			Platform:    util.EnvOrDefault("SENTINEL_PLATFORM", "Sentinel-2"),
			BufferDays:  util.EnvOrDefaultInt("SENTINEL_BUFFER_DAYS", 10),
		},
		Landsat: LandsatConfig{
			Username:   util.EnvOrDefault("LANDSAT_USERNAME", ""),
			Password:   util.EnvOrDefault("LANDSAT_PASSWORD", ""),
			APIURL:     util.EnvOrDefault("LANDSAT_API_URL", "https://m2m.cr.usgs.gov/api/api/json/stable"),
			Dataset:    util.EnvOrDefault("LANDSAT_DATASET", "landsat_ot_c2_l1"),
			BufferDays: util.EnvOrDefaultInt("LANDSAT_BUFFER_DAYS", 10),
		},
		Retry: RetryConfig{
			MaxAttempts: util.EnvOrDefaultInt("DOWNLOAD_RETRY_ATTEMPTS", 10),
			Wait:        util.EnvOrDefaultDuration("DOWNLOAD_RETRY_WAIT", 2*time.Minute),
		},
		LogLevel: util.EnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if c.MaxCloudCover < 0 || c.MaxCloudCover > 100 {
		return fmt.Errorf("invalid max cloud cover: %v", c.MaxCloudCover)
	}
	if c.Sentinel.BufferDays < 0 || c.Landsat.BufferDays < 0 {
		return fmt.Errorf("buffer days must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Wait < 0 {
		return fmt.Errorf("retry wait must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}
