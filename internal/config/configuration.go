// Package config loads process configuration from the environment.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every environment-sourced setting used across the ingest,
// encoder, refsync and retrigger binaries. Each binary reads only the
// fields its role needs; unused fields are harmless.
type Config struct {
	// Database
	PostgresHost     string `mapstructure:"POSTGRES_HOST" validate:"required"`
	PostgresDB       string `mapstructure:"POSTGRES_DB" validate:"required"`
	PostgresUser     string `mapstructure:"POSTGRES_USER" validate:"required"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD" validate:"required"`
	DatabaseRetries  int    `mapstructure:"DATABASE_RETRIES"`

	// Message bus (C4 producer, C5 consumer, retrigger tool)
	RabbitURL   string `mapstructure:"RABBIT_URL"`
	RabbitQueue string `mapstructure:"RABBIT_QUEUE"`

	// Object store (C1, used by C4 and C5)
	VideoStorageBucketURL string `mapstructure:"VIDEO_STORAGE_BUCKET_URL"`
	VideoStorageKeyPrefix string `mapstructure:"VIDEO_STORAGE_KEY_PREFIX"`
	PublicClientURL       string `mapstructure:"PUBLIC_CLIENT_URL"`

	// Ingestion API (C4)
	WebServerPort     int    `mapstructure:"WEBSERVER_PORT"`
	XZCompressionLvl  int    `mapstructure:"XZ_COMPRESSION_LEVEL"`
	MaxUploadPartSize string `mapstructure:"MAX_UPLOAD_PART_SIZE"`

	// Derivation worker (C5)
	FFmpegPath string `mapstructure:"FFMPEG_PATH"`
	ScratchDir string `mapstructure:"SCRATCH_DIR"`

	// CDN purge (C5), optional: empty CDNBaseURL selects the no-op purger
	CDNBaseURL string `mapstructure:"CDN_BASE_URL"`
	CDNAPIKey  string `mapstructure:"CDN_API_KEY"`

	// Reference sync (C3)
	GitRepoURL       string `mapstructure:"GIT_REPO_URL"`
	GitRepoBranch    string `mapstructure:"GIT_REPO_BRANCH"`
	GitRepoLocalPath string `mapstructure:"GIT_REPO_LOCAL_PATH"`
	RefSyncPort      int    `mapstructure:"REFSYNC_PORT"`

	// Observability
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// bindEnv walks Config's mapstructure tags via reflection and binds each one
// to viper, so every field is read from the environment even when unset.
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag != "" {
			_ = viper.BindEnv(tag)
		}
	}
}

// Load reads configuration from the environment, applies defaults, and
// validates required fields.
func Load(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("REFSYNC_PORT", 8082)
	viper.SetDefault("XZ_COMPRESSION_LEVEL", 6)
	viper.SetDefault("FFMPEG_PATH", "ffmpeg")
	viper.SetDefault("SCRATCH_DIR", "/tmp")
	viper.SetDefault("RABBIT_QUEUE", "video-derivation")
	viper.SetDefault("MAX_UPLOAD_PART_SIZE", "64M")
	viper.SetDefault("VIDEO_STORAGE_KEY_PREFIX", "")
	viper.SetDefault("GIT_REPO_BRANCH", "master")
	viper.SetDefault("LOG_FORMAT", "json")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("loaded configuration",
		"postgres_host", cfg.PostgresHost,
		"postgres_db", cfg.PostgresDB,
		"webserver_port", cfg.WebServerPort,
		"refsync_port", cfg.RefSyncPort,
	)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DSN builds a libpq-style connection string from the discrete Postgres
// fields, mirroring how the original source's deadpool_postgres::Config
// accepted host/db/user/password discretely rather than a single DSN.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s dbname=%s user=%s password=%s sslmode=prefer",
		c.PostgresHost, c.PostgresDB, c.PostgresUser, c.PostgresPassword)
}

// NewLogger builds the slog logger for the given format ("json" or "text").
func NewLogger(format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
