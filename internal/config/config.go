// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Blob storage backends.
const (
	BlobBackendFilesystem = "fs"
	BlobBackendS3         = "s3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"NEWSDESK_DB_PATH" envDefault:"./data/newsdesk.db"`
	ServerHost string `env:"NEWSDESK_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"NEWSDESK_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"NEWSDESK_ENV" envDefault:"development"`
	LogLevel   string `env:"NEWSDESK_LOG_LEVEL" envDefault:"info"`

	// Public base URL used when building links to locally stored blobs
	PublicURL string `env:"NEWSDESK_PUBLIC_URL" envDefault:"http://localhost:8080"`

	// Blob storage for article cover images
	BlobBackend    string        `env:"NEWSDESK_BLOB_BACKEND" envDefault:"fs"`
	UploadsDir     string        `env:"NEWSDESK_UPLOADS_DIR" envDefault:"./uploads"`
	UploadURLTTL   time.Duration `env:"NEWSDESK_UPLOAD_URL_TTL" envDefault:"15m"`
	S3Bucket       string        `env:"NEWSDESK_S3_BUCKET"`
	S3Region       string        `env:"NEWSDESK_S3_REGION"`
	S3Endpoint     string        `env:"NEWSDESK_S3_ENDPOINT"` // Optional, for MinIO and other S3-compatible stores
	S3AccessKey    string        `env:"NEWSDESK_S3_ACCESS_KEY"`
	S3SecretKey    string        `env:"NEWSDESK_S3_SECRET_KEY"`
	S3UsePathStyle bool          `env:"NEWSDESK_S3_USE_PATH_STYLE" envDefault:"false"`

	// Reading ingest rate limiting (per client IP)
	IngestRateLimit float64 `env:"NEWSDESK_INGEST_RATE_LIMIT" envDefault:"10"`
	IngestBurst     int     `env:"NEWSDESK_INGEST_BURST" envDefault:"30"`

	// GeoIP configuration
	GeoIPDBPath string `env:"NEWSDESK_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// System event log retention, pruned daily
	EventRetention time.Duration `env:"NEWSDESK_EVENT_RETENTION" envDefault:"720h"`

	// Seeding configuration
	DoSeed bool `env:"NEWSDESK_DO_SEED" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseS3 returns true if cover images are stored in S3.
func (c Config) UseS3() bool {
	return c.BlobBackend == BlobBackendS3
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.BlobBackend {
	case BlobBackendFilesystem:
	case BlobBackendS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return errors.New("NEWSDESK_S3_BUCKET and NEWSDESK_S3_REGION are required when NEWSDESK_BLOB_BACKEND=s3")
		}
	default:
		return fmt.Errorf("NEWSDESK_BLOB_BACKEND must be %q or %q, got %q",
			BlobBackendFilesystem, BlobBackendS3, c.BlobBackend)
	}

	if c.IngestRateLimit <= 0 || c.IngestBurst <= 0 {
		return errors.New("NEWSDESK_INGEST_RATE_LIMIT and NEWSDESK_INGEST_BURST must be positive")
	}

	if c.EventRetention <= 0 {
		return errors.New("NEWSDESK_EVENT_RETENTION must be positive")
	}

	if c.UploadURLTTL <= 0 {
		return errors.New("NEWSDESK_UPLOAD_URL_TTL must be positive")
	}

	return nil
}
