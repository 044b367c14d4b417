// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/newsroomhq/newsdesk/internal/analytics"
	"github.com/newsroomhq/newsdesk/internal/blob"
	"github.com/newsroomhq/newsdesk/internal/config"
	"github.com/newsroomhq/newsdesk/internal/geoip"
	"github.com/newsroomhq/newsdesk/internal/handler"
	"github.com/newsroomhq/newsdesk/internal/handler/api"
	"github.com/newsroomhq/newsdesk/internal/logging"
	"github.com/newsroomhq/newsdesk/internal/metrics"
	"github.com/newsroomhq/newsdesk/internal/middleware"
	"github.com/newsroomhq/newsdesk/internal/scheduler"
	"github.com/newsroomhq/newsdesk/internal/service"
	"github.com/newsroomhq/newsdesk/internal/store"
	"github.com/newsroomhq/newsdesk/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "newsdesk - news publishing and reading analytics service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_DB_PATH            SQLite database path (default: ./data/newsdesk.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_BLOB_BACKEND       Cover image storage: fs|s3 (default: fs)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_S3_BUCKET          S3 bucket when the s3 backend is selected\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_GEOIP_DB_PATH      GeoLite2-Country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  NEWSDESK_DO_SEED            Seed sample articles on an empty database\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Upgrade logger to also write WARN and ERROR logs to the system event log
	logger = slog.New(logging.NewEventLogHandler(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}), db))
	slog.SetDefault(logger)

	ctx := context.Background()
	if err := store.Seed(ctx, db); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	if cfg.DoSeed {
		n, err := store.SeedSampleArticles(ctx, db)
		if err != nil {
			return fmt.Errorf("seeding sample articles: %w", err)
		}
		slog.Info("sample articles seeded", "count", n)
	}

	var (
		blobs  blob.Store
		fsBlob *blob.Filesystem
	)
	if cfg.UseS3() {
		blobs, err = blob.NewS3(ctx, blob.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
			ReadURLTTL:   cfg.UploadURLTTL,
		})
		if err != nil {
			return fmt.Errorf("initializing S3 blob store: %w", err)
		}
		slog.Info("blob store ready", "backend", config.BlobBackendS3, "bucket", cfg.S3Bucket)
	} else {
		fsBlob, err = blob.NewFilesystem(cfg.UploadsDir, cfg.PublicURL)
		if err != nil {
			return fmt.Errorf("initializing filesystem blob store: %w", err)
		}
		blobs = fsBlob
		slog.Info("blob store ready", "backend", config.BlobBackendFilesystem, "dir", cfg.UploadsDir)
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("GeoIP database unavailable, country lookup disabled", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()

	events := service.NewEventService(db)
	media := service.NewMediaService(blobs, cfg.UploadURLTTL, logger)
	settings := service.NewSettingsService(db, events)
	articles := service.NewArticleService(db, media, events, logger)
	comments := service.NewCommentService(db, settings)
	users := service.NewUserService(db, events, logger)

	registry := metrics.NewRegistry(db)
	m := metrics.New(registry)

	tracker := analytics.NewTracker(analytics.TrackerConfig{
		DB:       db,
		Logger:   logger,
		GeoIP:    geo,
		Recorder: m,
	})

	sched := scheduler.New(logger, m)
	if err := sched.AddPublishJob(articles); err != nil {
		return fmt.Errorf("registering publish job: %w", err)
	}
	if err := sched.AddPruneEventsJob(events, cfg.EventRetention); err != nil {
		return fmt.Errorf("registering prune job: %w", err)
	}
	if cfg.GeoIPEnabled() {
		if err := sched.AddGeoIPReloadJob(geo); err != nil {
			return fmt.Errorf("registering GeoIP reload job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	loginCfg := middleware.DefaultLoginProtectionConfig()
	loginCfg.OnLocked = func(time.Duration) { m.LoginLockoutsTotal.Inc() }
	loginProtection := middleware.NewLoginProtection(loginCfg)
	defer loginProtection.Stop()

	ingestLimiter := middleware.NewIPRateLimiter(cfg.IngestRateLimit, cfg.IngestBurst, m.RateLimitedTotal.Inc)

	apiHandler := api.NewHandler(api.Deps{
		Articles: articles,
		Comments: comments,
		Users:    users,
		Settings: settings,
		Media:    media,
		Events:   events,
		Tracker:  tracker,
		Jobs:     sched,
		Login:    loginProtection,
		Ingest:   ingestLimiter.Middleware(),
		Logger:   logger,
	})

	uploadsDir := ""
	if fsBlob != nil {
		uploadsDir = fsBlob.Dir()
	}
	healthHandler := handler.NewHealthHandler(db, uploadsDir, info)

	securityCfg := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	securityCfg.ExcludePaths = []string{blob.ServePathPrefix}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(securityCfg))
	r.Use(middleware.RequestMetrics(m))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Handle("/metrics", metrics.Handler(registry))

	if fsBlob != nil {
		r.Handle(blob.ServePathPrefix+"*", fsBlob.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30*time.Second, logger))
		r.Route("/api/v1", apiHandler.Routes)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for direct blob uploads
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
