package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/petermazzocco/grams/internal/auth"
	"github.com/petermazzocco/grams/internal/config"
	"github.com/petermazzocco/grams/internal/database"
	"github.com/petermazzocco/grams/internal/imaging"
	"github.com/petermazzocco/grams/internal/metrics"
	"github.com/petermazzocco/grams/internal/server"
	"github.com/petermazzocco/grams/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if !cfg.DebugMode {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	// Database connection
	db, err := database.Open(cfg.DBDriver, cfg.DSN, cfg.DebugMode)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Photo storage
	var photos storage.Store
	uploadDir := ""
	switch cfg.Storage {
	case config.StorageS3:
		client, err := storage.NewR2Client(context.Background(), cfg.AccountID, cfg.AccessKeyID, cfg.AccessKeySecret)
		if err != nil {
			log.WithError(err).Fatal("Failed to configure S3 client")
		}
		photos = storage.NewS3Store(client, cfg.BucketName, cfg.PublicURL)
	default:
		uploadDir = cfg.UploadDir
		photos = storage.NewDiskStore(uploadDir, "/uploads")
	}

	// Session store, shared with gothic
	store := auth.NewCookieStore(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SecureCookies)
	gothic.Store = store

	// OAUTH
	if cfg.GoogleKey != "" {
		goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.BaseURL+"/auth/google/callback", "email", "profile"))
	} else {
		log.Warn("GOOGLE_KEY not set, no sign in providers configured")
	}

	router := server.NewRouter(server.Options{
		DB:                 db,
		Photos:             photos,
		Processor:          imaging.NewBimgProcessor(cfg.PhotoMaxWidth),
		Sessions:           store,
		Metrics:            metrics.New(),
		Log:                log,
		RequirePhoto:       cfg.RequirePhoto,
		UploadDir:          uploadDir,
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", cfg.BindAddress).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	log.Info("Server stopped")
}
