package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summary/config"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/handlers"
	"github.com/nijaru/yt-summary/logger"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/storage"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/transcript"
)

func main() {
	cfg := config.LoadConfig()

	log, logCloser, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Dir:    cfg.LogDir,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Invalid logging configuration")
	}
	defer logCloser.Close()

	if err := config.ValidateConfig(cfg); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	summarizer, err := summary.New(cfg.Summary)
	if err != nil {
		log.WithError(err).Fatal("Failed to create summarizer")
	}
	if loader, ok := summarizer.(summary.Loader); ok && cfg.Summary.Preload {
		if err := loader.Load(context.Background()); err != nil {
			log.WithError(err).Fatal("Failed to load summarization checkpoint")
		}
	}

	fetcher, err := transcript.New(cfg.Transcript)
	if err != nil {
		log.WithError(err).Fatal("Failed to create transcript fetcher")
	}

	opts := handlers.Options{
		Fetcher:    fetcher,
		Summarizer: summarizer,
	}

	if cfg.DBPath != "" {
		store, err := db.Open(cfg.DBPath)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize database")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.WithError(err).Error("Failed to close database")
			}
		}()
		if count, err := store.Count(context.Background()); err == nil {
			log.WithField("archived", count).Info("Summary archive ready")
		}
		opts.History = store
		opts.Archivers = append(opts.Archivers, store.Save)
	}

	if cfg.Spaces.Enabled() {
		spaces, err := storage.NewSpacesClient(context.Background(), cfg.Spaces)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Spaces client")
		}
		opts.Archivers = append(opts.Archivers, spaces.SaveSummary)
	}

	mux := http.NewServeMux()
	app := handlers.New(opts)
	app.Register(mux)

	var rateLimit func(http.Handler) http.Handler
	if cfg.RateLimitEnabled {
		rateLimit = middleware.NewRateLimiter(cfg.RateLimit, cfg.RateLimitInterval).Middleware
	}

	server := &http.Server{
		Addr: ":" + cfg.ServerPort,
		Handler: middleware.Chain(mux,
			middleware.RequestID(),
			middleware.Logging(log),
			middleware.Recovery(log),
			rateLimit,
		),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":       cfg.ServerPort,
			"provider":   summarizer.Provider(),
			"checkpoint": summarizer.Checkpoint(),
			"transcript": cfg.Transcript.Source,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Could not listen")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop

	log.Info("Shutting down the server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	app.Wait()
}
