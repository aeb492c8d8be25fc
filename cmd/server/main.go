package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-history/internal/cache"
	"ats-history/internal/config"
	"ats-history/internal/engine"
	"ats-history/internal/feed"
	"ats-history/internal/ingest"
	"ats-history/internal/logging"
	"ats-history/internal/server"
	"ats-history/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Loading configuration: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if _, err := logging.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat, "ats-server"); err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Opening database: %v", err)
	}
	defer db.Close()

	var reporter server.Reporter = engine.New(db, db, cfg.ReportOptions())
	var reports *cache.Reports
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid ATS_REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Connecting to Redis: %v", err)
		}
		reports = cache.NewReports(rdb, reporter, cfg.CacheTTL)
		reporter = reports
		slog.Info("Report cache enabled", "ttl", cfg.CacheTTL)
	}

	router := server.NewRouter(server.NewHandler(reporter, db), server.Options{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})

	var sched *ingest.Scheduler
	if cfg.SyncSchedule != "" {
		syncer := ingest.NewSyncer(feed.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey), db)
		if reports != nil {
			syncer.OnSync(reports.Invalidate)
		}
		sched, err = ingest.NewScheduler(syncer, cfg.SyncSchedule, cfg.SyncTimeout)
		if err != nil {
			log.Fatalf("Invalid sync schedule: %v", err)
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Shutdown signal received, stopping...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Graceful shutdown failed", "err", err)
	}
}
