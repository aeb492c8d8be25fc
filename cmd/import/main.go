// Command import loads games and lines into the local snapshot, either from
// JSON files or from the CollegeFootballData API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ats-history/internal/cache"
	"ats-history/internal/config"
	"ats-history/internal/feed"
	"ats-history/internal/ingest"
	"ats-history/internal/logging"
	"ats-history/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	gamesPath := fs.String("games", "", "JSON file of games")
	linesPath := fs.String("lines", "", "JSON file of per-game betting lines")
	fromAPI := fs.Bool("api", false, "fetch from the CollegeFootballData API")
	season := fs.Int("season", 0, "season to fetch with --api (default: current)")
	start := fs.Int("start", 0, "first season of a backfill")
	end := fs.Int("end", 0, "last season of a backfill")
	dbPath := fs.String("db", "", "snapshot path (default: ATS_DB_PATH)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat, "ats-import"); err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if !*fromAPI && *gamesPath == "" && *linesPath == "" {
		return errors.New("nothing to import: pass --games/--lines or --api")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if *gamesPath != "" || *linesPath != "" {
		if err := importFiles(ctx, db, *gamesPath, *linesPath); err != nil {
			return err
		}
		if err := invalidateCache(ctx, cfg.RedisURL); err != nil {
			slog.Warn("Report cache not invalidated", "err", err)
		}
	}

	if !*fromAPI {
		return nil
	}
	if cfg.FeedAPIKey == "" {
		return errors.New("CFBD_API_KEY is required with --api")
	}
	syncer := ingest.NewSyncer(feed.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey), db)
	syncer.OnSync(func(ctx context.Context) error { return invalidateCache(ctx, cfg.RedisURL) })

	if *start != 0 || *end != 0 {
		if *start == 0 || *end == 0 {
			return errors.New("--start and --end must be given together")
		}
		return syncer.Backfill(ctx, *start, *end)
	}

	if *season == 0 {
		*season = ingest.CurrentSeason(time.Now())
	}
	_, err = syncer.Sync(ctx, *season)
	return err
}

// invalidateCache retires reports cached by a running server. No-op without Redis.
func invalidateCache(ctx context.Context, redisURL string) error {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(opts)
	defer rdb.Close()
	return cache.NewReports(rdb, nil, 0).Invalidate(ctx)
}

func importFiles(ctx context.Context, db *store.DB, gamesPath, linesPath string) error {
	if gamesPath != "" {
		f, err := os.Open(gamesPath)
		if err != nil {
			return err
		}
		games, err := feed.DecodeGames(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", gamesPath, err)
		}
		if err := db.SaveGames(ctx, games); err != nil {
			return err
		}
		slog.Info("Games imported", "file", gamesPath, "count", len(games))
	}

	if linesPath != "" {
		f, err := os.Open(linesPath)
		if err != nil {
			return err
		}
		lines, err := feed.DecodeLines(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", linesPath, err)
		}
		if err := db.SaveLines(ctx, lines); err != nil {
			return err
		}
		slog.Info("Lines imported", "file", linesPath, "count", len(lines))
	}
	return nil
}
