// Command report prints one team's ATS report as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"ats-history/internal/config"
	"ats-history/internal/engine"
	"ats-history/internal/feed"
	"ats-history/internal/logging"
	"ats-history/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Report failed: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	team := fs.String("team", "", "team name")
	seasonList := fs.String("seasons", "", "comma separated seasons (default: every stored season)")
	start := fs.Int("start", 0, "first season of a range")
	end := fs.Int("end", 0, "last season of a range")
	live := fs.Bool("api", false, "read from the CollegeFootballData API instead of the snapshot")
	gamesOnly := fs.Bool("games", false, "print only the per-game listing")
	dbPath := fs.String("db", "", "snapshot path (default: ATS_DB_PATH)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*team) == "" {
		return errors.New("--team is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if _, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat, "ats-report"); err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	seasons, err := parseSeasons(*seasonList, *start, *end)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var eng *engine.Engine
	if *live {
		if cfg.FeedAPIKey == "" {
			return errors.New("CFBD_API_KEY is required with --api")
		}
		if len(seasons) == 0 {
			return errors.New("--seasons or --start/--end is required with --api")
		}
		client := feed.NewClient(cfg.FeedBaseURL, cfg.FeedAPIKey)
		eng = engine.New(client, client, cfg.ReportOptions())
	} else {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if len(seasons) == 0 {
			if seasons, err = db.Seasons(ctx); err != nil {
				return err
			}
		}
		eng = engine.New(db, db, cfg.ReportOptions())
	}

	m, err := eng.Report(ctx, *team, seasons)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *gamesOnly {
		return enc.Encode(m.Records)
	}
	return enc.Encode(m)
}

func parseSeasons(list string, start, end int) ([]int, error) {
	if list != "" {
		var seasons []int
		for _, part := range strings.Split(list, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			s, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid season %q", part)
			}
			seasons = append(seasons, s)
		}
		return seasons, nil
	}
	if start == 0 && end == 0 {
		return nil, nil
	}
	if start == 0 || end == 0 {
		return nil, errors.New("--start and --end must be given together")
	}
	return engine.SeasonRange(start, end), nil
}
