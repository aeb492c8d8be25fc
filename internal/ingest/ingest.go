package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"ats-history/internal/ats"
	"ats-history/internal/store"
)

// Source provides one season of games and lines for every team
type Source interface {
	Games(ctx context.Context, season int, team string) ([]ats.Game, error)
	Lines(ctx context.Context, season int, team string) ([]ats.Line, error)
}

// Sink persists a snapshot. SaveSnapshot writes games and lines atomically.
type Sink interface {
	SaveSnapshot(ctx context.Context, games []ats.Game, lines []ats.Line) error
	RecordImport(ctx context.Context, imp store.Import) error
}

// Syncer copies seasons from a source into the snapshot
type Syncer struct {
	src   Source
	sink  Sink
	now   func() time.Time
	hooks []func(context.Context) error
}

// NewSyncer creates a syncer
func NewSyncer(src Source, sink Sink) *Syncer {
	return &Syncer{src: src, sink: sink, now: time.Now}
}

// OnSync registers fn to run after every successful sync. Hook errors are logged.
func (s *Syncer) OnSync(fn func(context.Context) error) {
	s.hooks = append(s.hooks, fn)
}

// Sync refreshes one season and records the run
func (s *Syncer) Sync(ctx context.Context, season int) (store.Import, error) {
	imp := store.Import{
		ID:        uuid.NewString(),
		Season:    season,
		StartedAt: s.now(),
	}

	games, err := s.src.Games(ctx, season, "")
	if err != nil {
		return imp, fmt.Errorf("fetching games: %w", err)
	}
	lines, err := s.src.Lines(ctx, season, "")
	if err != nil {
		return imp, fmt.Errorf("fetching lines: %w", err)
	}

	if err := s.sink.SaveSnapshot(ctx, games, lines); err != nil {
		return imp, fmt.Errorf("saving snapshot: %w", err)
	}

	imp.Games, imp.Lines = len(games), len(lines)
	imp.FinishedAt = s.now()
	if err := s.sink.RecordImport(ctx, imp); err != nil {
		return imp, fmt.Errorf("recording import: %w", err)
	}

	slog.Info("Season synced", "run", imp.ID, "season", season,
		"games", imp.Games, "lines", imp.Lines, "took", imp.FinishedAt.Sub(imp.StartedAt))

	for _, fn := range s.hooks {
		if err := fn(ctx); err != nil {
			slog.Warn("Post-sync hook failed", "run", imp.ID, "err", err)
		}
	}
	return imp, nil
}

// Backfill syncs every season from start to end inclusive. A failed season is
// logged and skipped; the first error is returned after all seasons are tried.
func (s *Syncer) Backfill(ctx context.Context, start, end int) error {
	if start > end {
		start, end = end, start
	}

	var firstErr error
	for season := start; season <= end; season++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.Sync(ctx, season); err != nil {
			slog.Error("Backfill sync failed", "season", season, "err", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("season %d: %w", season, err)
			}
		}
	}
	return firstErr
}

// CurrentSeason is the football season in progress at t. Games in January and
// February belong to the previous year's season.
func CurrentSeason(t time.Time) int {
	if t.Month() < time.March {
		return t.Year() - 1
	}
	return t.Year()
}

// Scheduler runs a sync of the current season on a cron schedule
type Scheduler struct {
	cron    *cron.Cron
	syncer  *Syncer
	timeout time.Duration
}

// NewScheduler creates a scheduler. spec is a standard five-field cron expression.
func NewScheduler(syncer *Syncer, spec string, timeout time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		syncer:  syncer,
		timeout: timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("parsing sync schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.syncer.Sync(ctx, CurrentSeason(s.syncer.now())); err != nil {
		slog.Error("Scheduled sync failed", "err", err)
	}
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	slog.Info("Sync scheduler started")
	s.cron.Start()
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("Sync scheduler stopped")
}
