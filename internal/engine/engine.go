package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"ats-history/internal/ats"
)

// ErrNoSeasons is returned when a report is requested without seasons
var ErrNoSeasons = errors.New("at least one season is required")

// GameSource provides the games a team played in a season
type GameSource interface {
	Games(ctx context.Context, season int, team string) ([]ats.Game, error)
}

// LineSource provides the betting lines for a season
type LineSource interface {
	Lines(ctx context.Context, season int, team string) ([]ats.Line, error)
}

// Engine fetches seasons from its sources and builds reports
type Engine struct {
	games   GameSource
	lines   LineSource
	builder *ats.Builder
}

// New creates a new Engine with all dependencies.
func New(games GameSource, lines LineSource, opts ats.Options) *Engine {
	return &Engine{
		games:   games,
		lines:   lines,
		builder: ats.NewBuilder(opts),
	}
}

// Report builds the ATS report for team over seasons. Seasons are fetched
// concurrently; a season whose games or lines cannot be fetched is logged,
// listed in the metadata and contributes no games.
func (e *Engine) Report(ctx context.Context, team string, seasons []int) (ats.Metrics, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return ats.Metrics{}, ats.ErrEmptyTeam
	}
	seasons = uniqueSeasons(seasons)
	if len(seasons) == 0 {
		return ats.Metrics{}, ErrNoSeasons
	}

	start := time.Now()
	partials := make([]*ats.Accumulator, len(seasons))

	var wg sync.WaitGroup
	for i, season := range seasons {
		wg.Add(1)
		go func(i, season int) {
			defer wg.Done()
			partials[i] = e.season(ctx, team, season)
		}(i, season)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return ats.Metrics{}, err
	}

	acc := partials[0]
	for _, p := range partials[1:] {
		acc.Merge(p)
	}
	m := acc.Metrics()

	slog.Info("Report built", "team", team, "seasons", len(seasons),
		"games", m.Metadata.GamesProcessed, "missing", len(m.Metadata.SeasonsMissing),
		"took", time.Since(start))
	return m, nil
}

func (e *Engine) season(ctx context.Context, team string, season int) *ats.Accumulator {
	games, err := e.games.Games(ctx, season, team)
	if err != nil {
		slog.Warn("Fetching games failed", "team", team, "season", season, "err", err)
		return e.missing(team, season)
	}

	lines, err := e.lines.Lines(ctx, season, team)
	if err != nil {
		slog.Warn("Fetching lines failed", "team", team, "season", season, "err", err)
		return e.missing(team, season)
	}

	return e.builder.Accumulate(team, games, lines, []int{season})
}

func (e *Engine) missing(team string, season int) *ats.Accumulator {
	acc := e.builder.Accumulate(team, nil, nil, nil)
	acc.Missing(season)
	return acc
}

// SeasonRange expands an inclusive range. Reversed bounds are swapped.
func SeasonRange(start, end int) []int {
	if start > end {
		start, end = end, start
	}
	seasons := make([]int, 0, end-start+1)
	for s := start; s <= end; s++ {
		seasons = append(seasons, s)
	}
	return seasons
}

func uniqueSeasons(seasons []int) []int {
	seen := make(map[int]bool, len(seasons))
	out := make([]int, 0, len(seasons))
	for _, s := range seasons {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}
