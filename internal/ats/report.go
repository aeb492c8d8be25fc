package ats

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"ats-history/internal/mathutil"
	"ats-history/internal/odds"
)

// ErrEmptyTeam is returned when a report is requested without a team
var ErrEmptyTeam = errors.New("team is required")

// unitStake is the flat wager behind the ROI estimate
var unitStake = decimal.NewFromInt(100)

// Options tunes a report. The zero value is not valid; start from DefaultOptions.
type Options struct {
	ProviderPriority []string
	Reconciler       Reconciler

	// Limits caps the notable lists; nil means DefaultTrackerLimits. Zero limits keep nothing.
	Limits  *TrackerLimits
	Matcher TeamMatcher
}

// DefaultOptions returns the standard constants and an alias-free name matcher
func DefaultOptions() Options {
	limits := DefaultTrackerLimits()
	return Options{
		ProviderPriority: DefaultProviderPriority,
		Reconciler:       DefaultReconciler(),
		Limits:           &limits,
		Matcher:          NewNameMatcher(nil),
	}
}

// Metadata describes how the report was assembled
type Metadata struct {
	GamesProcessed int            `json:"games_processed"`
	QuotedLines    int            `json:"quoted_lines"`
	EstimatedLines int            `json:"estimated_lines"`
	NoScoreGames   int            `json:"no_score_games"`
	SkippedGames   int            `json:"skipped_games"`
	DuplicateGames int            `json:"duplicate_games"`
	AmbiguousGames []string       `json:"ambiguous_games,omitempty"`
	ProviderCounts map[string]int `json:"provider_counts"`
	SeasonsMissing []int          `json:"seasons_missing,omitempty"`
}

// Metrics is the finished ATS report for one team
type Metrics struct {
	Team          string          `json:"team"`
	Seasons       []int           `json:"seasons"`
	OverallRecord Tally           `json:"overall_record"`
	WinPercentage float64         `json:"win_percentage"`
	AvgSpread     float64         `json:"avg_spread"`
	AvgMargin     float64         `json:"avg_margin"`
	ROI           float64         `json:"roi"`
	Situational   Situational     `json:"situational"`
	YearlyData    []SeasonSummary `json:"yearly_data"`
	BestWorst     BestWorst       `json:"best_worst"`

	StraightUp   Tally   `json:"straight_up"`
	OverUnder    Tally   `json:"over_under"`
	ExpectedWins float64 `json:"expected_wins"`

	Records  []Record `json:"records"`
	Metadata Metadata `json:"metadata"`
}

// Accumulator folds records into a report. Accumulators for disjoint game sets
// can be built independently and merged in any order.
type Accumulator struct {
	team    string
	agg     *Aggregator
	tracker *Tracker
	records []Record

	spreadSum float64
	marginSum float64
	scored    int

	straightUp   Tally
	overUnder    Tally
	expectedWins float64

	meta Metadata
}

// NewAccumulator starts an empty report for team
func NewAccumulator(team string, limits TrackerLimits) *Accumulator {
	return &Accumulator{
		team:    team,
		agg:     NewAggregator(),
		tracker: NewTracker(limits),
		meta:    Metadata{ProviderCounts: make(map[string]int)},
	}
}

// Add folds one reconciled record in
func (acc *Accumulator) Add(rec Record) {
	acc.records = append(acc.records, rec)
	acc.agg.Add(rec)
	acc.tracker.Add(rec)

	acc.meta.GamesProcessed++
	acc.spreadSum += math.Abs(rec.Spread)
	if rec.SpreadSource == SpreadEstimated {
		acc.meta.EstimatedLines++
	} else {
		acc.meta.QuotedLines++
		acc.meta.ProviderCounts[rec.Provider]++
	}

	if rec.Result == ResultNoScore {
		acc.meta.NoScoreGames++
		return
	}

	acc.marginSum += *rec.ATSMargin
	acc.scored++
	acc.expectedWins += rec.WinProbability

	switch {
	case *rec.ActualMargin > 0:
		acc.straightUp.Wins++
	case *rec.ActualMargin < 0:
		acc.straightUp.Losses++
	default:
		acc.straightUp.Pushes++
	}

	switch rec.TotalResult {
	case TotalOver:
		acc.overUnder.Wins++
	case TotalUnder:
		acc.overUnder.Losses++
	case TotalPush:
		acc.overUnder.Pushes++
	}
}

// Skip counts a game that does not involve the team
func (acc *Accumulator) Skip() {
	acc.meta.SkippedGames++
}

// Duplicates counts repeated copies of games already folded in
func (acc *Accumulator) Duplicates(n int) {
	acc.meta.DuplicateGames += n
}

// Ambiguous records a game whose team names could not be resolved safely
func (acc *Accumulator) Ambiguous(gameID string) {
	acc.meta.AmbiguousGames = append(acc.meta.AmbiguousGames, gameID)
}

// Season makes a season show up in the yearly rollup even if it has no games
func (acc *Accumulator) Season(season int) {
	acc.agg.Touch(season)
}

// Missing notes a season whose games could not be retrieved
func (acc *Accumulator) Missing(season int) {
	acc.meta.SeasonsMissing = append(acc.meta.SeasonsMissing, season)
	acc.agg.Touch(season)
}

// Merge folds another accumulator for the same team in
func (acc *Accumulator) Merge(o *Accumulator) {
	acc.records = append(acc.records, o.records...)
	acc.agg.Merge(o.agg)
	acc.tracker.Merge(o.tracker)

	acc.spreadSum += o.spreadSum
	acc.marginSum += o.marginSum
	acc.scored += o.scored
	acc.straightUp.Merge(o.straightUp)
	acc.overUnder.Merge(o.overUnder)
	acc.expectedWins += o.expectedWins

	acc.meta.GamesProcessed += o.meta.GamesProcessed
	acc.meta.QuotedLines += o.meta.QuotedLines
	acc.meta.EstimatedLines += o.meta.EstimatedLines
	acc.meta.NoScoreGames += o.meta.NoScoreGames
	acc.meta.SkippedGames += o.meta.SkippedGames
	acc.meta.DuplicateGames += o.meta.DuplicateGames
	acc.meta.AmbiguousGames = append(acc.meta.AmbiguousGames, o.meta.AmbiguousGames...)
	acc.meta.SeasonsMissing = append(acc.meta.SeasonsMissing, o.meta.SeasonsMissing...)
	for p, n := range o.meta.ProviderCounts {
		acc.meta.ProviderCounts[p] += n
	}
}

// Metrics finalizes the report. The accumulator may keep receiving records afterwards.
func (acc *Accumulator) Metrics() Metrics {
	overall := acc.agg.Overall()
	yearly := acc.agg.Yearly()

	seasons := make([]int, 0, len(yearly))
	for _, y := range yearly {
		seasons = append(seasons, y.Season)
	}

	records := append([]Record{}, acc.records...)
	sort.SliceStable(records, func(i, j int) bool { return recordBefore(records[i], records[j]) })

	meta := acc.meta
	meta.ProviderCounts = make(map[string]int, len(acc.meta.ProviderCounts))
	for p, n := range acc.meta.ProviderCounts {
		meta.ProviderCounts[p] = n
	}
	meta.AmbiguousGames = append([]string(nil), acc.meta.AmbiguousGames...)
	sort.Strings(meta.AmbiguousGames)
	meta.SeasonsMissing = append([]int(nil), acc.meta.SeasonsMissing...)
	sort.Ints(meta.SeasonsMissing)

	m := Metrics{
		Team:          acc.team,
		Seasons:       seasons,
		OverallRecord: overall,
		WinPercentage: mathutil.Round(overall.WinPct(), 2),
		ROI:           ROI(overall),
		Situational:   acc.agg.Situational(),
		YearlyData:    yearly,
		BestWorst:     acc.tracker.BestWorst(),
		StraightUp:    acc.straightUp,
		OverUnder:     acc.overUnder,
		ExpectedWins:  mathutil.Round(acc.expectedWins, 2),
		Records:       records,
		Metadata:      meta,
	}
	if meta.GamesProcessed > 0 {
		m.AvgSpread = mathutil.Round(acc.spreadSum/float64(meta.GamesProcessed), 2)
	}
	if acc.scored > 0 {
		m.AvgMargin = mathutil.Round(acc.marginSum/float64(acc.scored), 2)
	}
	return m
}

// recordBefore orders the per-game listing chronologically
func recordBefore(a, b Record) bool {
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.GameID < b.GameID
}

// ROI is the return on flat $100 spread bets at -110, as a percent of total wagered.
// Pushes are wagered and refunded.
func ROI(t Tally) float64 {
	if t.Total() == 0 {
		return 0
	}

	winProfit := odds.ProfitOnStake(odds.StandardSpreadPrice, unitStake)
	profit := winProfit.Mul(decimal.NewFromInt(int64(t.Wins))).
		Sub(unitStake.Mul(decimal.NewFromInt(int64(t.Losses))))
	wagered := unitStake.Mul(decimal.NewFromInt(int64(t.Total())))

	roi, _ := profit.Div(wagered).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return roi
}

// Builder runs the full pipeline for one team over materialized inputs
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder. Zero-valued pieces of opts fall back to defaults.
func NewBuilder(opts Options) *Builder {
	def := DefaultOptions()
	if opts.ProviderPriority == nil {
		opts.ProviderPriority = def.ProviderPriority
	}
	if opts.Reconciler == (Reconciler{}) {
		opts.Reconciler = def.Reconciler
	}
	if opts.Limits == nil {
		opts.Limits = def.Limits
	}
	if opts.Matcher == nil {
		opts.Matcher = def.Matcher
	}
	return &Builder{opts: opts}
}

// Accumulate reconciles every game involving team into a new accumulator.
// Games outside seasons are ignored; an empty seasons list keeps everything.
// Each game is counted once even when several sources deliver it.
func (b *Builder) Accumulate(team string, games []Game, lines []Line, seasons []int) *Accumulator {
	acc := NewAccumulator(team, *b.opts.Limits)

	wanted := make(map[int]bool, len(seasons))
	for _, s := range seasons {
		wanted[s] = true
		acc.Season(s)
	}

	inSeason := games
	if len(wanted) > 0 {
		inSeason = make([]Game, 0, len(games))
		for _, g := range games {
			if wanted[g.Season] {
				inSeason = append(inSeason, g)
			}
		}
	}
	unique, dropped := dedupeGames(inSeason)
	acc.Duplicates(dropped)

	idx := NewLineIndex(lines)
	for _, g := range unique {
		isHome, err := b.opts.Matcher.Side(team, g)
		switch {
		case errors.Is(err, ErrAmbiguousTeamMatch):
			acc.Ambiguous(g.ID)
			continue
		case err != nil:
			acc.Skip()
			continue
		}

		var line *Line
		if l, ok := SelectLine(idx.LinesFor(g), b.opts.ProviderPriority); ok {
			line = &l
		}
		acc.Add(b.opts.Reconciler.Reconcile(g, team, isHome, line))
	}
	return acc
}

// dedupeGames drops repeated games, matching on ID and then on match key.
// The first copy wins; a later copy only fills in scores the first one lacked.
func dedupeGames(games []Game) ([]Game, int) {
	out := make([]Game, 0, len(games))
	byID := make(map[string]int, len(games))
	byKey := make(map[MatchKey]int, len(games))
	dropped := 0

	for _, g := range games {
		i, seen := -1, false
		if g.ID != "" {
			i, seen = byID[g.ID]
		}
		if !seen {
			i, seen = byKey[g.MatchKey()]
		}

		if !seen {
			out = append(out, g)
			i = len(out) - 1
			byKey[g.MatchKey()] = i
		} else {
			dropped++
			if (out[i].HomeScore == nil || out[i].AwayScore == nil) && g.HomeScore != nil && g.AwayScore != nil {
				out[i].HomeScore, out[i].AwayScore = g.HomeScore, g.AwayScore
			}
		}
		if _, ok := byID[g.ID]; g.ID != "" && !ok {
			byID[g.ID] = i
		}
	}
	return out, dropped
}

// Build produces the finished report
func (b *Builder) Build(team string, games []Game, lines []Line, seasons []int) (Metrics, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return Metrics{}, ErrEmptyTeam
	}
	return b.Accumulate(team, games, lines, seasons).Metrics(), nil
}

// BuildReport is the one-call entry point with default options
func BuildReport(team string, games []Game, lines []Line, seasons []int) (Metrics, error) {
	return NewBuilder(DefaultOptions()).Build(team, games, lines, seasons)
}
