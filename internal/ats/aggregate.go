package ats

import (
	"math"
	"sort"
)

// Tally is a win/loss/push count
type Tally struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Pushes int `json:"pushes"`
}

// Add counts one result. NO_SCORE is ignored.
func (t *Tally) Add(r Result) {
	switch r {
	case ResultCover:
		t.Wins++
	case ResultLoss:
		t.Losses++
	case ResultPush:
		t.Pushes++
	}
}

// Merge adds another tally into t
func (t *Tally) Merge(o Tally) {
	t.Wins += o.Wins
	t.Losses += o.Losses
	t.Pushes += o.Pushes
}

// Decided is wins plus losses
func (t Tally) Decided() int {
	return t.Wins + t.Losses
}

// Total is every graded game including pushes
func (t Tally) Total() int {
	return t.Wins + t.Losses + t.Pushes
}

// WinPct is wins over decided games as a percentage, 0 when nothing is decided
func (t Tally) WinPct() float64 {
	if t.Decided() == 0 {
		return 0
	}
	return float64(t.Wins) / float64(t.Decided()) * 100
}

// SpreadBucket groups games by the size of |spread|
type SpreadBucket string

const (
	BucketSmall  SpreadBucket = "small"  // [0, 3]
	BucketMedium SpreadBucket = "medium" // (3, 7]
	BucketLarge  SpreadBucket = "large"  // (7, 14]
	BucketHuge   SpreadBucket = "huge"   // (14, ∞)
)

// BucketFor returns the size bucket for a spread
func BucketFor(spread float64) SpreadBucket {
	abs := math.Abs(spread)
	switch {
	case abs <= 3:
		return BucketSmall
	case abs <= 7:
		return BucketMedium
	case abs <= 14:
		return BucketLarge
	default:
		return BucketHuge
	}
}

// Situational holds one tally per bucket of each dimension.
// Every graded record lands in exactly one bucket per dimension.
type Situational struct {
	Home     Tally `json:"home"`
	Away     Tally `json:"away"`
	Favorite Tally `json:"favorite"`
	Underdog Tally `json:"underdog"`

	SpreadSmall  Tally `json:"spread_small"`
	SpreadMedium Tally `json:"spread_medium"`
	SpreadLarge  Tally `json:"spread_large"`
	SpreadHuge   Tally `json:"spread_huge"`

	Conference    Tally `json:"conference"`
	NonConference Tally `json:"non_conference"`

	Regular    Tally `json:"regular_season"`
	Postseason Tally `json:"postseason"`

	Quoted    Tally `json:"quoted_line"`
	Estimated Tally `json:"estimated_line"`
}

func (s *Situational) add(rec Record) {
	if rec.IsHome {
		s.Home.Add(rec.Result)
	} else {
		s.Away.Add(rec.Result)
	}

	if rec.IsFavorite() {
		s.Favorite.Add(rec.Result)
	} else {
		s.Underdog.Add(rec.Result)
	}

	switch BucketFor(rec.Spread) {
	case BucketSmall:
		s.SpreadSmall.Add(rec.Result)
	case BucketMedium:
		s.SpreadMedium.Add(rec.Result)
	case BucketLarge:
		s.SpreadLarge.Add(rec.Result)
	default:
		s.SpreadHuge.Add(rec.Result)
	}

	if rec.ConferenceGame {
		s.Conference.Add(rec.Result)
	} else {
		s.NonConference.Add(rec.Result)
	}

	if rec.SeasonType == SeasonPostseason {
		s.Postseason.Add(rec.Result)
	} else {
		s.Regular.Add(rec.Result)
	}

	if rec.SpreadSource == SpreadEstimated {
		s.Estimated.Add(rec.Result)
	} else {
		s.Quoted.Add(rec.Result)
	}
}

// Merge adds every bucket of o into s
func (s *Situational) Merge(o Situational) {
	s.Home.Merge(o.Home)
	s.Away.Merge(o.Away)
	s.Favorite.Merge(o.Favorite)
	s.Underdog.Merge(o.Underdog)
	s.SpreadSmall.Merge(o.SpreadSmall)
	s.SpreadMedium.Merge(o.SpreadMedium)
	s.SpreadLarge.Merge(o.SpreadLarge)
	s.SpreadHuge.Merge(o.SpreadHuge)
	s.Conference.Merge(o.Conference)
	s.NonConference.Merge(o.NonConference)
	s.Regular.Merge(o.Regular)
	s.Postseason.Merge(o.Postseason)
	s.Quoted.Merge(o.Quoted)
	s.Estimated.Merge(o.Estimated)
}

// SeasonSummary is one row of the yearly rollup
type SeasonSummary struct {
	Season    int     `json:"season"`
	Record    Tally   `json:"record"`
	WinPct    float64 `json:"win_pct"`
	Games     int     `json:"games"`
	AvgSpread float64 `json:"avg_spread"`
	AvgMargin float64 `json:"avg_margin"`
}

type seasonAcc struct {
	tally     Tally
	games     int
	spreadSum float64
	marginSum float64
	scored    int
}

// Aggregator is the situational reducer. The zero value is not usable; call NewAggregator.
type Aggregator struct {
	overall     Tally
	situational Situational
	seasons     map[int]*seasonAcc
}

// NewAggregator returns an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{seasons: make(map[int]*seasonAcc)}
}

// Add folds one record in. Every record counts toward its season's game count;
// only graded records touch the tallies.
func (a *Aggregator) Add(rec Record) {
	sa := a.season(rec.Season)
	sa.games++
	sa.spreadSum += math.Abs(rec.Spread)

	if rec.Result == ResultNoScore {
		return
	}

	a.overall.Add(rec.Result)
	a.situational.add(rec)
	sa.tally.Add(rec.Result)
	if rec.ATSMargin != nil {
		sa.marginSum += *rec.ATSMargin
		sa.scored++
	}
}

// Touch makes a season appear in the rollup even with no games
func (a *Aggregator) Touch(season int) {
	a.season(season)
}

func (a *Aggregator) season(season int) *seasonAcc {
	sa, ok := a.seasons[season]
	if !ok {
		sa = &seasonAcc{}
		a.seasons[season] = sa
	}
	return sa
}

// Merge folds another aggregator in. Order of merging does not matter.
func (a *Aggregator) Merge(o *Aggregator) {
	a.overall.Merge(o.overall)
	a.situational.Merge(o.situational)
	for season, osa := range o.seasons {
		sa := a.season(season)
		sa.tally.Merge(osa.tally)
		sa.games += osa.games
		sa.spreadSum += osa.spreadSum
		sa.marginSum += osa.marginSum
		sa.scored += osa.scored
	}
}

// Overall returns the combined tally
func (a *Aggregator) Overall() Tally {
	return a.overall
}

// Situational returns the per-dimension tallies
func (a *Aggregator) Situational() Situational {
	return a.situational
}

// Yearly returns the season rollup sorted ascending by season
func (a *Aggregator) Yearly() []SeasonSummary {
	out := make([]SeasonSummary, 0, len(a.seasons))
	for season, sa := range a.seasons {
		row := SeasonSummary{
			Season: season,
			Record: sa.tally,
			WinPct: sa.tally.WinPct(),
			Games:  sa.games,
		}
		if sa.games > 0 {
			row.AvgSpread = sa.spreadSum / float64(sa.games)
		}
		if sa.scored > 0 {
			row.AvgMargin = sa.marginSum / float64(sa.scored)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out
}
