package ats

import (
	"sort"
	"time"
)

const (
	DefaultTopCovers = 10
	DefaultTopBeats  = 10
	DefaultTopUpsets = 5

	// BlowoutMargin is how far past the number a game must land to be notable
	BlowoutMargin = 14.0

	// UpsetSpread is the minimum underdog spread for the upsets list
	UpsetSpread = 10.0
)

// Notable is a display summary of one standout game
type Notable struct {
	GameID       string    `json:"game_id"`
	Opponent     string    `json:"opponent"`
	Date         time.Time `json:"date"`
	Season       int       `json:"season"`
	Week         *int      `json:"week,omitempty"`
	IsHome       bool      `json:"is_home"`
	Spread       float64   `json:"spread"`
	Score        string    `json:"score"`
	ActualMargin int       `json:"actual_margin"`
	ATSMargin    float64   `json:"ats_margin"`
}

// BestWorst holds the three notable lists
type BestWorst struct {
	BestCovers    []Notable `json:"best_covers"`
	WorstBeats    []Notable `json:"worst_beats"`
	BiggestUpsets []Notable `json:"biggest_upsets"`
}

// TrackerLimits caps each list
type TrackerLimits struct {
	Covers int
	Beats  int
	Upsets int
}

// DefaultTrackerLimits returns 10/10/5
func DefaultTrackerLimits() TrackerLimits {
	return TrackerLimits{Covers: DefaultTopCovers, Beats: DefaultTopBeats, Upsets: DefaultTopUpsets}
}

// Tracker keeps bounded, sorted top-N lists while records stream through
type Tracker struct {
	limits TrackerLimits
	covers []Notable
	beats  []Notable
	upsets []Notable
}

// NewTracker returns an empty tracker
func NewTracker(limits TrackerLimits) *Tracker {
	return &Tracker{limits: limits}
}

// Add offers a record to each list it qualifies for
func (t *Tracker) Add(rec Record) {
	if rec.ATSMargin == nil || !rec.HasScore() {
		return
	}
	n := notableFrom(rec)

	if n.ATSMargin >= BlowoutMargin {
		t.covers = insertBounded(t.covers, n, t.limits.Covers, coverBefore)
	}
	if n.ATSMargin <= -BlowoutMargin {
		t.beats = insertBounded(t.beats, n, t.limits.Beats, beatBefore)
	}
	if n.Spread >= UpsetSpread && n.ATSMargin > 0 {
		t.upsets = insertBounded(t.upsets, n, t.limits.Upsets, upsetBefore)
	}
}

// Merge offers every entry of o to t
func (t *Tracker) Merge(o *Tracker) {
	for _, n := range o.covers {
		t.covers = insertBounded(t.covers, n, t.limits.Covers, coverBefore)
	}
	for _, n := range o.beats {
		t.beats = insertBounded(t.beats, n, t.limits.Beats, beatBefore)
	}
	for _, n := range o.upsets {
		t.upsets = insertBounded(t.upsets, n, t.limits.Upsets, upsetBefore)
	}
}

// BestWorst returns copies of the current lists
func (t *Tracker) BestWorst() BestWorst {
	return BestWorst{
		BestCovers:    append([]Notable{}, t.covers...),
		WorstBeats:    append([]Notable{}, t.beats...),
		BiggestUpsets: append([]Notable{}, t.upsets...),
	}
}

func notableFrom(rec Record) Notable {
	return Notable{
		GameID:       rec.GameID,
		Opponent:     rec.Opponent,
		Date:         rec.Date,
		Season:       rec.Season,
		Week:         rec.Week,
		IsHome:       rec.IsHome,
		Spread:       rec.Spread,
		Score:        rec.ScoreString(),
		ActualMargin: *rec.ActualMargin,
		ATSMargin:    *rec.ATSMargin,
	}
}

// insertBounded places n in sorted position and trims to limit.
// A limit of zero or less keeps nothing.
func insertBounded(list []Notable, n Notable, limit int, before func(a, b Notable) bool) []Notable {
	if limit <= 0 {
		return list[:0]
	}
	for _, existing := range list {
		if existing.GameID == n.GameID && existing.GameID != "" {
			return list
		}
	}

	i := sort.Search(len(list), func(i int) bool { return before(n, list[i]) })
	if i >= limit {
		return list
	}

	list = append(list, Notable{})
	copy(list[i+1:], list[i:])
	list[i] = n
	if len(list) > limit {
		list = list[:limit]
	}
	return list
}

func coverBefore(a, b Notable) bool {
	if a.ATSMargin != b.ATSMargin {
		return a.ATSMargin > b.ATSMargin
	}
	return tieBefore(a, b)
}

func beatBefore(a, b Notable) bool {
	if a.ATSMargin != b.ATSMargin {
		return a.ATSMargin < b.ATSMargin
	}
	return tieBefore(a, b)
}

func upsetBefore(a, b Notable) bool {
	if a.Spread != b.Spread {
		return a.Spread > b.Spread
	}
	return tieBefore(a, b)
}

// tieBefore orders equal keys by season then game ID so input order never matters
func tieBefore(a, b Notable) bool {
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	return a.GameID < b.GameID
}
