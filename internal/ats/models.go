package ats

import (
	"fmt"
	"time"
)

// SeasonType distinguishes regular season games from bowls and playoffs
type SeasonType string

const (
	SeasonRegular    SeasonType = "regular"
	SeasonPostseason SeasonType = "postseason"
)

// SpreadSource records whether a record's spread was quoted by a book or estimated
type SpreadSource string

const (
	SpreadQuoted    SpreadSource = "QUOTED"
	SpreadEstimated SpreadSource = "ESTIMATED"
)

// Result is the outcome of a game against the spread
type Result string

const (
	ResultCover   Result = "COVER"
	ResultLoss    Result = "LOSS"
	ResultPush    Result = "PUSH"
	ResultNoScore Result = "NO_SCORE"
)

// TotalResult is the outcome of a game against the over/under
type TotalResult string

const (
	TotalOver   TotalResult = "OVER"
	TotalUnder  TotalResult = "UNDER"
	TotalPush   TotalResult = "PUSH"
	TotalNoLine TotalResult = "NO_LINE"
)

// Game is a single scheduled or completed game as delivered by a game source.
// A nil score means the game has not concluded.
type Game struct {
	ID             string     `json:"id"`
	Season         int        `json:"season"`
	Week           *int       `json:"week,omitempty"`
	SeasonType     SeasonType `json:"season_type"`
	StartDate      time.Time  `json:"start_date"`
	HomeTeam       string     `json:"home_team"`
	AwayTeam       string     `json:"away_team"`
	HomeScore      *int       `json:"home_score,omitempty"`
	AwayScore      *int       `json:"away_score,omitempty"`
	ConferenceGame bool       `json:"conference_game"`
	HomeConference string     `json:"home_conference,omitempty"`
	AwayConference string     `json:"away_conference,omitempty"`
}

// MatchKey returns the secondary identity used when IDs differ across sources
func (g Game) MatchKey() MatchKey {
	return newMatchKey(g.Season, g.Week, g.HomeTeam, g.AwayTeam)
}

// Line is one provider's quote for a game. Spread is from the home team's perspective.
type Line struct {
	GameID        string   `json:"game_id"`
	Season        int      `json:"season,omitempty"`
	Week          *int     `json:"week,omitempty"`
	HomeTeam      string   `json:"home_team,omitempty"`
	AwayTeam      string   `json:"away_team,omitempty"`
	Provider      string   `json:"provider"`
	Spread        float64  `json:"spread"`
	OverUnder     *float64 `json:"over_under,omitempty"`
	HomeMoneyline *int     `json:"home_moneyline,omitempty"`
	AwayMoneyline *int     `json:"away_moneyline,omitempty"`
}

// MatchKey returns the secondary identity of the game this line quotes.
// The second return is false when the line does not carry enough to build one.
func (l Line) MatchKey() (MatchKey, bool) {
	if l.Season == 0 || l.HomeTeam == "" || l.AwayTeam == "" {
		return MatchKey{}, false
	}
	return newMatchKey(l.Season, l.Week, l.HomeTeam, l.AwayTeam), true
}

// MatchKey is the (season, week, home, away) tuple.
// Week is -1 for entries without a true week.
type MatchKey struct {
	Season   int
	Week     int
	HomeTeam string
	AwayTeam string
}

func newMatchKey(season int, week *int, home, away string) MatchKey {
	w := -1
	if week != nil {
		w = *week
	}
	return MatchKey{Season: season, Week: w, HomeTeam: home, AwayTeam: away}
}

// Record is the reconciled view of one game from one team's perspective
type Record struct {
	GameID         string     `json:"game_id"`
	Season         int        `json:"season"`
	Week           *int       `json:"week,omitempty"`
	SeasonType     SeasonType `json:"season_type"`
	Date           time.Time  `json:"date"`
	Team           string     `json:"team"`
	Opponent       string     `json:"opponent"`
	IsHome         bool       `json:"is_home"`
	ConferenceGame bool       `json:"conference_game"`

	// Both set or both nil
	TeamScore     *int `json:"team_score,omitempty"`
	OpponentScore *int `json:"opponent_score,omitempty"`
	ActualMargin  *int `json:"actual_margin,omitempty"`

	// Spread is from the team's perspective: negative means the team was favored
	Spread       float64      `json:"spread"`
	SpreadSource SpreadSource `json:"spread_source"`
	Provider     string       `json:"provider,omitempty"`

	ATSMargin *float64 `json:"ats_margin,omitempty"`
	Result    Result   `json:"ats_result"`

	OverUnder   *float64    `json:"over_under,omitempty"`
	TotalResult TotalResult `json:"total_result"`

	// WinProbability is the pregame chance the team wins outright
	WinProbability float64 `json:"win_probability"`
}

// HasScore reports whether both scores are known
func (r Record) HasScore() bool {
	return r.TeamScore != nil && r.OpponentScore != nil
}

// IsFavorite reports whether the team was favored (negative spread)
func (r Record) IsFavorite() bool {
	return r.Spread < 0
}

// ScoreString formats the final score with the team's points first, e.g. "31-17"
func (r Record) ScoreString() string {
	if !r.HasScore() {
		return ""
	}
	return fmt.Sprintf("%d-%d", *r.TeamScore, *r.OpponentScore)
}
