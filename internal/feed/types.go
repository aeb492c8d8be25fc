package feed

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"ats-history/internal/ats"
)

// GameResponse is one game as returned by the games endpoint.
// Upstream dumps disagree on key style, so both camelCase and snake_case are accepted.
type GameResponse struct {
	ID         flexID `json:"id"`
	Season     int    `json:"season"`
	Week       *int   `json:"week"`
	SeasonType string `json:"seasonType"`
	StartDate  string `json:"startDate"`
	Completed  *bool  `json:"completed"`

	HomeTeam       string `json:"homeTeam"`
	HomePoints     *int   `json:"homePoints"`
	HomeScore      *int   `json:"homeScore"`
	HomeConference string `json:"homeConference"`
	AwayTeam       string `json:"awayTeam"`
	AwayPoints     *int   `json:"awayPoints"`
	AwayScore      *int   `json:"awayScore"`
	AwayConference string `json:"awayConference"`
	ConferenceGame *bool  `json:"conferenceGame"`

	SeasonTypeSnake     string `json:"season_type"`
	StartDateSnake      string `json:"start_date"`
	HomeTeamSnake       string `json:"home_team"`
	HomePointsSnake     *int   `json:"home_points"`
	HomeScoreSnake      *int   `json:"home_score"`
	HomeConferenceSnake string `json:"home_conference"`
	AwayTeamSnake       string `json:"away_team"`
	AwayPointsSnake     *int   `json:"away_points"`
	AwayScoreSnake      *int   `json:"away_score"`
	AwayConferenceSnake string `json:"away_conference"`
	ConferenceGameSnake *bool  `json:"conference_game"`
}

// GameLinesResponse is one game with every provider's quote, as returned by the lines endpoint
type GameLinesResponse struct {
	ID       flexID         `json:"id"`
	Season   int            `json:"season"`
	Week     *int           `json:"week"`
	HomeTeam string         `json:"homeTeam"`
	AwayTeam string         `json:"awayTeam"`
	Lines    []LineResponse `json:"lines"`

	HomeTeamSnake string `json:"home_team"`
	AwayTeamSnake string `json:"away_team"`
}

// LineResponse is a single provider's quote. Spread is from the home side.
type LineResponse struct {
	Provider      string    `json:"provider"`
	Spread        flexFloat `json:"spread"`
	OverUnder     flexFloat `json:"overUnder"`
	HomeMoneyline flexFloat `json:"homeMoneyline"`
	AwayMoneyline flexFloat `json:"awayMoneyline"`

	OverUnderSnake     flexFloat `json:"over_under"`
	HomeMoneylineSnake flexFloat `json:"home_moneyline"`
	AwayMoneylineSnake flexFloat `json:"away_moneyline"`
}

// Game converts the response into the canonical game
func (r GameResponse) Game() ats.Game {
	g := ats.Game{
		ID:             r.ID.String(),
		Season:         r.Season,
		Week:           r.Week,
		SeasonType:     seasonType(firstString(r.SeasonType, r.SeasonTypeSnake)),
		StartDate:      parseStartDate(firstString(r.StartDate, r.StartDateSnake)),
		HomeTeam:       strings.TrimSpace(firstString(r.HomeTeam, r.HomeTeamSnake)),
		AwayTeam:       strings.TrimSpace(firstString(r.AwayTeam, r.AwayTeamSnake)),
		HomeConference: firstString(r.HomeConference, r.HomeConferenceSnake),
		AwayConference: firstString(r.AwayConference, r.AwayConferenceSnake),
	}

	if cg := firstBool(r.ConferenceGame, r.ConferenceGameSnake); cg != nil {
		g.ConferenceGame = *cg
	} else {
		g.ConferenceGame = g.HomeConference != "" && g.HomeConference == g.AwayConference
	}

	// An explicitly unfinished game has no result even if the feed zero-fills points
	if r.Completed == nil || *r.Completed {
		g.HomeScore = firstInt(r.HomePoints, r.HomePointsSnake, r.HomeScore, r.HomeScoreSnake)
		g.AwayScore = firstInt(r.AwayPoints, r.AwayPointsSnake, r.AwayScore, r.AwayScoreSnake)
	}
	return g
}

// CanonicalLines flattens the provider quotes. Quotes without a spread are dropped.
func (r GameLinesResponse) CanonicalLines() []ats.Line {
	out := make([]ats.Line, 0, len(r.Lines))
	for _, l := range r.Lines {
		if !l.Spread.Valid {
			continue
		}
		out = append(out, ats.Line{
			GameID:        r.ID.String(),
			Season:        r.Season,
			Week:          r.Week,
			HomeTeam:      strings.TrimSpace(firstString(r.HomeTeam, r.HomeTeamSnake)),
			AwayTeam:      strings.TrimSpace(firstString(r.AwayTeam, r.AwayTeamSnake)),
			Provider:      strings.TrimSpace(l.Provider),
			Spread:        l.Spread.Value,
			OverUnder:     firstFloat(l.OverUnder, l.OverUnderSnake),
			HomeMoneyline: moneyline(l.HomeMoneyline, l.HomeMoneylineSnake),
			AwayMoneyline: moneyline(l.AwayMoneyline, l.AwayMoneylineSnake),
		})
	}
	return out
}

func seasonType(s string) ats.SeasonType {
	if strings.EqualFold(strings.TrimSpace(s), string(ats.SeasonPostseason)) {
		return ats.SeasonPostseason
	}
	return ats.SeasonRegular
}

// parseStartDate accepts RFC 3339 (with or without fractional seconds) or a bare date.
// Unparseable values yield the zero time.
func parseStartDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(vals ...*int) *int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstBool(vals ...*bool) *bool {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstFloat(vals ...flexFloat) *float64 {
	for _, v := range vals {
		if v.Valid {
			f := v.Value
			return &f
		}
	}
	return nil
}

func moneyline(vals ...flexFloat) *int {
	f := firstFloat(vals...)
	if f == nil || *f == 0 {
		return nil
	}
	n := int(*f)
	return &n
}

// flexFloat decodes a number that may arrive as a JSON number, a numeric string, or null
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		f.Value, f.Valid = v, true
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// flexID decodes an identifier that may be a JSON number or string
type flexID string

func (id *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

func (id flexID) String() string {
	return string(id)
}
