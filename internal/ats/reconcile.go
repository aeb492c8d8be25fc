package ats

import (
	"ats-history/internal/mathutil"
	"ats-history/internal/odds"
)

// MarginStdDev is the spread of college football results around the closing line.
// Used only to turn a spread into a win probability when no moneyline is quoted.
const MarginStdDev = 14.0

// Reconciler merges a game with its canonical line into a Record
type Reconciler struct {
	Estimator     Estimator
	PushThreshold float64
}

// DefaultReconciler uses the standard estimator and push threshold
func DefaultReconciler() Reconciler {
	return Reconciler{
		Estimator:     DefaultEstimator(),
		PushThreshold: DefaultPushThreshold,
	}
}

// Reconcile builds the team's view of g. A nil line means no provider quoted the
// game and the spread is estimated.
func (rc Reconciler) Reconcile(g Game, team string, isHome bool, line *Line) Record {
	rec := Record{
		GameID:         g.ID,
		Season:         g.Season,
		Week:           g.Week,
		SeasonType:     g.SeasonType,
		Date:           g.StartDate,
		Team:           team,
		IsHome:         isHome,
		ConferenceGame: g.ConferenceGame,
	}

	teamScore, oppScore := g.AwayScore, g.HomeScore
	rec.Opponent = g.HomeTeam
	if isHome {
		teamScore, oppScore = g.HomeScore, g.AwayScore
		rec.Opponent = g.AwayTeam
	}

	// Both or neither; a zero is a real score
	if teamScore != nil && oppScore != nil {
		ts, opp := *teamScore, *oppScore
		margin := ts - opp
		rec.TeamScore, rec.OpponentScore, rec.ActualMargin = &ts, &opp, &margin
	}

	if line != nil {
		rec.Spread = teamSpread(line.Spread, isHome)
		rec.SpreadSource = SpreadQuoted
		rec.Provider = line.Provider
		rec.OverUnder = line.OverUnder
	} else {
		rec.Spread = rc.Estimator.Estimate(rec.TeamScore, rec.OpponentScore, isHome)
		rec.SpreadSource = SpreadEstimated
	}

	rec.ATSMargin, rec.Result = Classify(rec.ActualMargin, rec.Spread, rc.PushThreshold)
	rec.TotalResult = ClassifyTotal(rec.TeamScore, rec.OpponentScore, rec.OverUnder, rc.PushThreshold)
	rec.WinProbability = winProbability(rec.Spread, line, isHome)

	return rec
}

// teamSpread flips a home-perspective spread to the team's side.
// Adding zero normalizes -0 to 0.
func teamSpread(homeSpread float64, isHome bool) float64 {
	if isHome {
		return homeSpread + 0
	}
	return -homeSpread + 0
}

// winProbability prefers the vig-free moneyline and falls back to the spread
func winProbability(spread float64, line *Line, isHome bool) float64 {
	if line != nil && line.HomeMoneyline != nil && line.AwayMoneyline != nil &&
		*line.HomeMoneyline != 0 && *line.AwayMoneyline != 0 {
		home, away := odds.RemoveVigPowerFromAmerican(*line.HomeMoneyline, *line.AwayMoneyline)
		if home > 0 && away > 0 {
			if isHome {
				return home
			}
			return away
		}
	}
	return mathutil.NormalCDF(-spread / MarginStdDev)
}
