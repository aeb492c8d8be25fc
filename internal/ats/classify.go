package ats

import "math"

// DefaultPushThreshold absorbs float noise; real margins sit on a half-point grid
const DefaultPushThreshold = 0.5

// Classify grades a game against the spread.
// Both values are from the team's perspective; spread is negative when the team was favored.
//
//	atsMargin = actualMargin + spread
//
// A favorite of -7 that wins by 7 lands on 0 and pushes. A missing margin is
// NO_SCORE before anything else is evaluated.
func Classify(actualMargin *int, spread, pushThreshold float64) (*float64, Result) {
	if actualMargin == nil {
		return nil, ResultNoScore
	}

	m := float64(*actualMargin) + spread
	return &m, resultForMargin(m, pushThreshold)
}

// resultForMargin maps an ATS margin to a result.
// Only margins strictly inside the threshold push; the sign decides the rest.
// A margin of exactly +threshold is a cover: a -6.5 favorite that wins by 7
// lands on +0.5 and cashes, as it would at a sportsbook.
func resultForMargin(m, pushThreshold float64) Result {
	switch {
	case math.Abs(m) < pushThreshold:
		return ResultPush
	case m > 0:
		return ResultCover
	default:
		return ResultLoss
	}
}

// ClassifyTotal grades combined points against the over/under
func ClassifyTotal(teamScore, opponentScore *int, overUnder *float64, pushThreshold float64) TotalResult {
	if teamScore == nil || opponentScore == nil || overUnder == nil {
		return TotalNoLine
	}

	diff := float64(*teamScore+*opponentScore) - *overUnder
	switch {
	case math.Abs(diff) < pushThreshold:
		return TotalPush
	case diff > 0:
		return TotalOver
	default:
		return TotalUnder
	}
}
