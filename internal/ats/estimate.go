package ats

const (
	// DefaultDampingFactor pulls the observed margin back toward a pick'em line
	DefaultDampingFactor = 0.7

	// DefaultHomeFieldAdjustment is the points credited to the home side
	DefaultHomeFieldAdjustment = 2.5
)

// Estimator produces a heuristic spread for games with no quoted line.
// It is a fallback, not a model.
type Estimator struct {
	DampingFactor       float64
	HomeFieldAdjustment float64
}

// DefaultEstimator returns an Estimator with the standard constants
func DefaultEstimator() Estimator {
	return Estimator{
		DampingFactor:       DefaultDampingFactor,
		HomeFieldAdjustment: DefaultHomeFieldAdjustment,
	}
}

// Estimate returns a spread from the team's perspective.
// Home teams get the adjustment subtracted (skewing toward favored), away teams added.
// Without both scores only the home-field term is used.
func (e Estimator) Estimate(teamScore, opponentScore *int, isHome bool) float64 {
	hfa := e.HomeFieldAdjustment
	if isHome {
		hfa = -hfa
	}

	if teamScore == nil || opponentScore == nil {
		return hfa
	}

	rawMargin := float64(*teamScore - *opponentScore)
	return rawMargin*e.DampingFactor + hfa
}
