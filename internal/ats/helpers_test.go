package ats

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func game(id string, season int, home, away string, homeScore, awayScore *int) Game {
	return Game{
		ID:         id,
		Season:     season,
		Week:       intPtr(1),
		SeasonType: SeasonRegular,
		HomeTeam:   home,
		AwayTeam:   away,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
	}
}
