package ats

import "testing"

func graded(season int, isHome, conf bool, spread float64, margin int) Record {
	m := margin
	team, opp := 28+m, 28
	if m < 0 {
		team, opp = 28, 28-m
	}
	rec := Record{
		GameID:         "g",
		Season:         season,
		SeasonType:     SeasonRegular,
		IsHome:         isHome,
		ConferenceGame: conf,
		TeamScore:      &team,
		OpponentScore:  &opp,
		ActualMargin:   &m,
		Spread:         spread,
		SpreadSource:   SpreadQuoted,
	}
	rec.ATSMargin, rec.Result = Classify(rec.ActualMargin, rec.Spread, DefaultPushThreshold)
	return rec
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		spread float64
		want   SpreadBucket
	}{
		{0, BucketSmall},
		{-3, BucketSmall},
		{3, BucketSmall},
		{-3.5, BucketMedium},
		{7, BucketMedium},
		{7.5, BucketLarge},
		{-14, BucketLarge},
		{14.5, BucketHuge},
		{-35, BucketHuge},
	}

	for _, tt := range tests {
		if got := BucketFor(tt.spread); got != tt.want {
			t.Errorf("BucketFor(%v) = %s, want %s", tt.spread, got, tt.want)
		}
	}
}

func TestTallyWinPct(t *testing.T) {
	if got := (Tally{}).WinPct(); got != 0 {
		t.Errorf("empty WinPct = %v, want 0", got)
	}
	if got := (Tally{Pushes: 3}).WinPct(); got != 0 {
		t.Errorf("all-push WinPct = %v, want 0", got)
	}
	if got := (Tally{Wins: 3, Losses: 1, Pushes: 4}).WinPct(); got != 75 {
		t.Errorf("WinPct = %v, want 75", got)
	}
}

func sumDimension(ts ...Tally) Tally {
	var out Tally
	for _, t := range ts {
		out.Merge(t)
	}
	return out
}

func TestAggregatorDimensionsSumToOverall(t *testing.T) {
	recs := []Record{
		graded(2021, true, true, -7, 10),
		graded(2021, false, false, 3, -1),
		graded(2021, true, false, -21, 14),
		graded(2022, false, true, 10.5, -3),
		graded(2022, true, true, -3, 3),
		graded(2022, false, false, 16, -30),
		graded(2023, true, true, 0, 0),
	}
	noScore := Record{GameID: "ns", Season: 2023, Spread: -4, Result: ResultNoScore, IsHome: true}

	agg := NewAggregator()
	for _, r := range recs {
		agg.Add(r)
	}
	agg.Add(noScore)

	overall := agg.Overall()
	if overall.Total() != len(recs) {
		t.Fatalf("overall total = %d, want %d", overall.Total(), len(recs))
	}

	s := agg.Situational()
	dims := map[string]Tally{
		"home/away":         sumDimension(s.Home, s.Away),
		"favorite/underdog": sumDimension(s.Favorite, s.Underdog),
		"spread size":       sumDimension(s.SpreadSmall, s.SpreadMedium, s.SpreadLarge, s.SpreadHuge),
		"conference":        sumDimension(s.Conference, s.NonConference),
		"season type":       sumDimension(s.Regular, s.Postseason),
		"line source":       sumDimension(s.Quoted, s.Estimated),
	}
	for name, got := range dims {
		if got != overall {
			t.Errorf("%s sums to %+v, want %+v", name, got, overall)
		}
	}

	var yearly Tally
	for _, y := range agg.Yearly() {
		yearly.Merge(y.Record)
	}
	if yearly != overall {
		t.Errorf("yearly sums to %+v, want %+v", yearly, overall)
	}
}

func TestAggregatorYearlySorted(t *testing.T) {
	agg := NewAggregator()
	for _, season := range []int{2023, 2019, 2021} {
		agg.Add(graded(season, true, false, -3, 7))
	}
	agg.Touch(2020)

	yearly := agg.Yearly()
	want := []int{2019, 2020, 2021, 2023}
	if len(yearly) != len(want) {
		t.Fatalf("got %d seasons, want %d", len(yearly), len(want))
	}
	for i, y := range yearly {
		if y.Season != want[i] {
			t.Errorf("yearly[%d].Season = %d, want %d", i, y.Season, want[i])
		}
	}
	if yearly[1].Games != 0 || yearly[1].Record.Total() != 0 {
		t.Errorf("touched season should be empty, got %+v", yearly[1])
	}
}

func TestAggregatorMergeMatchesSinglePass(t *testing.T) {
	recs := []Record{
		graded(2021, true, true, -7, 10),
		graded(2021, false, false, 3, -1),
		graded(2022, false, true, 10.5, -3),
		graded(2022, true, true, -3, 3),
	}

	single := NewAggregator()
	for _, r := range recs {
		single.Add(r)
	}

	a, b := NewAggregator(), NewAggregator()
	a.Add(recs[2])
	a.Add(recs[3])
	b.Add(recs[0])
	b.Add(recs[1])
	a.Merge(b)

	if a.Overall() != single.Overall() {
		t.Errorf("merged overall %+v, want %+v", a.Overall(), single.Overall())
	}
	if a.Situational() != single.Situational() {
		t.Errorf("merged situational differs: %+v vs %+v", a.Situational(), single.Situational())
	}
	ya, ys := a.Yearly(), single.Yearly()
	for i := range ys {
		if ya[i] != ys[i] {
			t.Errorf("yearly[%d] = %+v, want %+v", i, ya[i], ys[i])
		}
	}
}
