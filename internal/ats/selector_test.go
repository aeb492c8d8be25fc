package ats

import "testing"

func TestSelectLine(t *testing.T) {
	priority := []string{"DraftKings", "Bovada"}

	tests := []struct {
		name     string
		lines    []Line
		want     string
		wantNone bool
	}{
		{
			name:     "Empty",
			lines:    nil,
			wantNone: true,
		},
		{
			name: "Consensus wins over everything",
			lines: []Line{
				{Provider: "Bovada", Spread: -3},
				{Provider: "DraftKings", Spread: -3.5},
				{Provider: "consensus", Spread: -3},
			},
			want: "consensus",
		},
		{
			name: "Consensus match ignores case",
			lines: []Line{
				{Provider: "DraftKings", Spread: -3.5},
				{Provider: " Consensus ", Spread: -3},
			},
			want: " Consensus ",
		},
		{
			name: "Priority order beats input order",
			lines: []Line{
				{Provider: "Bovada", Spread: -3},
				{Provider: "DraftKings", Spread: -3.5},
			},
			want: "DraftKings",
		},
		{
			name: "Falls back to first in input order",
			lines: []Line{
				{Provider: "numberfire", Spread: -4},
				{Provider: "teamrankings", Spread: -4.5},
			},
			want: "numberfire",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectLine(tt.lines, priority)
			if tt.wantNone {
				if ok {
					t.Errorf("expected no line, got %q", got.Provider)
				}
				return
			}
			if !ok {
				t.Fatal("expected a line")
			}
			if got.Provider != tt.want {
				t.Errorf("SelectLine provider = %q, want %q", got.Provider, tt.want)
			}
		})
	}
}

func TestSelectLineDeterministic(t *testing.T) {
	lines := []Line{
		{Provider: "numberfire", Spread: -4},
		{Provider: "Bovada", Spread: -3},
		{Provider: "teamrankings", Spread: -4.5},
	}
	first, _ := SelectLine(lines, DefaultProviderPriority)
	for i := 0; i < 50; i++ {
		got, _ := SelectLine(lines, DefaultProviderPriority)
		if got != first {
			t.Fatalf("SelectLine not deterministic: %q then %q", first.Provider, got.Provider)
		}
	}
	if first.Provider != "Bovada" {
		t.Errorf("SelectLine provider = %q, want Bovada", first.Provider)
	}
}

func TestLineIndex(t *testing.T) {
	g := game("401", 2023, "Georgia", "Auburn", nil, nil)

	idx := NewLineIndex([]Line{
		{GameID: "401", Provider: "Bovada", Spread: -27},
		{GameID: "999", Provider: "Bovada", Spread: 3},
	})
	if got := idx.LinesFor(g); len(got) != 1 || got[0].Spread != -27 {
		t.Errorf("LinesFor by ID = %+v, want the -27 quote", got)
	}

	// Different ID upstream, same matchup
	idx = NewLineIndex([]Line{
		{GameID: "abc", Season: 2023, Week: intPtr(1), HomeTeam: "Georgia", AwayTeam: "Auburn", Provider: "DraftKings", Spread: -26.5},
	})
	if got := idx.LinesFor(g); len(got) != 1 || got[0].Provider != "DraftKings" {
		t.Errorf("LinesFor by match key = %+v, want the DraftKings quote", got)
	}

	// Week mismatch must not match
	g.Week = intPtr(5)
	if got := idx.LinesFor(g); len(got) != 0 {
		t.Errorf("LinesFor with different week = %+v, want none", got)
	}
}
