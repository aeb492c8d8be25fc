package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ats-history/internal/ats"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "ats.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func intPtrOf(v int) *int { return &v }

func TestGamesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	start := time.Date(2023, 9, 2, 2, 0, 0, 0, time.UTC)
	games := []ats.Game{
		{
			ID: "1", Season: 2023, Week: intPtrOf(1), SeasonType: ats.SeasonRegular, StartDate: start,
			HomeTeam: "Utah", AwayTeam: "Florida", HomeScore: intPtrOf(24), AwayScore: intPtrOf(0),
			HomeConference: "Pac-12", AwayConference: "SEC",
		},
		{
			ID: "2", Season: 2023, SeasonType: ats.SeasonPostseason,
			HomeTeam: "Utah", AwayTeam: "Northwestern", ConferenceGame: true,
		},
		{ID: "3", Season: 2022, SeasonType: ats.SeasonRegular, HomeTeam: "BYU", AwayTeam: "Utah"},
	}
	if err := db.SaveGames(ctx, games); err != nil {
		t.Fatalf("SaveGames: %v", err)
	}

	got, err := db.Games(ctx, 2023, "Utah")
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d games, want 2", len(got))
	}

	byID := map[string]ats.Game{}
	for _, g := range got {
		byID[g.ID] = g
	}

	g1 := byID["1"]
	if !g1.StartDate.Equal(start) {
		t.Errorf("start = %v, want %v", g1.StartDate, start)
	}
	if g1.Week == nil || *g1.Week != 1 {
		t.Errorf("week = %v, want 1", g1.Week)
	}
	// A shutout is a real score, not a missing one
	if g1.AwayScore == nil || *g1.AwayScore != 0 {
		t.Errorf("away score = %v, want 0", g1.AwayScore)
	}
	if g1.HomeConference != "Pac-12" || g1.ConferenceGame {
		t.Errorf("game 1 = %+v", g1)
	}

	g2 := byID["2"]
	if g2.HomeScore != nil || g2.AwayScore != nil || g2.Week != nil {
		t.Errorf("nulls not preserved: %+v", g2)
	}
	if g2.SeasonType != ats.SeasonPostseason || !g2.ConferenceGame || !g2.StartDate.IsZero() {
		t.Errorf("game 2 = %+v", g2)
	}
}

func TestSaveGamesUpserts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	g := ats.Game{ID: "1", Season: 2023, SeasonType: ats.SeasonRegular, HomeTeam: "Utah", AwayTeam: "UCLA"}
	if err := db.SaveGames(ctx, []ats.Game{g}); err != nil {
		t.Fatalf("SaveGames: %v", err)
	}

	g.HomeScore, g.AwayScore = intPtrOf(14), intPtrOf(7)
	if err := db.SaveGames(ctx, []ats.Game{g}); err != nil {
		t.Fatalf("SaveGames (update): %v", err)
	}

	got, err := db.Games(ctx, 2023, "")
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(got) != 1 || got[0].HomeScore == nil || *got[0].HomeScore != 14 {
		t.Errorf("got %+v, want one game with home score 14", got)
	}
}

func TestLinesRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	ou := 52.5
	lines := []ats.Line{
		{GameID: "1", Season: 2023, Week: intPtrOf(1), HomeTeam: "Utah", AwayTeam: "Florida",
			Provider: "teamrankings", Spread: -6},
		{GameID: "1", Season: 2023, Week: intPtrOf(1), HomeTeam: "Utah", AwayTeam: "Florida",
			Provider: "consensus", Spread: -7, OverUnder: &ou, HomeMoneyline: intPtrOf(-250), AwayMoneyline: intPtrOf(205)},
		{GameID: "9", Season: 2022, Provider: "Bovada", Spread: 3},
	}
	if err := db.SaveLines(ctx, lines); err != nil {
		t.Fatalf("SaveLines: %v", err)
	}

	got, err := db.Lines(ctx, 2023, "Utah")
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d lines, want 2", len(got))
	}

	// Insertion order survives so the selector's input-order fallback is stable
	if got[0].Provider != "teamrankings" || got[1].Provider != "consensus" {
		t.Errorf("order = [%s %s], want [teamrankings consensus]", got[0].Provider, got[1].Provider)
	}
	if got[0].OverUnder != nil || got[0].HomeMoneyline != nil {
		t.Errorf("nulls not preserved: %+v", got[0])
	}
	c := got[1]
	if c.Spread != -7 || c.OverUnder == nil || *c.OverUnder != 52.5 || *c.HomeMoneyline != -250 || *c.AwayMoneyline != 205 {
		t.Errorf("consensus line = %+v", c)
	}

	sel, ok := ats.SelectLine(got, nil)
	if !ok || sel.Provider != "consensus" {
		t.Errorf("SelectLine = %+v, want consensus", sel)
	}
}

func TestSeasonsAndImports(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if imp, err := db.LastImport(ctx, 2023); err != nil || imp != nil {
		t.Fatalf("LastImport on empty db = (%v, %v), want (nil, nil)", imp, err)
	}

	games := []ats.Game{
		{ID: "a", Season: 2023, SeasonType: ats.SeasonRegular, HomeTeam: "Utah", AwayTeam: "UCLA"},
		{ID: "b", Season: 2021, SeasonType: ats.SeasonRegular, HomeTeam: "Utah", AwayTeam: "USC"},
	}
	if err := db.SaveGames(ctx, games); err != nil {
		t.Fatalf("SaveGames: %v", err)
	}

	seasons, err := db.Seasons(ctx)
	if err != nil {
		t.Fatalf("Seasons: %v", err)
	}
	if len(seasons) != 2 || seasons[0] != 2021 || seasons[1] != 2023 {
		t.Errorf("seasons = %v, want [2021 2023]", seasons)
	}

	now := time.Now().UTC().Truncate(time.Second)
	older := Import{ID: "run-1", Season: 2023, Games: 10, Lines: 30, StartedAt: now.Add(-2 * time.Hour), FinishedAt: now.Add(-time.Hour)}
	newer := Import{ID: "run-2", Season: 2023, Games: 12, Lines: 31, StartedAt: now.Add(-time.Minute), FinishedAt: now}
	for _, imp := range []Import{older, newer} {
		if err := db.RecordImport(ctx, imp); err != nil {
			t.Fatalf("RecordImport: %v", err)
		}
	}

	last, err := db.LastImport(ctx, 2023)
	if err != nil {
		t.Fatalf("LastImport: %v", err)
	}
	if last == nil || last.ID != "run-2" || last.Games != 12 || !last.FinishedAt.Equal(now) {
		t.Errorf("last import = %+v, want run-2", last)
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestSaveSnapshotIsAtomic(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	games := []ats.Game{{ID: "1", Season: 2023, SeasonType: ats.SeasonRegular, HomeTeam: "Utah", AwayTeam: "Florida"}}
	lines := []ats.Line{{GameID: "1", Season: 2023, Provider: "consensus", Spread: -7}}

	if _, err := db.db.Exec(`CREATE TRIGGER reject_lines BEFORE INSERT ON lines
		BEGIN SELECT RAISE(ABORT, 'lines rejected'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}
	if err := db.SaveSnapshot(ctx, games, lines); err == nil {
		t.Fatal("expected SaveSnapshot to fail")
	}
	got, err := db.Games(ctx, 2023, "")
	if err != nil {
		t.Fatalf("Games: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d games after a failed snapshot, want 0", len(got))
	}

	if _, err := db.db.Exec(`DROP TRIGGER reject_lines`); err != nil {
		t.Fatalf("dropping trigger: %v", err)
	}
	if err := db.SaveSnapshot(ctx, games, lines); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	gotGames, _ := db.Games(ctx, 2023, "")
	gotLines, _ := db.Lines(ctx, 2023, "")
	if len(gotGames) != 1 || len(gotLines) != 1 {
		t.Errorf("got %d games and %d lines, want 1 and 1", len(gotGames), len(gotLines))
	}
}
