package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ats-history/internal/ats"
)

// DB is the local snapshot of games and lines. It serves as both the game
// source and the line source for report runs.
type DB struct {
	db *sql.DB
}

// Import describes one snapshot refresh
type Import struct {
	ID         string
	Season     int
	Games      int
	Lines      int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Open opens (or creates) the snapshot database
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		season INTEGER NOT NULL,
		week INTEGER,
		season_type TEXT NOT NULL,
		start_date DATETIME,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		home_score INTEGER,
		away_score INTEGER,
		conference_game INTEGER NOT NULL DEFAULT 0,
		home_conference TEXT NOT NULL DEFAULT '',
		away_conference TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS lines (
		game_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		season INTEGER NOT NULL,
		week INTEGER,
		home_team TEXT NOT NULL DEFAULT '',
		away_team TEXT NOT NULL DEFAULT '',
		spread REAL NOT NULL,
		over_under REAL,
		home_moneyline INTEGER,
		away_moneyline INTEGER,
		PRIMARY KEY (game_id, provider)
	);

	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		season INTEGER NOT NULL,
		games INTEGER NOT NULL,
		lines INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_season ON games(season);
	CREATE INDEX IF NOT EXISTS idx_lines_season ON lines(season);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveGames upserts games in one transaction
func (d *DB) SaveGames(ctx context.Context, games []ats.Game) error {
	return d.inTx(ctx, func(tx *sql.Tx) error { return saveGames(ctx, tx, games) })
}

// SaveLines upserts lines keyed by game and provider
func (d *DB) SaveLines(ctx context.Context, lines []ats.Line) error {
	return d.inTx(ctx, func(tx *sql.Tx) error { return saveLines(ctx, tx, lines) })
}

// SaveSnapshot upserts games and lines together. Either both land or neither does.
func (d *DB) SaveSnapshot(ctx context.Context, games []ats.Game, lines []ats.Line) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		if err := saveGames(ctx, tx, games); err != nil {
			return err
		}
		return saveLines(ctx, tx, lines)
	})
}

func (d *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func saveGames(ctx context.Context, tx *sql.Tx, games []ats.Game) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO games (id, season, week, season_type, start_date, home_team, away_team,
			home_score, away_score, conference_game, home_conference, away_conference)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			season = excluded.season, week = excluded.week, season_type = excluded.season_type,
			start_date = excluded.start_date, home_team = excluded.home_team, away_team = excluded.away_team,
			home_score = excluded.home_score, away_score = excluded.away_score,
			conference_game = excluded.conference_game,
			home_conference = excluded.home_conference, away_conference = excluded.away_conference
	`)
	if err != nil {
		return fmt.Errorf("preparing game insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range games {
		if g.ID == "" {
			continue
		}
		var start any
		if !g.StartDate.IsZero() {
			start = g.StartDate.UTC()
		}
		if _, err := stmt.ExecContext(ctx, g.ID, g.Season, g.Week, string(g.SeasonType), start,
			g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, g.ConferenceGame,
			g.HomeConference, g.AwayConference); err != nil {
			return fmt.Errorf("inserting game %s: %w", g.ID, err)
		}
	}
	return nil
}

func saveLines(ctx context.Context, tx *sql.Tx, lines []ats.Line) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lines (game_id, provider, season, week, home_team, away_team,
			spread, over_under, home_moneyline, away_moneyline)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(game_id, provider) DO UPDATE SET
			season = excluded.season, week = excluded.week,
			home_team = excluded.home_team, away_team = excluded.away_team,
			spread = excluded.spread, over_under = excluded.over_under,
			home_moneyline = excluded.home_moneyline, away_moneyline = excluded.away_moneyline
	`)
	if err != nil {
		return fmt.Errorf("preparing line insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lines {
		if l.GameID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, l.GameID, l.Provider, l.Season, l.Week, l.HomeTeam, l.AwayTeam,
			l.Spread, l.OverUnder, l.HomeMoneyline, l.AwayMoneyline); err != nil {
			return fmt.Errorf("inserting line %s/%s: %w", l.GameID, l.Provider, err)
		}
	}
	return nil
}

// Games returns one season's games. The team is ignored: aliases mean stored
// names may not resemble it, so side resolution is left to the report's matcher.
func (d *DB) Games(ctx context.Context, season int, _ string) ([]ats.Game, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, season, week, season_type, start_date, home_team, away_team,
			home_score, away_score, conference_game, home_conference, away_conference
		FROM games
		WHERE season = ?
		ORDER BY start_date, id
	`, season)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []ats.Game
	for rows.Next() {
		var (
			g          ats.Game
			week       sql.NullInt64
			seasonType string
			start      sql.NullTime
			home, away sql.NullInt64
		)
		if err := rows.Scan(&g.ID, &g.Season, &week, &seasonType, &start, &g.HomeTeam, &g.AwayTeam,
			&home, &away, &g.ConferenceGame, &g.HomeConference, &g.AwayConference); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		g.Week = intPtr(week)
		g.SeasonType = ats.SeasonType(seasonType)
		if start.Valid {
			g.StartDate = start.Time.UTC()
		}
		g.HomeScore, g.AwayScore = intPtr(home), intPtr(away)
		games = append(games, g)
	}

	return games, rows.Err()
}

// Lines returns one season's lines in insertion order per game. The team is ignored like in Games.
func (d *DB) Lines(ctx context.Context, season int, _ string) ([]ats.Line, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT game_id, provider, season, week, home_team, away_team,
			spread, over_under, home_moneyline, away_moneyline
		FROM lines
		WHERE season = ?
		ORDER BY game_id, rowid
	`, season)
	if err != nil {
		return nil, fmt.Errorf("querying lines: %w", err)
	}
	defer rows.Close()

	var lines []ats.Line
	for rows.Next() {
		var (
			l              ats.Line
			week           sql.NullInt64
			overUnder      sql.NullFloat64
			homeML, awayML sql.NullInt64
		)
		if err := rows.Scan(&l.GameID, &l.Provider, &l.Season, &week, &l.HomeTeam, &l.AwayTeam,
			&l.Spread, &overUnder, &homeML, &awayML); err != nil {
			return nil, fmt.Errorf("scanning line row: %w", err)
		}
		l.Week = intPtr(week)
		if overUnder.Valid {
			v := overUnder.Float64
			l.OverUnder = &v
		}
		l.HomeMoneyline, l.AwayMoneyline = intPtr(homeML), intPtr(awayML)
		lines = append(lines, l)
	}

	return lines, rows.Err()
}

// Seasons lists the seasons present in the snapshot, ascending
func (d *DB) Seasons(ctx context.Context) ([]int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT season FROM games ORDER BY season`)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning season row: %w", err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// RecordImport logs a completed refresh
func (d *DB) RecordImport(ctx context.Context, imp Import) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO imports (id, season, games, lines, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, imp.ID, imp.Season, imp.Games, imp.Lines, imp.StartedAt.UTC(), imp.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting import: %w", err)
	}
	return nil
}

// LastImport returns the most recent refresh of season, or nil if there was none
func (d *DB) LastImport(ctx context.Context, season int) (*Import, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, season, games, lines, started_at, finished_at
		FROM imports WHERE season = ?
		ORDER BY finished_at DESC LIMIT 1
	`, season)

	var imp Import
	err := row.Scan(&imp.ID, &imp.Season, &imp.Games, &imp.Lines, &imp.StartedAt, &imp.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning import: %w", err)
	}

	return &imp, nil
}

// Ping checks the connection
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
