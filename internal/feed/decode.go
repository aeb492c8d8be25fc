package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"ats-history/internal/ats"
)

// envelope is the paginated wrapper some mirrors put around the bare array
type envelope[T any] struct {
	Data []T `json:"data"`
}

// decodeList accepts either a bare JSON array or an object with a "data" array
func decodeList[T any](r io.Reader) ([]T, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	if body[0] == '{' {
		var env envelope[T]
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecodeGames parses a games response into canonical games
func DecodeGames(r io.Reader) ([]ats.Game, error) {
	raw, err := decodeList[GameResponse](r)
	if err != nil {
		return nil, fmt.Errorf("parsing games response: %w", err)
	}

	games := make([]ats.Game, 0, len(raw))
	for _, g := range raw {
		games = append(games, g.Game())
	}
	return games, nil
}

// DecodeLines parses a lines response into canonical lines, one per provider quote
func DecodeLines(r io.Reader) ([]ats.Line, error) {
	raw, err := decodeList[GameLinesResponse](r)
	if err != nil {
		return nil, fmt.Errorf("parsing lines response: %w", err)
	}

	var lines []ats.Line
	for _, g := range raw {
		lines = append(lines, g.CanonicalLines()...)
	}
	return lines, nil
}
