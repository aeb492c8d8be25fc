package ats

import "strings"

// ConsensusProvider is the provider name that always wins line selection
const ConsensusProvider = "consensus"

// DefaultProviderPriority is the fallback order of sportsbooks after consensus
var DefaultProviderPriority = []string{
	"DraftKings",
	"ESPN Bet",
	"Bovada",
	"William Hill (New Jersey)",
	"teamrankings",
	"numberfire",
}

// SelectLine picks the canonical line for one game.
// Order: consensus, then priority in order, then the first remaining line in input order.
// Provider names compare case-insensitively.
func SelectLine(lines []Line, priority []string) (Line, bool) {
	if len(lines) == 0 {
		return Line{}, false
	}

	if i := indexOfProvider(lines, ConsensusProvider); i >= 0 {
		return lines[i], true
	}

	for _, p := range priority {
		if i := indexOfProvider(lines, p); i >= 0 {
			return lines[i], true
		}
	}

	return lines[0], true
}

func indexOfProvider(lines []Line, provider string) int {
	want := normalizeProvider(provider)
	if want == "" {
		return -1
	}
	for i, l := range lines {
		if normalizeProvider(l.Provider) == want {
			return i
		}
	}
	return -1
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LineIndex resolves the quotes for a game by ID, falling back to the match key
type LineIndex struct {
	byID  map[string][]Line
	byKey map[MatchKey][]Line
}

// NewLineIndex groups lines by game ID and by match key, preserving input order
func NewLineIndex(lines []Line) *LineIndex {
	idx := &LineIndex{
		byID:  make(map[string][]Line),
		byKey: make(map[MatchKey][]Line),
	}
	for _, l := range lines {
		if l.GameID != "" {
			idx.byID[l.GameID] = append(idx.byID[l.GameID], l)
		}
		if key, ok := l.MatchKey(); ok {
			idx.byKey[key] = append(idx.byKey[key], l)
		}
	}
	return idx
}

// LinesFor returns every quote for the game
func (idx *LineIndex) LinesFor(g Game) []Line {
	if ls := idx.byID[g.ID]; len(ls) > 0 {
		return ls
	}
	return idx.byKey[g.MatchKey()]
}
