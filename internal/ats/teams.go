package ats

import (
	"errors"
	"strings"
)

var (
	// ErrTeamNotInGame means neither side of the game is the requested team
	ErrTeamNotInGame = errors.New("team not in game")

	// ErrAmbiguousTeamMatch means a side looks like the team but no rule confirms it.
	// Guessing here would flip every downstream sign, so the game is held out.
	ErrAmbiguousTeamMatch = errors.New("ambiguous team match")
)

// TeamMatcher decides which side of a game the team is on
type TeamMatcher interface {
	Side(team string, g Game) (isHome bool, err error)
}

// NameMatcher resolves teams by exact name, then normalized name, then flags near misses.
// Aliases map a normalized variant to the normalized canonical name.
type NameMatcher struct {
	aliases map[string]string
}

// NewNameMatcher builds a matcher. Alias keys and values may be written in any form.
func NewNameMatcher(aliases map[string]string) *NameMatcher {
	m := &NameMatcher{aliases: make(map[string]string, len(aliases))}
	for variant, canonical := range aliases {
		m.aliases[NormalizeTeamName(variant)] = NormalizeTeamName(canonical)
	}
	return m
}

// Side implements TeamMatcher
func (m *NameMatcher) Side(team string, g Game) (bool, error) {
	// Exact
	home, away := g.HomeTeam == team, g.AwayTeam == team
	if home != away {
		return home, nil
	}
	if home && away {
		return false, ErrAmbiguousTeamMatch
	}

	// Normalized
	want := m.canonical(team)
	home, away = m.canonical(g.HomeTeam) == want, m.canonical(g.AwayTeam) == want
	if home != away {
		return home, nil
	}
	if home && away {
		return false, ErrAmbiguousTeamMatch
	}

	if nearMiss(want, m.canonical(g.HomeTeam)) || nearMiss(want, m.canonical(g.AwayTeam)) {
		return false, ErrAmbiguousTeamMatch
	}
	return false, ErrTeamNotInGame
}

func (m *NameMatcher) canonical(name string) string {
	n := NormalizeTeamName(name)
	if c, ok := m.aliases[n]; ok {
		return c
	}
	return n
}

// NormalizeTeamName folds the spelling differences upstream feeds disagree on:
// case, apostrophes, periods, "&" vs "and", and whitespace.
func NormalizeTeamName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(
		"'", "",
		"’", "",
		".", "",
		"&", " and ",
		"-", " ",
	).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// nearMiss catches variants like "Miami" vs "Miami (OH)" that must not be silently merged
func nearMiss(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ca := coreName(a)
	return ca != "" && ca == coreName(b)
}

// coreName drops parenthesized qualifiers and institutional filler words
func coreName(normalized string) string {
	var b strings.Builder
	depth := 0
	for _, r := range normalized {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}

	var words []string
	for _, w := range strings.Fields(b.String()) {
		switch w {
		case "the", "university", "univ", "college":
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}
