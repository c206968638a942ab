// Package matcher cross-references live matches with prediction records
// when the two feeds share no reliable key.
//
// Strategies run from most to least certain and the first hit wins:
//
//	ByID      live id equals prediction id
//	Exact     normalized home/away names equal, same sides
//	Reversed  normalized names equal with home/away swapped
//	Contains  each side's name contains the other's, same sides
//	Fuzzy     edit distance on both sides within MaxDistance
package matcher

import (
	"strings"

	"livebets/livematch/internal/entity"
	"livebets/livematch/internal/parse"
)

// DefaultMaxDistance is the per-side typo tolerance of the Fuzzy strategy.
// It has not been calibrated against production data.
const DefaultMaxDistance = 2

type Strategy int

const (
	None Strategy = iota
	ByID
	Exact
	Reversed
	Contains
	Fuzzy
)

func (s Strategy) String() string {
	switch s {
	case ByID:
		return "id"
	case Exact:
		return "exact"
	case Reversed:
		return "reversed"
	case Contains:
		return "contains"
	case Fuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

type Matcher struct {
	normalizer  *parse.Normalizer
	maxDistance int
}

// New returns a matcher. A nil normalizer uses the default alias table, a
// negative maxDistance uses DefaultMaxDistance.
func New(normalizer *parse.Normalizer, maxDistance int) *Matcher {
	if normalizer == nil {
		normalizer = parse.NewNormalizer(nil)
	}
	if maxDistance < 0 {
		maxDistance = DefaultMaxDistance
	}
	return &Matcher{
		normalizer:  normalizer,
		maxDistance: maxDistance,
	}
}

type candidate struct {
	match *entity.Match
	home  string
	away  string
}

// Candidates is a prediction set with team names normalized once, so that
// many live rows can be looked up against it cheaply.
type Candidates struct {
	items []candidate
	byID  map[string]*entity.Match
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

func (m *Matcher) Prepare(predictions []*entity.Match) *Candidates {
	c := &Candidates{
		items: make([]candidate, 0, len(predictions)),
		byID:  make(map[string]*entity.Match, len(predictions)),
	}
	for _, prediction := range predictions {
		if prediction == nil {
			continue
		}
		if _, ok := c.byID[prediction.ID]; !ok && prediction.ID != "" {
			c.byID[prediction.ID] = prediction
		}
		c.items = append(c.items, candidate{
			match: prediction,
			home:  m.normalizer.Normalize(teamName(prediction.HomeTeam)),
			away:  m.normalizer.Normalize(teamName(prediction.AwayTeam)),
		})
	}
	return c
}

// Match returns the best prediction for a live match, or nil.
func (m *Matcher) Match(homeTeam, awayTeam, liveID string, predictions []*entity.Match) *entity.Match {
	match, _ := m.Lookup(m.Prepare(predictions), homeTeam, awayTeam, liveID)
	return match
}

// Lookup runs the strategy cascade and reports which strategy matched.
func (m *Matcher) Lookup(c *Candidates, homeTeam, awayTeam, liveID string) (*entity.Match, Strategy) {
	if c.Len() == 0 {
		return nil, None
	}

	if liveID = strings.TrimSpace(liveID); liveID != "" {
		if match, ok := c.byID[liveID]; ok {
			return match, ByID
		}
	}

	home := m.normalizer.Normalize(homeTeam)
	away := m.normalizer.Normalize(awayTeam)
	if home == "" || away == "" {
		return nil, None
	}

	for _, item := range c.items {
		if item.home == home && item.away == away {
			return item.match, Exact
		}
	}

	for _, item := range c.items {
		if item.home == away && item.away == home {
			return item.match, Reversed
		}
	}

	for _, item := range c.items {
		if contains(item.home, home) && contains(item.away, away) {
			return item.match, Contains
		}
	}

	var best *entity.Match
	bestTotal := 0
	for _, item := range c.items {
		if item.home == "" || item.away == "" {
			continue
		}
		homeDistance := parse.Distance(item.home, home)
		if homeDistance > m.maxDistance {
			continue
		}
		awayDistance := parse.Distance(item.away, away)
		if awayDistance > m.maxDistance {
			continue
		}
		// Lowest combined distance wins, earlier record on ties.
		if total := homeDistance + awayDistance; best == nil || total < bestTotal {
			best, bestTotal = item.match, total
		}
	}
	if best != nil {
		return best, Fuzzy
	}

	return nil, None
}

// contains reports whether either name contains the other.
func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func teamName(team *entity.Team) string {
	if team == nil {
		return ""
	}
	return team.Name
}
