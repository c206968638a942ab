// Package merge folds full-replacement feed snapshots into a stable ordered
// list. Matches that did not change keep their previous pointer and
// position so the UI can skip re-rendering them.
package merge

import (
	"reflect"
	"sync"

	"livebets/livematch/internal/entity"
)

// Merge returns the list that replaces previous after the latest snapshot:
// retained ids keep their previous relative order, new ids follow in
// snapshot order, ids missing from the snapshot are dropped.
func Merge(latest *entity.Snapshot, previous []*entity.Match) []*entity.Match {
	index := make(map[string]*entity.Match, len(previous))
	order := make([]string, 0, len(previous))
	for _, match := range previous {
		if match == nil {
			continue
		}
		if _, ok := index[match.ID]; ok {
			continue
		}
		index[match.ID] = match
		order = append(order, match.ID)
	}
	return merge(latest, index, order)
}

func merge(latest *entity.Snapshot, index map[string]*entity.Match, order []string) []*entity.Match {
	// First tick: nothing to reuse.
	if len(order) == 0 {
		return latest.Matches()
	}

	result := make([]*entity.Match, 0, latest.Len())
	for _, id := range order {
		next, ok := latest.Get(id)
		if !ok {
			continue
		}
		result = append(result, reconcile(index[id], next))
	}

	for _, id := range latest.IDs() {
		if _, ok := index[id]; ok {
			continue
		}
		next, _ := latest.Get(id)
		result = append(result, next)
	}

	return result
}

// reconcile builds the output record for an id present in both ticks. Values
// come from next; sub-structures equal to prev's are taken from prev. When
// nothing changed at all prev itself is returned.
func reconcile(prev, next *entity.Match) *entity.Match {
	if prev == nil {
		return next
	}

	out := *next
	// A stale tick must not move the clock backwards within a period.
	if next.Status == prev.Status && next.PlayedSeconds < prev.PlayedSeconds {
		out.PlayedSeconds = prev.PlayedSeconds
		out.MatchTime = prev.MatchTime
	}
	out.HomeTeam = reuseTeam(prev.HomeTeam, next.HomeTeam)
	out.AwayTeam = reuseTeam(prev.AwayTeam, next.AwayTeam)
	out.MatchSituation = reuseSituation(prev.MatchSituation, next.MatchSituation)
	out.MatchDetails = reuseDetails(prev.MatchDetails, next.MatchDetails)
	out.Markets = reconcileMarkets(prev.Markets, next.Markets)
	if reflect.DeepEqual(prev.Prediction, next.Prediction) {
		out.Prediction = prev.Prediction
	}

	if reflect.DeepEqual(prev, &out) {
		return prev
	}
	return &out
}

func reuseTeam(prev, next *entity.Team) *entity.Team {
	if prev != nil && next != nil && *prev == *next {
		return prev
	}
	return next
}

func reuseSituation(prev, next *entity.MatchSituation) *entity.MatchSituation {
	if prev != nil && next != nil && *prev == *next {
		return prev
	}
	return next
}

func reuseDetails(prev, next *entity.MatchDetails) *entity.MatchDetails {
	if prev != nil && next != nil && *prev == *next {
		return prev
	}
	return next
}

type marketKey struct {
	id        string
	specifier string
}

// reconcileMarkets flags outcomes whose odds moved since the previous tick
// and returns the previous slice when the result is identical.
func reconcileMarkets(prev, next []entity.Market) []entity.Market {
	previousOdds := make(map[marketKey]map[string]float64, len(prev))
	for _, market := range prev {
		odds := make(map[string]float64, len(market.Outcomes))
		for _, outcome := range market.Outcomes {
			odds[outcome.ID] = outcome.Odds
		}
		previousOdds[marketKey{market.ID, market.Specifier}] = odds
	}

	markets := make([]entity.Market, len(next))
	for i, market := range next {
		outcomes := make([]entity.Outcome, len(market.Outcomes))
		odds := previousOdds[marketKey{market.ID, market.Specifier}]
		for j, outcome := range market.Outcomes {
			before, ok := odds[outcome.ID]
			outcome.IsChanged = ok && before != outcome.Odds
			outcomes[j] = outcome
		}
		market.Outcomes = outcomes
		markets[i] = market
	}

	if reflect.DeepEqual(prev, markets) {
		return prev
	}
	return markets
}

// Merger owns the previous stable list: an index of the current matches by
// id plus their display order.
type Merger struct {
	mu    sync.RWMutex
	index map[string]*entity.Match
	order []string
	list  []*entity.Match
}

func New() *Merger {
	return &Merger{
		index: make(map[string]*entity.Match),
	}
}

// Apply merges snapshot into the current list and returns the new list.
// The returned slice is never modified afterwards.
func (m *Merger) Apply(snapshot *entity.Snapshot) []*entity.Match {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := merge(snapshot, m.index, m.order)

	index := make(map[string]*entity.Match, len(list))
	order := make([]string, 0, len(list))
	for _, match := range list {
		index[match.ID] = match
		order = append(order, match.ID)
	}

	m.index, m.order, m.list = index, order, list
	return list
}

// Current returns the latest merged list. Callers must not modify it.
func (m *Merger) Current() []*entity.Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.list
}

func (m *Merger) Get(id string) (*entity.Match, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.index[id]
	return match, ok
}

func (m *Merger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.list)
}

func (m *Merger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.index = make(map[string]*entity.Match)
	m.order = nil
	m.list = nil
}
