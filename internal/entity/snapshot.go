package entity

// Snapshot is one full-replacement tick of the live feed: matches keyed by
// id, remembering the order the feed delivered them in.
type Snapshot struct {
	ids  []string
	byID map[string]*Match
}

func NewSnapshot(capacity int) *Snapshot {
	return &Snapshot{
		ids:  make([]string, 0, capacity),
		byID: make(map[string]*Match, capacity),
	}
}

// Put adds or replaces a match. A replaced id keeps its first position.
func (s *Snapshot) Put(match *Match) {
	if _, ok := s.byID[match.ID]; !ok {
		s.ids = append(s.ids, match.ID)
	}
	s.byID[match.ID] = match
}

func (s *Snapshot) Get(id string) (*Match, bool) {
	if s == nil {
		return nil, false
	}
	match, ok := s.byID[id]
	return match, ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns ids in feed order. The slice must not be modified.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	return s.ids
}

// Matches returns the matches in feed order.
func (s *Snapshot) Matches() []*Match {
	if s == nil {
		return nil
	}
	matches := make([]*Match, 0, len(s.ids))
	for _, id := range s.ids {
		matches = append(matches, s.byID[id])
	}
	return matches
}
