// Package store holds the process-wide prediction set.
//
// Lifecycle: populated when a session starts, replaced by every successful
// poll or pushed payload, cleared on teardown. Readers get the current slice
// and must treat it as read-only.
package store

import (
	"sync"
	"time"

	"livebets/livematch/internal/entity"
)

type Source string

const (
	SourcePoll Source = "poll"
	SourcePush Source = "push"
)

type PredictionStore struct {
	mu          sync.RWMutex
	predictions []*entity.Match
	source      Source
	updatedAt   time.Time
	loaded      bool
	now         func() time.Time
}

func New() *PredictionStore {
	return &PredictionStore{now: time.Now}
}

// Get returns the current prediction set, empty when nothing is loaded.
func (s *PredictionStore) Get() []*entity.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.predictions
}

// Set replaces the whole prediction set.
func (s *PredictionStore) Set(predictions []*entity.Match, source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predictions = predictions
	s.source = source
	s.updatedAt = s.now()
	s.loaded = len(predictions) > 0
}

func (s *PredictionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predictions = nil
	s.source = ""
	s.updatedAt = time.Time{}
	s.loaded = false
}

func (s *PredictionStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// UpdatedAt returns when the set was last replaced and by which source.
func (s *PredictionStore) UpdatedAt() (time.Time, Source) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.updatedAt, s.source
}

func (s *PredictionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.predictions)
}
