package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"livebets/livematch/internal/entity"
)

func TestPredictionStore_Lifecycle(t *testing.T) {
	s := New()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.False(t, s.Loaded())
	assert.Empty(t, s.Get())

	predictions := []*entity.Match{entity.NewMatch("p-1"), entity.NewMatch("p-2")}
	s.Set(predictions, SourcePoll)

	assert.True(t, s.Loaded())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, predictions, s.Get())
	updatedAt, source := s.UpdatedAt()
	assert.Equal(t, now, updatedAt)
	assert.Equal(t, SourcePoll, source)

	s.Set(nil, SourcePush)
	assert.False(t, s.Loaded())

	s.Set(predictions, SourcePush)
	s.Clear()
	assert.False(t, s.Loaded())
	assert.Empty(t, s.Get())
	updatedAt, source = s.UpdatedAt()
	assert.True(t, updatedAt.IsZero())
	assert.Empty(t, source)
}
