package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livebets/livematch/internal/entity"
)

type recorder struct {
	drained []*entity.Snapshot
}

func (r *recorder) drain(snapshot *entity.Snapshot) {
	r.drained = append(r.drained, snapshot)
}

func newTestScheduler(t *testing.T) (*Scheduler, *ManualClock, *recorder) {
	t.Helper()

	clock := NewManualClock(time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC))
	rec := &recorder{}
	s := New(clock, 50*time.Millisecond, 500*time.Millisecond, rec.drain)
	s.Start()
	return s, clock, rec
}

func TestScheduler_DebounceCoalescesBurst(t *testing.T) {
	s, clock, rec := newTestScheduler(t)

	first := entity.NewSnapshot(0)
	second := entity.NewSnapshot(0)

	s.Submit(first)
	assert.Equal(t, Pending, s.State())

	clock.Advance(40 * time.Millisecond)
	s.Submit(second)
	assert.Empty(t, rec.drained)

	clock.Advance(40 * time.Millisecond)
	assert.Empty(t, rec.drained, "debounce restarts on every submit")

	clock.Advance(20 * time.Millisecond)
	require.Len(t, rec.drained, 1)
	assert.Same(t, second, rec.drained[0])
	assert.Equal(t, Idle, s.State())

	// Periodic tick with nothing pending does not drain.
	clock.Advance(time.Second)
	assert.Len(t, rec.drained, 1)
}

func TestScheduler_PeriodicDrainBoundsStaleness(t *testing.T) {
	s, clock, rec := newTestScheduler(t)

	// A feed ticking every 40ms never lets the 50ms debounce fire.
	for i := 0; i < 13; i++ {
		s.Submit(entity.NewSnapshot(0))
		clock.Advance(40 * time.Millisecond)
	}

	require.Len(t, rec.drained, 1, "periodic drain at 500ms")
}

func TestScheduler_FlushDrainsImmediately(t *testing.T) {
	s, _, rec := newTestScheduler(t)

	assert.False(t, s.Flush())

	snapshot := entity.NewSnapshot(0)
	s.Submit(snapshot)
	assert.True(t, s.Flush())
	require.Len(t, rec.drained, 1)
	assert.Same(t, snapshot, rec.drained[0])

	assert.False(t, s.Flush())
}

func TestScheduler_SubmitDuringDrainStaysPending(t *testing.T) {
	clock := NewManualClock(time.Now())
	var s *Scheduler
	var drained int
	late := entity.NewSnapshot(0)
	s = New(clock, 50*time.Millisecond, 500*time.Millisecond, func(*entity.Snapshot) {
		drained++
		if drained == 1 {
			assert.Equal(t, Draining, s.State())
			s.Submit(late)
		}
	})

	s.Submit(entity.NewSnapshot(0))
	require.True(t, s.Flush())
	assert.Equal(t, Pending, s.State())

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 2, drained)
	assert.Equal(t, Idle, s.State())
}

func TestScheduler_StopCancelsEverything(t *testing.T) {
	s, clock, rec := newTestScheduler(t)

	s.Submit(entity.NewSnapshot(0))
	s.Stop()

	assert.Equal(t, Stopped, s.State())
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Minute)
	assert.Empty(t, rec.drained)

	s.Submit(entity.NewSnapshot(0))
	assert.False(t, s.Flush())
	assert.Zero(t, clock.Pending())

	s.Start()
	assert.Zero(t, clock.Pending())
}
