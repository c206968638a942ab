package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livebets/livematch/internal/api"
	"livebets/livematch/internal/entity"
	"livebets/livematch/internal/feed"
	"livebets/livematch/internal/matcher"
	"livebets/livematch/internal/scheduler"
	"livebets/livematch/internal/store"
)

const waitFor = 2 * time.Second

type fakeConn struct {
	events chan feed.Event
	idle   chan struct{}
	failed chan error
	done   chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan feed.Event),
		idle:   make(chan struct{}, 64),
		failed: make(chan error, 1),
		done:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadEvent() (feed.Event, error) {
	c.idle <- struct{}{}
	select {
	case event := <-c.events:
		return event, nil
	case err := <-c.failed:
		return feed.Event{}, err
	case <-c.done:
		return feed.Event{}, feed.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// waitIdle blocks until the reader is parked in ReadEvent.
func (c *fakeConn) waitIdle(t *testing.T) {
	t.Helper()

	select {
	case <-c.idle:
	case <-time.After(waitFor):
		t.Fatal("reader never came back to ReadEvent")
	}
}

// deliver hands one event to the reader and waits until it is routed.
func (c *fakeConn) deliver(t *testing.T, name, data string) {
	t.Helper()

	select {
	case c.events <- feed.Event{Name: name, Data: []byte(data)}:
	case <-time.After(waitFor):
		t.Fatal("reader is not reading")
	}
	c.waitIdle(t)
}

type dialResult struct {
	conn *fakeConn
	err  error
}

type fakeDialer struct {
	mu      sync.Mutex
	results []dialResult
}

func (d *fakeDialer) Dial(ctx context.Context) (feed.Conn, error) {
	d.mu.Lock()
	if len(d.results) > 0 {
		result := d.results[0]
		d.results = d.results[1:]
		d.mu.Unlock()
		if result.err != nil {
			return nil, result.err
		}
		return result.conn, nil
	}
	d.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

type fakeSource struct {
	mu      sync.Mutex
	payload *entity.PredictionPayload
	err     error
}

func (f *fakeSource) GetPredictions(context.Context) (*entity.PredictionPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.payload, f.err
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]time.Duration(nil), r.delays...)
}

type published struct {
	feed    Feed
	matches []*entity.Match
}

type harness struct {
	svc     *Service
	clock   *scheduler.ManualClock
	sleeps  *sleepRecorder
	store   *store.PredictionStore
	cancel  context.CancelFunc
	stopped chan struct{}

	mu        sync.Mutex
	published []published
}

func startService(t *testing.T, dialer feed.Dialer, source PredictionSource) *harness {
	t.Helper()

	logger := zerolog.Nop()
	h := &harness{
		clock:   scheduler.NewManualClock(time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)),
		sleeps:  &sleepRecorder{},
		store:   store.New(),
		stopped: make(chan struct{}),
	}
	h.svc = New(dialer, source, h.store, matcher.New(nil, matcher.DefaultMaxDistance), &logger, Options{
		Clock: h.clock,
		Sleep: h.sleeps.sleep,
	})
	h.svc.OnPublish(func(f Feed, matches []*entity.Match) {
		h.mu.Lock()
		h.published = append(h.published, published{feed: f, matches: matches})
		h.mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.svc.Run(ctx)
		close(h.stopped)
	}()
	t.Cleanup(h.stop)

	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.stopped
}

func (h *harness) publishes() []published {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]published(nil), h.published...)
}

const (
	tickOne = `[{"eventId":"sr:match:1","homeTeamName":"Arsenal","awayTeamName":"Chelsea","matchStatus":"1st half","playedSeconds":"10:00","setScore":"0:0"}]`
	tickTwo = `[{"eventId":"sr:match:1","homeTeamName":"Arsenal","awayTeamName":"Chelsea","matchStatus":"1st half","playedSeconds":"10:40","setScore":"1:0"},
	            {"eventId":"sr:match:2","homeTeamName":"Ajax","awayTeamName":"PSV","matchStatus":"2nd half","playedSeconds":"60:00","setScore":"2:2"}]`
)

func predictionPayload() *entity.PredictionPayload {
	return &entity.PredictionPayload{
		UpcomingMatches: []entity.RawMatch{
			{
				ID:       entity.NewFlexString("p-1"),
				HomeTeam: &entity.RawTeam{Name: "Arsenal FC"},
				AwayTeam: &entity.RawTeam{Name: "Chelsea FC"},
			},
		},
	}
}

func TestService_DebouncesTicksIntoOnePublish(t *testing.T) {
	conn := newFakeConn()
	h := startService(t, &fakeDialer{results: []dialResult{{conn: conn}}}, nil)
	conn.waitIdle(t)

	assert.Equal(t, Connected, h.svc.Status().State)

	conn.deliver(t, feed.EventAllLive, tickOne)
	h.clock.Advance(40 * time.Millisecond)
	conn.deliver(t, feed.EventAllLive, tickTwo)
	h.clock.Advance(40 * time.Millisecond)
	assert.Empty(t, h.publishes())

	h.clock.Advance(10 * time.Millisecond)
	got := h.publishes()
	require.Len(t, got, 1)
	assert.Equal(t, FeedAll, got[0].feed)
	require.Len(t, got[0].matches, 2)
	assert.Equal(t, "1-0", got[0].matches[0].Score)

	matches, ok := h.svc.Matches(FeedAll)
	require.True(t, ok)
	assert.Len(t, matches, 2)

	matches, ok = h.svc.Matches(FeedArbitrage)
	require.True(t, ok)
	assert.Empty(t, matches)

	_, ok = h.svc.Matches(Feed("nope"))
	assert.False(t, ok)
}

func TestService_BadRecordKeepsSiblings(t *testing.T) {
	conn := newFakeConn()
	h := startService(t, &fakeDialer{results: []dialResult{{conn: conn}}}, nil)
	conn.waitIdle(t)

	conn.deliver(t, feed.EventAllLive, `[
		{"eventId":"sr:match:1","homeTeamName":"Arsenal","awayTeamName":"Chelsea","matchStatus":"1st half","playedSeconds":"10:00"},
		{"eventId":"sr:match:2","homeTeamName":"Ajax","awayTeamName":"PSV","matchStatus":"2nd half","playedSeconds":3600},
		{"eventId":"sr:match:3","homeTeamName":"Celtic","awayTeamName":"Rangers","markets":"broken"},
		"garbage"
	]`)
	h.clock.Advance(100 * time.Millisecond)

	got := h.publishes()
	require.Len(t, got, 1)
	require.Len(t, got[0].matches, 2)
	assert.Equal(t, "sr:match:1", got[0].matches[0].ID)
	assert.Equal(t, 600, got[0].matches[0].PlayedSeconds)
	assert.Equal(t, "sr:match:2", got[0].matches[1].ID)
	assert.Equal(t, "Ajax", got[0].matches[1].HomeTeam.Name)
}

func TestService_PauseDiscardsSnapshots(t *testing.T) {
	conn := newFakeConn()
	h := startService(t, &fakeDialer{results: []dialResult{{conn: conn}}}, nil)
	conn.waitIdle(t)

	h.svc.Pause()
	assert.True(t, h.svc.Status().Paused)

	conn.deliver(t, feed.EventArbitrageLive, tickOne)
	h.clock.Advance(time.Second)
	assert.Empty(t, h.publishes())

	h.svc.Resume()
	conn.deliver(t, feed.EventArbitrageLive, tickOne)
	h.clock.Advance(50 * time.Millisecond)

	got := h.publishes()
	require.Len(t, got, 1)
	assert.Equal(t, FeedArbitrage, got[0].feed)
}

func TestService_Predictions(t *testing.T) {
	conn := newFakeConn()
	source := &fakeSource{payload: predictionPayload()}
	h := startService(t, &fakeDialer{results: []dialResult{{conn: conn}}}, source)
	conn.waitIdle(t)

	require.Eventually(t, h.store.Loaded, waitFor, 5*time.Millisecond, "polled at session start")
	_, source1 := h.store.UpdatedAt()
	assert.Equal(t, store.SourcePoll, source1)

	conn.deliver(t, feed.EventAllLive, tickOne)
	h.clock.Advance(50 * time.Millisecond)

	rows, ok := h.svc.View(FeedAll)
	require.True(t, ok)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Prediction)
	assert.Equal(t, "p-1", rows[0].Prediction.ID)
	assert.Equal(t, matcher.Exact.String(), rows[0].Strategy)

	// Wrong shape clears the store.
	conn.deliver(t, feed.EventPredictions, `{"upcomingMatches":[{"homeTeam":{"name":"Arsenal"}}]}`)
	assert.False(t, h.store.Loaded())

	rows, _ = h.svc.View(FeedAll)
	assert.Nil(t, rows[0].Prediction)
	assert.Equal(t, matcher.None.String(), rows[0].Strategy)

	conn.deliver(t, feed.EventPredictions, `{"upcomingMatches":[{"id":"p-9","homeTeam":{"name":"Ajax"},"awayTeam":{"name":"PSV"}}]}`)
	assert.True(t, h.store.Loaded())
	_, source2 := h.store.UpdatedAt()
	assert.Equal(t, store.SourcePush, source2)
}

func TestService_FetchPredictionsErrors(t *testing.T) {
	logger := zerolog.Nop()
	source := &fakeSource{}
	predictions := store.New()
	svc := New(&fakeDialer{}, source, predictions, matcher.New(nil, 0), &logger, Options{})

	predictions.Set([]*entity.Match{entity.NewMatch("p-1")}, store.SourcePoll)

	source.err = errors.New("connection refused")
	svc.fetchPredictions(context.Background(), &logger)
	assert.True(t, predictions.Loaded(), "transport error keeps the previous set")

	source.err = errors.Wrap(api.ErrMalformedPayload, "decode")
	svc.fetchPredictions(context.Background(), &logger)
	assert.False(t, predictions.Loaded())

	source.err = nil
	source.payload = predictionPayload()
	svc.fetchPredictions(context.Background(), &logger)
	assert.True(t, predictions.Loaded())

	source.payload = &entity.PredictionPayload{}
	svc.fetchPredictions(context.Background(), &logger)
	assert.False(t, predictions.Loaded(), "empty payload is not loaded")
}

func TestService_ReconnectsWithBackoff(t *testing.T) {
	first, second := newFakeConn(), newFakeConn()
	dialer := &fakeDialer{results: []dialResult{
		{conn: first},
		{err: errors.New("refused")},
		{err: errors.New("refused")},
		{conn: second},
	}}
	h := startService(t, dialer, nil)
	first.waitIdle(t)

	first.failed <- errors.New("connection reset")
	second.waitIdle(t)

	assert.True(t, first.closed())
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 5 * time.Second}, h.sleeps.recorded())
	assert.Equal(t, Connected, h.svc.Status().State)

	second.deliver(t, feed.EventAllLive, tickOne)
	h.clock.Advance(50 * time.Millisecond)
	assert.Len(t, h.publishes(), 1)
}

func TestService_MalformedFrameKeepsConnection(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{results: []dialResult{{conn: conn}}}
	h := startService(t, dialer, nil)
	conn.waitIdle(t)

	conn.failed <- errors.Mark(errors.New("bad frame"), feed.ErrMalformedFrame)
	conn.waitIdle(t)

	assert.False(t, conn.closed())
	assert.Equal(t, Connected, h.svc.Status().State)
	assert.Empty(t, h.sleeps.recorded())

	conn.deliver(t, feed.EventAllLive, `{"not":"an array"}`)
	h.clock.Advance(time.Second)
	assert.Empty(t, h.publishes())
}

func TestService_InitialFailureRetriesSession(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{results: []dialResult{
		{err: errors.New("refused")},
		{conn: conn},
	}}
	h := startService(t, dialer, nil)
	conn.waitIdle(t)

	assert.Equal(t, []time.Duration{DefaultSessionRetryDelay}, h.sleeps.recorded())
	assert.Equal(t, Connected, h.svc.Status().State)
}

func TestService_TeardownOnCancel(t *testing.T) {
	conn := newFakeConn()
	h := startService(t, &fakeDialer{results: []dialResult{{conn: conn}}}, &fakeSource{payload: predictionPayload()})
	conn.waitIdle(t)
	require.Eventually(t, h.store.Loaded, waitFor, 5*time.Millisecond)

	conn.deliver(t, feed.EventAllLive, tickOne)
	h.stop()

	assert.True(t, conn.closed())
	assert.False(t, h.store.Loaded())
	assert.Equal(t, Disconnected, h.svc.Status().State)
	assert.Zero(t, h.clock.Pending(), "scheduler timers cancelled")

	h.clock.Advance(time.Second)
	assert.Empty(t, h.publishes())
}

func TestService_BackoffHoldsAtLastStep(t *testing.T) {
	logger := zerolog.Nop()
	svc := New(&fakeDialer{}, nil, store.New(), matcher.New(nil, 0), &logger, Options{})

	got := make([]time.Duration, 0, 7)
	for attempt := 0; attempt < 7; attempt++ {
		got = append(got, svc.backoff(attempt))
	}

	assert.Equal(t, []time.Duration{
		0, 2 * time.Second, 5 * time.Second, 10 * time.Second,
		20 * time.Second, 20 * time.Second, 20 * time.Second,
	}, got)
}
