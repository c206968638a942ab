package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"livebets/livematch/cmd/config"
	"livebets/livematch/internal/api"
	"livebets/livematch/internal/entity"
	"livebets/livematch/internal/feed"
	"livebets/livematch/internal/matcher"
	"livebets/livematch/internal/merge"
	"livebets/livematch/internal/parse"
	"livebets/livematch/internal/scheduler"
	"livebets/livematch/internal/store"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Feed names one live list kept by the session.
type Feed string

const (
	FeedAll       Feed = "all"
	FeedArbitrage Feed = "arbitrage"
)

var Feeds = []Feed{FeedAll, FeedArbitrage}

func feedOf(event string) (Feed, bool) {
	switch event {
	case feed.EventAllLive:
		return FeedAll, true
	case feed.EventArbitrageLive:
		return FeedArbitrage, true
	}
	return "", false
}

var DefaultBackoff = []time.Duration{0, 2 * time.Second, 5 * time.Second, 10 * time.Second, 20 * time.Second}

const (
	DefaultSessionRetryDelay = 30 * time.Second
	DefaultPollInterval      = 6 * time.Hour
)

type PredictionSource interface {
	GetPredictions(ctx context.Context) (*entity.PredictionPayload, error)
}

// PublishFunc receives the merged list of a feed after every drain.
type PublishFunc func(feed Feed, matches []*entity.Match)

type Options struct {
	Backoff           []time.Duration
	SessionRetryDelay time.Duration
	PollInterval      time.Duration
	Debounce          time.Duration
	DrainInterval     time.Duration

	Clock scheduler.Clock
	Sleep func(ctx context.Context, d time.Duration) error
}

func OptionsFromConfig(feedCfg config.FeedConfig, predictionCfg config.PredictionConfig, mergeCfg config.MergeConfig) Options {
	return Options{
		Backoff:           feedCfg.Backoff,
		SessionRetryDelay: feedCfg.SessionRetryDelay,
		PollInterval:      predictionCfg.PollInterval,
		Debounce:          mergeCfg.Debounce,
		DrainInterval:     mergeCfg.DrainInterval,
	}
}

func (o *Options) setDefaults() {
	if len(o.Backoff) == 0 {
		o.Backoff = DefaultBackoff
	}
	if o.SessionRetryDelay <= 0 {
		o.SessionRetryDelay = DefaultSessionRetryDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Debounce <= 0 {
		o.Debounce = scheduler.DefaultDebounce
	}
	if o.DrainInterval <= 0 {
		o.DrainInterval = scheduler.DefaultInterval
	}
	if o.Clock == nil {
		o.Clock = scheduler.RealClock{}
	}
	if o.Sleep == nil {
		o.Sleep = sleep
	}
}

type pipeline struct {
	scheduler *scheduler.Scheduler
	merger    *merge.Merger
}

// Service is the live feed session: it owns the connection, routes pushed
// events into per-feed pipelines and keeps the prediction store fresh.
type Service struct {
	dialer      feed.Dialer
	source      PredictionSource
	predictions *store.PredictionStore
	matcher     *matcher.Matcher
	logger      *zerolog.Logger
	opts        Options

	paused  atomic.Bool
	publish atomic.Pointer[PublishFunc]

	mu        sync.RWMutex
	state     State
	sessionID string
	conn      feed.Conn
	pipelines map[Feed]*pipeline
}

func New(
	dialer feed.Dialer,
	source PredictionSource,
	predictions *store.PredictionStore,
	matcher *matcher.Matcher,
	logger *zerolog.Logger,
	opts Options,
) *Service {
	opts.setDefaults()

	pipelines := make(map[Feed]*pipeline, len(Feeds))
	for _, f := range Feeds {
		pipelines[f] = &pipeline{merger: merge.New()}
	}

	return &Service{
		dialer:      dialer,
		source:      source,
		predictions: predictions,
		matcher:     matcher,
		logger:      logger,
		opts:        opts,
		pipelines:   pipelines,
	}
}

// OnPublish sets the callback that receives merged lists.
func (s *Service) OnPublish(fn PublishFunc) {
	s.publish.Store(&fn)
}

// Run keeps a session alive until ctx is cancelled. A session whose first
// connect fails is retried as a whole after the session retry delay.
func (s *Service) Run(ctx context.Context) {
	for {
		err := s.runSession(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Error().Err(err).Dur("retry_in", s.opts.SessionRetryDelay).Msg("[Service.Run] session failed to start")
		}
		if s.opts.Sleep(ctx, s.opts.SessionRetryDelay) != nil {
			return
		}
	}
}

func (s *Service) runSession(ctx context.Context) error {
	sessionID := uuid.NewString()
	logger := s.logger.With().Str("session", sessionID).Logger()

	s.mu.Lock()
	s.sessionID = sessionID
	s.state = Connecting
	s.mu.Unlock()

	conn, err := s.dialer.Dial(ctx)
	if err == nil && !s.attach(ctx, conn) {
		err = ctx.Err()
	}
	if err != nil {
		s.setState(Disconnected)
		return errors.Wrap(err, "connect")
	}

	s.startPipelines(&logger)
	s.setState(Connected)
	logger.Info().Msg("feed connected")

	sessionCtx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	wg.Go(func() {
		<-sessionCtx.Done()
		s.detach()
	})
	wg.Go(func() {
		s.pollPredictions(sessionCtx, &logger)
	})

	s.readLoop(sessionCtx, conn, &logger)

	cancel()
	wg.Wait()
	s.teardown(&logger)

	return nil
}

func (s *Service) readLoop(ctx context.Context, conn feed.Conn, logger *zerolog.Logger) {
	for {
		event, err := conn.ReadEvent()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, feed.ErrMalformedFrame) {
				logger.Warn().Err(err).Msg("skipping feed frame")
				continue
			}

			logger.Warn().Err(err).Msg("feed connection lost")
			if conn = s.reconnect(ctx, logger); conn == nil {
				return
			}
			continue
		}

		s.route(event, logger)
	}
}

// reconnect walks the backoff schedule, holding at its last step, until a
// dial succeeds or ctx is cancelled.
func (s *Service) reconnect(ctx context.Context, logger *zerolog.Logger) feed.Conn {
	s.detach()
	s.setState(Reconnecting)

	for attempt := 0; ; attempt++ {
		delay := s.backoff(attempt)
		if err := s.opts.Sleep(ctx, delay); err != nil {
			return nil
		}

		conn, err := s.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn().Err(err).Int("attempt", attempt+1).Msg("reconnect failed")
			continue
		}
		if !s.attach(ctx, conn) {
			return nil
		}

		s.setState(Connected)
		logger.Info().Int("attempt", attempt+1).Msg("feed reconnected")
		return conn
	}
}

func (s *Service) backoff(attempt int) time.Duration {
	if attempt >= len(s.opts.Backoff) {
		attempt = len(s.opts.Backoff) - 1
	}
	return s.opts.Backoff[attempt]
}

// attach makes conn the current connection unless ctx is already done, in
// which case conn is closed.
func (s *Service) attach(ctx context.Context, conn feed.Conn) bool {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		_ = conn.Close()
		return false
	}
	s.conn = conn
	s.mu.Unlock()
	return true
}

func (s *Service) detach() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Service) route(event feed.Event, logger *zerolog.Logger) {
	if event.Name == feed.EventPredictions {
		var payload entity.PredictionPayload
		if err := sonic.Unmarshal(event.Data, &payload); err != nil {
			logger.Warn().Err(err).Msg("pushed predictions malformed")
			s.predictions.Clear()
			return
		}
		s.loadPredictions(&payload, store.SourcePush, logger)
		return
	}

	f, ok := feedOf(event.Name)
	if !ok {
		logger.Debug().Str("event", event.Name).Msg("ignoring event")
		return
	}
	if s.paused.Load() {
		return
	}

	raws, rejected, err := entity.DecodeRecords(event.Data)
	if err != nil {
		logger.Warn().Err(err).Str("feed", string(f)).Msg("live snapshot malformed")
		return
	}
	if rejected > 0 {
		logger.Warn().Str("feed", string(f)).Int("rejected", rejected).Msg("records that do not decode")
	}

	snapshot, skipped := parse.Snapshot(raws)
	if skipped > 0 {
		logger.Debug().Str("feed", string(f)).Int("skipped", skipped).Msg("records without id")
	}

	s.mu.RLock()
	sched := s.pipelines[f].scheduler
	s.mu.RUnlock()
	if sched != nil {
		sched.Submit(snapshot)
	}
}

func (s *Service) startPipelines(logger *zerolog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range Feeds {
		p := s.pipelines[f]
		p.merger.Reset()
		p.scheduler = scheduler.New(s.opts.Clock, s.opts.Debounce, s.opts.DrainInterval, s.drainFunc(f, p.merger, logger))
		p.scheduler.Start()
	}
}

func (s *Service) drainFunc(f Feed, merger *merge.Merger, logger *zerolog.Logger) scheduler.DrainFunc {
	return func(snapshot *entity.Snapshot) {
		matches := merger.Apply(snapshot)
		logger.Debug().Str("feed", string(f)).Int("matches", len(matches)).Msg("merged")

		if fn := s.publish.Load(); fn != nil {
			(*fn)(f, matches)
		}
	}
}

func (s *Service) pollPredictions(ctx context.Context, logger *zerolog.Logger) {
	if s.source == nil {
		return
	}

	s.fetchPredictions(ctx, logger)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.fetchPredictions(ctx, logger)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) fetchPredictions(ctx context.Context, logger *zerolog.Logger) {
	start := time.Now()

	payload, err := s.source.GetPredictions(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, api.ErrMalformedPayload) {
			logger.Warn().Err(err).Msg("predictions malformed")
			s.predictions.Clear()
			return
		}
		logger.Error().Err(err).Msg("[Service.fetchPredictions] error get predictions, keeping previous set")
		return
	}

	s.loadPredictions(payload, store.SourcePoll, logger)
	logger.Info().Dur("elapsed", time.Since(start)).Int("predictions", s.predictions.Len()).Msg("predictions polled")
}

func (s *Service) loadPredictions(payload *entity.PredictionPayload, source store.Source, logger *zerolog.Logger) {
	predictions, err := parse.Predictions(payload)
	if err != nil {
		logger.Warn().Err(err).Str("source", string(source)).Msg("predictions not loaded")
		s.predictions.Clear()
		return
	}
	s.predictions.Set(predictions, source)
}

func (s *Service) teardown(logger *zerolog.Logger) {
	s.mu.Lock()
	schedulers := make([]*scheduler.Scheduler, 0, len(s.pipelines))
	for _, p := range s.pipelines {
		if p.scheduler != nil {
			schedulers = append(schedulers, p.scheduler)
		}
	}
	s.mu.Unlock()

	// Stop waits for a running drain, which may publish; do it unlocked.
	for _, sched := range schedulers {
		sched.Stop()
	}

	s.detach()
	s.predictions.Clear()
	s.setState(Disconnected)
	logger.Info().Msg("session closed")
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Service) Pause() {
	s.paused.Store(true)
	s.logger.Info().Msg("live updates paused")
}

func (s *Service) Resume() {
	s.paused.Store(false)
	s.logger.Info().Msg("live updates resumed")
}

type Status struct {
	State             State     `json:"state"`
	Connected         bool      `json:"connected"`
	Paused            bool      `json:"paused"`
	SessionID         string    `json:"sessionId"`
	PredictionsLoaded bool      `json:"predictionsLoaded"`
	Predictions       int       `json:"predictions"`
	PredictionsAt     time.Time `json:"predictionsUpdatedAt"`
}

func (s *Service) Status() Status {
	s.mu.RLock()
	state, sessionID := s.state, s.sessionID
	s.mu.RUnlock()

	updatedAt, _ := s.predictions.UpdatedAt()
	return Status{
		State:             state,
		Connected:         state == Connected,
		Paused:            s.paused.Load(),
		SessionID:         sessionID,
		PredictionsLoaded: s.predictions.Loaded(),
		Predictions:       s.predictions.Len(),
		PredictionsAt:     updatedAt,
	}
}

// Matches returns the merged list of a feed. ok is false for unknown feeds.
func (s *Service) Matches(f Feed) ([]*entity.Match, bool) {
	s.mu.RLock()
	p, ok := s.pipelines[f]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return p.merger.Current(), true
}

// Row is a live match with the prediction it was paired with, if any.
type Row struct {
	Match      *entity.Match `json:"match"`
	Prediction *entity.Match `json:"prediction"`
	Strategy   string        `json:"strategy"`
}

// View pairs every match of a feed with a prediction.
func (s *Service) View(f Feed) ([]Row, bool) {
	matches, ok := s.Matches(f)
	if !ok {
		return nil, false
	}
	return s.Pair(matches), true
}

// Pair attaches the current prediction and the pairing strategy to each match.
func (s *Service) Pair(matches []*entity.Match) []Row {
	candidates := s.matcher.Prepare(s.predictions.Get())
	rows := make([]Row, 0, len(matches))
	for _, match := range matches {
		prediction, strategy := s.matcher.Lookup(candidates, match.HomeTeam.Name, match.AwayTeam.Name, match.ID)
		rows = append(rows, Row{
			Match:      match,
			Prediction: prediction,
			Strategy:   strategy.String(),
		})
	}
	return rows
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
