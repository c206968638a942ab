// Package feed is the push transport between the upstream live source and
// the session. A connection yields named events whose payload is left raw.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	"livebets/livematch/cmd/config"
)

const (
	EventArbitrageLive = "arbitrage-live-matches"
	EventAllLive       = "all-live-matches"
	EventPredictions   = "prediction-data"
)

var (
	ErrClosed = errors.New("feed connection closed")
	// ErrMalformedFrame marks a frame that could not be decoded. The
	// connection stays usable.
	ErrMalformedFrame = errors.New("malformed feed frame")
)

type Event struct {
	Name string
	Data []byte
}

type Conn interface {
	// ReadEvent blocks until the next event arrives.
	ReadEvent() (Event, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type subscribeFrame struct {
	Action string   `json:"action"`
	Events []string `json:"events"`
}

type WebsocketDialer struct {
	cfg    config.FeedConfig
	dialer *websocket.Dialer
}

func NewWebsocketDialer(cfg config.FeedConfig) *WebsocketDialer {
	dialer := *websocket.DefaultDialer
	if cfg.HandshakeTimeout > 0 {
		dialer.HandshakeTimeout = cfg.HandshakeTimeout
	}
	if len(cfg.Events) == 0 {
		cfg.Events = []string{EventArbitrageLive, EventAllLive, EventPredictions}
	}

	return &WebsocketDialer{
		cfg:    cfg,
		dialer: &dialer,
	}
}

// Dial opens the socket and subscribes to the configured events.
func (d *WebsocketDialer) Dial(ctx context.Context) (Conn, error) {
	header := http.Header{}
	if d.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+d.cfg.Token)
	}

	ws, resp, err := d.dialer.DialContext(ctx, d.cfg.Url, header)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial %s: %s", d.cfg.Url, resp.Status)
		}
		return nil, errors.Wrapf(err, "dial %s", d.cfg.Url)
	}

	frame, err := sonic.Marshal(subscribeFrame{Action: "subscribe", Events: d.cfg.Events})
	if err != nil {
		ws.Close()
		return nil, errors.Wrap(err, "encode subscribe frame")
	}
	if err = ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		ws.Close()
		return nil, errors.Wrap(err, "subscribe")
	}

	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws     *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (c *wsConn) ReadEvent() (Event, error) {
	_, msg, err := c.ws.ReadMessage()
	if err != nil {
		if c.isClosed() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Event{}, errors.WithSecondaryError(ErrClosed, err)
		}
		return Event{}, errors.Wrap(err, "read feed frame")
	}

	var env envelope
	if err = sonic.Unmarshal(msg, &env); err != nil {
		return Event{}, errors.Mark(errors.Wrap(err, "decode envelope"), ErrMalformedFrame)
	}
	if env.Event == "" {
		return Event{}, errors.Wrap(ErrMalformedFrame, "envelope without event name")
	}

	return Event{Name: env.Event, Data: env.Data}, nil
}

// Close is safe to call from another goroutine while ReadEvent blocks.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return c.ws.Close()
}

func (c *wsConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}
