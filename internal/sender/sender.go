package sender

import (
	"context"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"livebets/livematch/internal/entity"
	"livebets/livematch/internal/service"
)

const sendBuffer = 150

// Source is the session as seen by the UI.
type Source interface {
	Status() service.Status
	View(feed service.Feed) ([]service.Row, bool)
	Pair(matches []*entity.Match) []service.Row
	Pause()
	Resume()
}

type message struct {
	feed    service.Feed
	matches []*entity.Match
}

// frame is what /output clients receive: the same rows /matches serves.
type frame struct {
	Feed    service.Feed  `json:"feed"`
	Matches []service.Row `json:"matches"`
}

type Sender struct {
	source         Source
	logger         *zerolog.Logger
	clientConns    map[*websocket.Conn]bool
	clientConnsMux sync.Mutex
	sendChan       chan message
	upgrader       websocket.Upgrader
}

func New(source Source, logger *zerolog.Logger) *Sender {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &Sender{
		source:      source,
		logger:      logger,
		clientConns: make(map[*websocket.Conn]bool),
		sendChan:    make(chan message, sendBuffer),
		upgrader:    upgrader,
	}
}

// Handler serves the read-only lists, the status and the pause control.
func (s *Sender) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /matches", s.HandleMatches)
	mux.HandleFunc("GET /status", s.HandleStatus)
	mux.HandleFunc("POST /pause", s.HandlePause)
	mux.HandleFunc("POST /resume", s.HandleResume)
	mux.HandleFunc("GET /output", s.HandleClientConn)
	return mux
}

// Publish queues a merged list for the websocket clients. It never blocks
// the caller; a full queue drops the list.
func (s *Sender) Publish(feed service.Feed, matches []*entity.Match) {
	select {
	case s.sendChan <- message{feed: feed, matches: matches}:
	default:
		s.logger.Warn().Str("feed", string(feed)).Msg("[Sender.Publish] send queue full, dropping list")
	}
}

func (s *Sender) SendingToClients(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case msg := <-s.sendChan:
			byteMsg, err := sonic.Marshal(frame{Feed: msg.feed, Matches: s.source.Pair(msg.matches)})
			if err != nil {
				s.logger.Error().Err(err).Msg("[Sender.SendingToClients] marshal")
				continue
			}
			s.sendingToClients(byteMsg)

		case <-ctx.Done():
			s.clientConnsMux.Lock()
			for conn := range s.clientConns {
				conn.Close()
				delete(s.clientConns, conn)
			}
			s.clientConnsMux.Unlock()
			return
		}
	}
}

func (s *Sender) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func (s *Sender) HandleMatches(w http.ResponseWriter, r *http.Request) {
	feed := service.FeedAll
	if name := r.URL.Query().Get("feed"); name != "" {
		feed = service.Feed(name)
	}

	rows, ok := s.source.View(feed)
	if !ok {
		http.Error(w, "unknown feed", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, rows)
}

func (s *Sender) HandleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.source.Status())
}

func (s *Sender) HandlePause(w http.ResponseWriter, r *http.Request) {
	s.source.Pause()
	s.writeJSON(w, s.source.Status())
}

func (s *Sender) HandleResume(w http.ResponseWriter, r *http.Request) {
	s.source.Resume()
	s.writeJSON(w, s.source.Status())
}

func (s *Sender) writeJSON(w http.ResponseWriter, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("[Sender.writeJSON] marshal")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Sender) HandleClientConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("[Sender.HandleClientConn] upgrade")
		return
	}

	s.clientConnsMux.Lock()
	s.clientConns[conn] = true
	s.clientConnsMux.Unlock()

	s.logger.Info().Str("client", conn.RemoteAddr().String()).Msg("client connected")

	go func() {
		defer func() {
			s.clientConnsMux.Lock()
			delete(s.clientConns, conn)
			s.clientConnsMux.Unlock()
			conn.Close()
			s.logger.Info().Str("client", conn.RemoteAddr().String()).Msg("client disconnected")
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					s.logger.Error().Err(err).Msg("[Sender.HandleClientConn] read from client")
				}
				return
			}
		}
	}()
}

// Clients returns the number of connected websocket clients.
func (s *Sender) Clients() int {
	s.clientConnsMux.Lock()
	defer s.clientConnsMux.Unlock()

	return len(s.clientConns)
}

func (s *Sender) sendingToClients(byteMsg []byte) {
	s.clientConnsMux.Lock()
	defer s.clientConnsMux.Unlock()

	for conn := range s.clientConns {
		if err := conn.WriteMessage(websocket.TextMessage, byteMsg); err != nil {
			s.logger.Error().Err(err).Str("client", conn.RemoteAddr().String()).Msg("[Sender.sendingToClients] write")
			conn.Close()
			delete(s.clientConns, conn)
		}
	}
}
