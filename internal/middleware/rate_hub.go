package middleware

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

// Event is the envelope pushed to dashboard sessions.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	EventObservation  = "rate_observation"
	EventNotification = "notification"
)

// RateHub fans rate events out to connected dashboard sessions over
// WebSocket. Broadcast never blocks the pipeline: a session that
// cannot keep up is disconnected, it can resubscribe and read the
// current state over the REST surface.
type RateHub struct {
	l            *applogger.Logger
	sendBuf      int
	pingInterval time.Duration
	writeTimeout time.Duration

	mu       sync.Mutex
	sessions map[*session]struct{}
	started  bool
	stopCh   chan struct{}
}

type session struct {
	conn   *websocket.Conn
	sendCh chan []byte
}

type HubOption func(*RateHub)

// WithSendBuffer sets the per-session outbound buffer.
func WithSendBuffer(n int) HubOption {
	return func(h *RateHub) {
		if n > 0 {
			h.sendBuf = n
		}
	}
}

// WithPingInterval sets the keepalive ping period.
func WithPingInterval(d time.Duration) HubOption {
	return func(h *RateHub) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// NewRateHub creates a hub with sensible session defaults.
func NewRateHub(l *applogger.Logger, opts ...HubOption) *RateHub {
	h := &RateHub{
		l:            l,
		sendBuf:      32,
		pingInterval: 30 * time.Second,
		writeTimeout: 10 * time.Second,
		sessions:     make(map[*session]struct{}),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start launches the keepalive loop.
func (h *RateHub) Start() {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.stopCh = make(chan struct{})
	stopCh := h.stopCh
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				h.pingAll()
			}
		}
	}()
}

// Stop closes every session and halts the keepalive loop.
func (h *RateHub) Stop() {
	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return
	}
	h.started = false
	stopCh := h.stopCh
	sessions := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.sessions = make(map[*session]struct{})
	h.mu.Unlock()

	close(stopCh)
	for _, s := range sessions {
		close(s.sendCh)
	}
}

// Join adopts an upgraded connection and blocks until the session
// ends. The caller owns the upgrade; the hub owns the connection from
// here on.
func (h *RateHub) Join(conn *websocket.Conn) {
	s := &session{conn: conn, sendCh: make(chan []byte, h.sendBuf)}

	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.sessions[s] = struct{}{}
	n := len(h.sessions)
	h.mu.Unlock()
	h.l.Debug("dashboard session joined", applogger.Int("sessions", n))

	go h.writePump(s)
	h.readPump(s)
}

// BroadcastObservation pushes a fresh observation to every session.
func (h *RateHub) BroadcastObservation(obs *models.RateObservation) {
	h.broadcast(Event{Type: EventObservation, Data: obs})
}

// BroadcastNotification pushes a refinance alert to every session.
func (h *RateHub) BroadcastNotification(n *models.Notification) {
	h.broadcast(Event{Type: EventNotification, Data: n})
}

func (h *RateHub) broadcast(ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		h.l.Warn("event marshal failed", applogger.Error(err))
		return
	}

	h.mu.Lock()
	var slow []*session
	for s := range h.sessions {
		select {
		case s.sendCh <- b:
		default:
			slow = append(slow, s)
		}
	}
	for _, s := range slow {
		delete(h.sessions, s)
		close(s.sendCh)
	}
	h.mu.Unlock()

	if len(slow) > 0 {
		h.l.Warn("dropped slow dashboard sessions", applogger.Int("count", len(slow)))
	}
}

func (h *RateHub) pingAll() {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		deadline := time.Now().Add(h.writeTimeout)
		if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			h.drop(s)
		}
	}
}

// writePump serializes all writes for one session.
func (h *RateHub) writePump(s *session) {
	for b := range s.sendCh {
		_ = s.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.drop(s)
			break
		}
	}
	s.conn.Close()
}

// readPump drains inbound frames so control messages are processed and
// closes the session when the peer goes away. Sessions are read-only
// subscribers; inbound payloads are discarded.
func (h *RateHub) readPump(s *session) {
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			h.drop(s)
			return
		}
	}
}

func (h *RateHub) drop(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.sendCh)
	}
	h.mu.Unlock()
}
