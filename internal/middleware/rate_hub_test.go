package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateWatch/internal/domain/models"
	applogger "RateWatch/pkg/logger"
)

func hubServer(t *testing.T, h *RateHub) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.Join(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRateHubBroadcast(t *testing.T) {
	h := NewRateHub(applogger.Nop())
	h.Start()
	defer h.Stop()
	srv := hubServer(t, h)
	conn := dialHub(t, srv)

	// Join registers asynchronously relative to the dial.
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.sessions) == 1
	}, time.Second, 10*time.Millisecond)

	h.BroadcastObservation(&models.RateObservation{
		ObservedDate: "2025-03-10", RateType: "fixed", RateValue: 6.25, TermYears: 30,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"rate_observation"`)
	assert.Contains(t, string(msg), `"rate_value":6.25`)
}

func TestRateHubJoinAfterStop(t *testing.T) {
	h := NewRateHub(applogger.Nop())
	h.Start()
	h.Stop()
	srv := hubServer(t, h)
	conn := dialHub(t, srv)

	// Stopped hub rejects sessions by closing the connection.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestRateHubRestart(t *testing.T) {
	h := NewRateHub(applogger.Nop(), WithPingInterval(10*time.Millisecond))
	h.Start()
	h.Stop()
	h.Start()
	defer h.Stop()
	srv := hubServer(t, h)
	conn := dialHub(t, srv)

	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// The restarted keepalive loop must still reach new sessions.
	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("no keepalive ping after restart")
	}

	h.BroadcastNotification(&models.Notification{UserID: "b1", Title: "Refinance Opportunity"})
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.sessions) == 1
	}, time.Second, 10*time.Millisecond)
}
