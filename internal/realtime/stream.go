package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ovenline/pizzeria-backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	maxReadMsg = 512
)

// Streamer upgrades HTTP requests into per-user WebSocket streams fed by a Hub.
type Streamer struct {
	hub          *Hub
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	logg         *logger.Logger
}

func NewStreamer(hub *Hub, allowedOrigins []string, pingInterval time.Duration, logg *logger.Logger) *Streamer {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Streamer{
		hub:          hub,
		pingInterval: pingInterval,
		logg:         logg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Serve blocks for the lifetime of the connection.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logg.Warn(r.Context(), "websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.hub.Register(userID)
	defer s.hub.Unregister(sub)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.readPump(conn, s.pingInterval, cancel)

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames and cancels the stream once the peer goes
// away or stops answering pings.
func (s *Streamer) readPump(conn *websocket.Conn, pingInterval time.Duration, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxReadMsg)
	deadline := 2 * pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]struct{}{}
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
