// Package ws serves the live notification feed over websockets and mounts
// the RPC handlers on a chi router.
package ws

import (
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tubebox/internal/app/notification"
	"github.com/osa030/tubebox/internal/app/session"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1024
)

// Server serves the health check and the websocket feed.
type Server struct {
	session  *session.Manager
	upgrader websocket.Upgrader
}

// NewServer creates a websocket server. An empty origin list allows any origin.
func NewServer(mgr *session.Manager, allowedOrigins []string) *Server {
	s := &Server{session: mgr}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return slices.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}
	return s
}

// Router creates a chi.Router with the health check and the feed. RPC
// handlers are mounted on it by the caller.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer, requestLogger)
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWS)

	return r
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zlog.Debug().Msgf("http request: method=%s path=%s status=%d duration=%v remote=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), r.RemoteAddr)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.session.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"player_ready": status.Player.IsPlayerReady,
		"player":       status.Player.Status,
		"queue":        len(status.Queue.Items),
		"subscribers":  s.session.Notifications().SubscriberCount(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("websocket upgrade failed: remote=%s error=%v", r.RemoteAddr, err)
		return
	}
	c := &client{conn: conn}
	notifManager := s.session.Notifications()

	// Hold the write lock so broadcasts queue up behind the snapshot
	c.mu.Lock()
	subscriptionID := notifManager.Subscribe(c)
	err = c.writeLocked(&notification.Notification{
		Type:       notification.TypeInitial,
		SequenceNo: notifManager.NextSequenceNo(),
		Payload:    s.session.Status(),
	})
	c.mu.Unlock()
	if err != nil {
		notifManager.Unsubscribe(subscriptionID)
		_ = conn.Close()
		return
	}
	zlog.Info().Msgf("websocket connected: subscription_id=%s remote=%s", subscriptionID, r.RemoteAddr)

	done := make(chan struct{})
	go c.pingLoop(done)
	go func() {
		select {
		case <-s.session.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			_ = conn.Close()
		case <-done:
		}
	}()

	c.readLoop()

	close(done)
	notifManager.Unsubscribe(subscriptionID)
	c.close()
	zlog.Info().Msgf("websocket disconnected: subscription_id=%s", subscriptionID)
}

// client adapts a websocket connection to notification.Stream. The
// connection supports one concurrent writer.
type client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (c *client) Send(n *notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.writeLocked(n)
}

func (c *client) writeLocked(n *notification.Notification) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(n)
}

// readLoop discards client messages and returns when the peer goes away.
func (c *client) readLoop() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zlog.Debug().Msgf("websocket read error: %v", err)
			}
			return
		}
	}
}

func (c *client) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	_ = c.conn.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Msgf("failed to write response: %v", err)
	}
}
