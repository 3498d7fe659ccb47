// Package websocket attaches dashboard clients to the hub over gorilla/websocket.
package websocket

import (
	"RetailPulse/internal/core/domain"
	"RetailPulse/internal/core/ports"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// closeWait bounds the close frame written when the hub drops a client.
	closeWait = time.Second
	// maxInboundMessage caps keep-alive frames sent by the dashboard.
	maxInboundMessage = 512
)

// connSink adapts one websocket connection to ports.EventSink. The hub's
// drain goroutine is its only writer.
type connSink struct {
	conn *websocket.Conn
}

var _ ports.EventSink = (*connSink)(nil)

func (s *connSink) Send(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *connSink) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))
	return s.conn.Close()
}

// Handler upgrades GET /ws and keeps the subscription alive while the client is.
type Handler struct {
	hub      ports.Broadcaster
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewHandler creates the websocket endpoint. An empty allowedOrigins list, or
// one containing "*", accepts any origin.
func NewHandler(hub ports.Broadcaster, allowedOrigins []string, baseLogger *zerolog.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: baseLogger.With().Str("component", "ws_handler").Logger(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	id := h.hub.Register(&connSink{conn: conn})
	log := h.log.With().Str("subscription_id", id.String()).Str("remote", r.RemoteAddr).Logger()
	log.Info().Msg("Dashboard client connected")

	// Inbound traffic is only drained to notice when the client goes away.
	conn.SetReadLimit(maxInboundMessage)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug().Err(err).Msg("Dashboard client read failed")
			}
			break
		}
	}

	h.hub.Unregister(id)
	log.Info().Msg("Dashboard client disconnected")
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
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
