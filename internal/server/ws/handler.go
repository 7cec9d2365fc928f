package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/channels"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 64 * 1024

	sendBuffer = 64
)

// DefaultInitTimeout bounds the wait for connection_init.
const DefaultInitTimeout = 10 * time.Second

// Handler upgrades requests and runs one live channel per connection.
type Handler struct {
	registry    *channels.Registry
	initTimeout time.Duration
	upgrader    websocket.Upgrader
	logger      logging.Logger
}

func NewHandler(r *channels.Registry, initTimeout time.Duration, l logging.Logger) *Handler {
	if initTimeout <= 0 {
		initTimeout = DefaultInitTimeout
	}
	return &Handler{
		registry:    r,
		initTimeout: initTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			Subprotocols:    []string{Subprotocol},
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: l.With("module", "ws"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	ch := h.registry.Open(context.WithoutCancel(r.Context()))
	s := newSession(conn, ch, h.logger.With("channel_id", ch.ID))
	ch.OnClose(s.onClose)

	timer := time.AfterFunc(h.initTimeout, func() {
		if ch.State() == channels.StateConnecting {
			ch.Close(channels.ReasonInitTimeout)
		}
	})
	defer timer.Stop()

	go s.writePump()
	s.readPump()
}
