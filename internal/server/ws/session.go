package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/channels"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/subscriptions"
	"github.com/gorilla/websocket"
)

type closeRequest struct {
	code int
	text string
}

// session couples a WebSocket connection with its channel. Only writePump
// writes to the connection.
type session struct {
	conn   *websocket.Conn
	ch     *channels.Channel
	logger logging.Logger

	out     chan Frame
	closing chan closeRequest
	done    chan struct{}
}

func newSession(conn *websocket.Conn, ch *channels.Channel, l logging.Logger) *session {
	return &session{
		conn:    conn,
		ch:      ch,
		logger:  l,
		out:     make(chan Frame, sendBuffer),
		closing: make(chan closeRequest, 1),
		done:    make(chan struct{}),
	}
}

// onClose runs once, when the channel closes for any reason.
func (s *session) onClose(reason channels.CloseReason) {
	code, text, ok := closeFrame(reason)
	if !ok {
		code, text = websocket.CloseNormalClosure, ""
	}
	select {
	case s.closing <- closeRequest{code: code, text: text}:
	default:
	}
}

func (s *session) send(f Frame) bool {
	select {
	case s.out <- f:
		return true
	case <-s.done:
		return false
	}
}

func (s *session) sendPayload(id, typ string, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(s.ch.Context(), "failed to marshal frame", "type", typ, "error", err)
		return false
	}
	return s.send(Frame{ID: id, Type: typ, Payload: raw})
}

func (s *session) sendError(id string, err error) {
	kind := common.ErrorKind(err)
	msg := err.Error()
	if kind == "internal" {
		s.logger.Error(s.ch.Context(), "subscription failed", "id", id, "error", err)
		msg = common.ErrorInternal.Error()
	}
	s.sendPayload(id, TypeError, ErrorPayload{Kind: kind, Message: msg})
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(s.done)
		s.conn.Close()
	}()

	for {
		select {
		case f := <-s.out:
			if err := s.write(f); err != nil {
				s.ch.Close(channels.ReasonClientGone)
				return
			}

		case req := <-s.closing:
			s.flush()
			msg := websocket.FormatCloseMessage(req.code, req.text)
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.ch.Close(channels.ReasonClientGone)
				return
			}
		}
	}
}

func (s *session) write(f Frame) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(f)
}

// flush writes the frames queued before the close request.
func (s *session) flush() {
	for {
		select {
		case f := <-s.out:
			if err := s.write(f); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *session) readPump() {
	defer s.ch.Close(channels.ReasonClientGone)

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.ch.Close(channels.ReasonBadRequest)
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Debug(s.ch.Context(), "websocket read error", "error", err)
			}
			return
		}
		if !s.handle(f) {
			return
		}
	}
}

// handle processes one client frame. It returns false once the channel
// has been closed.
func (s *session) handle(f Frame) bool {
	ctx := s.ch.Context()

	switch f.Type {
	case TypeConnectionInit:
		if s.ch.State() != channels.StateConnecting {
			s.ch.Close(channels.ReasonBadRequest)
			return false
		}
		var p InitPayload
		if len(f.Payload) > 0 {
			if err := json.Unmarshal(f.Payload, &p); err != nil {
				s.ch.Close(channels.ReasonBadRequest)
				return false
			}
		}
		user, err := s.ch.Authenticate(ctx, p.AuthToken)
		if err != nil {
			s.logger.Info(ctx, "channel refused", "error", err)
			s.ch.Close(channels.ReasonInvalidToken)
			return false
		}
		s.logger.Debug(ctx, "channel authenticated", "user_id", user.ID)
		s.send(Frame{Type: TypeConnectionAck})

	case TypeSubscribe:
		if s.ch.State() == channels.StateConnecting {
			s.ch.Close(channels.ReasonUnauthorized)
			return false
		}
		if f.ID == "" {
			s.sendError(f.ID, fmt.Errorf("%w: subscribe frame without id", common.ErrInvalidArgument))
			return true
		}
		var p SubscribePayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			s.sendError(f.ID, fmt.Errorf("%w: %v", common.ErrInvalidArgument, err))
			return true
		}
		sub, err := subscriptions.Parse(p.Kind, p.Args)
		if err != nil {
			s.sendError(f.ID, err)
			return true
		}
		stream, err := s.ch.Subscribe(ctx, f.ID, sub)
		if err != nil {
			s.sendError(f.ID, err)
			if errors.Is(err, common.ErrorUnauthorized) {
				s.ch.Close(channels.ReasonUnauthorized)
				return false
			}
			return true
		}
		go s.pump(f.ID, stream)

	case TypeComplete:
		s.ch.Unsubscribe(f.ID)

	case TypePing:
		s.send(Frame{Type: TypePong})

	case TypePong:

	default:
		s.ch.Close(channels.ReasonBadRequest)
		return false
	}
	return true
}

// pump forwards one subscription's events until it is completed, the
// channel closes or the stream fails.
func (s *session) pump(id string, stream *subscriptions.Stream) {
	ctx := s.ch.Context()
	kind := stream.Subscription().Kind()

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, events.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.sendError(id, err)
			if errors.Is(err, common.ErrorUnauthorized) {
				s.ch.Close(channels.ReasonUnauthorized)
				return
			}
			s.ch.Unsubscribe(id)
			return
		}
		if !s.sendPayload(id, TypeNext, nextPayload(kind, ev)) {
			return
		}
	}
}
