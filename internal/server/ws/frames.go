// Package ws serves live channels over WebSocket with a
// graphql-transport-ws style framing.
package ws

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/server/channels"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/gorilla/websocket"
)

// Subprotocol is offered during the upgrade. Clients that omit it are
// still accepted.
const Subprotocol = "graphql-transport-ws"

// Frame types.
const (
	TypeConnectionInit = "connection_init"
	TypeConnectionAck  = "connection_ack"
	TypeSubscribe      = "subscribe"
	TypeNext           = "next"
	TypeError          = "error"
	TypeComplete       = "complete"
	TypePing           = "ping"
	TypePong           = "pong"
)

// Close codes sent when the server ends a channel.
const (
	CloseBadRequest   = 4400
	CloseInvalidToken = 4401
	CloseUnauthorized = 4403
	CloseInitTimeout  = 4408
)

type Frame struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type InitPayload struct {
	AuthToken string `json:"authToken"`
}

type SubscribePayload struct {
	Kind string          `json:"kind"`
	Args json.RawMessage `json:"args,omitempty"`
}

type ErrorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NextPayload carries one event. Exactly one of the data fields is set,
// matching Kind.
type NextPayload struct {
	Kind         string        `json:"kind"`
	MessageAdded *MessageEvent `json:"messageAdded,omitempty"`
	GroupAdded   *GroupEvent   `json:"groupAdded,omitempty"`
}

type MessageEvent struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"groupId"`
	UserID    int64     `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type GroupEvent struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	AddedBy   int64     `json:"addedBy"`
}

func nextPayload(kind string, ev events.Event) NextPayload {
	p := NextPayload{Kind: kind}
	switch e := ev.(type) {
	case events.MessageAdded:
		m := e.Message
		p.MessageAdded = &MessageEvent{ID: m.ID, GroupID: m.GroupID, UserID: m.UserID, Text: m.Text, CreatedAt: m.CreatedAt}
	case events.GroupAdded:
		g := e.Group
		p.GroupAdded = &GroupEvent{ID: g.ID, Name: g.Name, Icon: g.Icon, CreatedAt: g.CreatedAt, AddedBy: e.CreatorID}
	}
	return p
}

// closeFrame maps a close reason to the code and text of the WebSocket
// close frame. ok is false when no frame should be sent.
func closeFrame(reason channels.CloseReason) (code int, text string, ok bool) {
	switch reason {
	case channels.ReasonInvalidToken:
		return CloseInvalidToken, "invalid token", true
	case channels.ReasonUnauthorized, channels.ReasonSessionRevoked:
		return CloseUnauthorized, reason.String(), true
	case channels.ReasonInitTimeout:
		return CloseInitTimeout, "connection initialisation timeout", true
	case channels.ReasonBadRequest:
		return CloseBadRequest, "bad request", true
	case channels.ReasonShutdown:
		return websocket.CloseGoingAway, reason.String(), true
	default:
		return 0, "", false
	}
}
