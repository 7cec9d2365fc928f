// Package events is the in-process publish/subscribe bus for live chat
// events. Delivery is best effort: nothing is persisted and a subscriber
// that falls behind loses events.
package events

import "github.com/dmitrijs2005/groupchat/internal/server/models"

type Topic string

const (
	TopicMessageAdded Topic = "message_added"
	TopicGroupAdded   Topic = "group_added"
)

// Event is a bus payload. Each payload type belongs to exactly one topic.
type Event interface {
	Topic() Topic
}

// MessageAdded is published after a message is stored.
type MessageAdded struct {
	Message *models.Message `json:"message"`
}

func (MessageAdded) Topic() Topic { return TopicMessageAdded }

// GroupAdded is published when users join a group, either at creation or
// by invitation. MemberIDs lists the users the event announces the group to.
type GroupAdded struct {
	Group     *models.Group `json:"group"`
	CreatorID int64         `json:"creatorId"`
	MemberIDs []int64       `json:"memberIds"`
}

func (GroupAdded) Topic() Topic { return TopicGroupAdded }
