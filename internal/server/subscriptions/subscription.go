// Package subscriptions authorizes live subscriptions and filters the event
// stream of each one for its principal.
package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// Kinds as they appear in subscribe frames.
const (
	KindMessageAdded = "messageAdded"
	KindGroupAdded   = "groupAdded"
)

// MembershipChecker answers membership questions at evaluation time.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Subscription is the closed set of live subscription kinds. Every kind
// supplies its topic, its subscribe-time check and its per-event filter.
type Subscription interface {
	Kind() string
	Topic() events.Topic

	authorize(ctx context.Context, members MembershipChecker, user *models.User) error
	accept(ctx context.Context, members MembershipChecker, user *models.User, ev events.Event) (bool, error)
}

// MessageAdded watches new messages in the listed groups.
type MessageAdded struct {
	GroupIDs []int64 `json:"groupIds"`
}

func (MessageAdded) Kind() string        { return KindMessageAdded }
func (MessageAdded) Topic() events.Topic { return events.TopicMessageAdded }

func (s MessageAdded) authorize(ctx context.Context, members MembershipChecker, user *models.User) error {
	if len(s.GroupIDs) == 0 {
		return fmt.Errorf("%w: groupIds must not be empty", common.ErrInvalidArgument)
	}
	for _, groupID := range s.GroupIDs {
		ok, err := members.IsMember(ctx, groupID, user.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: not a member of group %d", common.ErrorUnauthorized, groupID)
		}
	}
	return nil
}

// accept re-reads membership for every candidate event; a member who left
// stops receiving events without the subscription being reopened.
func (s MessageAdded) accept(ctx context.Context, members MembershipChecker, user *models.User, ev events.Event) (bool, error) {
	added, ok := ev.(events.MessageAdded)
	if !ok || added.Message == nil {
		return false, nil
	}
	msg := added.Message
	if msg.UserID == user.ID || !slices.Contains(s.GroupIDs, msg.GroupID) {
		return false, nil
	}
	return members.IsMember(ctx, msg.GroupID, user.ID)
}

// GroupAdded announces groups the user was added to by someone else.
// UserID zero means the subscribing user.
type GroupAdded struct {
	UserID int64 `json:"userId,omitempty"`
}

func (GroupAdded) Kind() string        { return KindGroupAdded }
func (GroupAdded) Topic() events.Topic { return events.TopicGroupAdded }

func (s GroupAdded) authorize(ctx context.Context, members MembershipChecker, user *models.User) error {
	if s.UserID != 0 && s.UserID != user.ID {
		return fmt.Errorf("%w: cannot watch groups of another user", common.ErrorUnauthorized)
	}
	return nil
}

func (s GroupAdded) accept(ctx context.Context, members MembershipChecker, user *models.User, ev events.Event) (bool, error) {
	added, ok := ev.(events.GroupAdded)
	if !ok {
		return false, nil
	}
	return added.CreatorID != user.ID && slices.Contains(added.MemberIDs, user.ID), nil
}

// Parse decodes the arguments of a subscribe request.
func Parse(kind string, raw json.RawMessage) (Subscription, error) {
	switch kind {
	case KindMessageAdded:
		var s MessageAdded
		if err := decodeArgs(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case KindGroupAdded:
		var s GroupAdded
		if err := decodeArgs(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown subscription %q", common.ErrInvalidArgument, kind)
	}
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidArgument, err)
	}
	return nil
}
