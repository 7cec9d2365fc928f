package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/repomanager"
)

const maxMessageLength = 4000

// CreateMessage posts text to the group and publishes it to live
// subscribers.
func (s *Service) CreateMessage(ctx context.Context, groupID int64, text string) (*models.Message, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) > maxMessageLength {
		return nil, fmt.Errorf("%w: message must be 1-%d characters", common.ErrInvalidArgument, maxMessageLength)
	}

	var msg *models.Message
	err = s.repomanager.WithTx(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := memberGroup(ctx, r, groupID, me.ID); err != nil {
			return err
		}
		msg, err = r.Messages.Create(ctx, &models.Message{GroupID: groupID, UserID: me.ID, Text: text})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.MessageAdded{Message: msg})
	return msg, nil
}

// Messages returns one page of the group's history, newest first.
func (s *Service) Messages(ctx context.Context, groupID int64, args pagination.Args) (*pagination.Connection, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	r := s.repomanager.Repos()
	if _, err := memberGroup(ctx, r, groupID, me.ID); err != nil {
		return nil, err
	}

	w, err := s.limits.Resolve(args)
	if err != nil {
		return nil, err
	}
	return pagination.Paginate(ctx, r.Messages, groupID, w)
}
