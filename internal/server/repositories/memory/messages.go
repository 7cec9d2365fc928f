package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/messages"
)

// MessageRepository keeps each group's history in ascending id order.
type MessageRepository struct {
	s *Store
}

func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[msg.GroupID]; !ok {
		return nil, common.ErrorNotFound
	}

	r.s.lastMessageID++
	msg.ID = r.s.lastMessageID
	msg.CreatedAt = r.s.now()

	r.s.messages[msg.GroupID] = append(r.s.messages[msg.GroupID], copyMessage(msg))
	return msg, nil
}

func (r *MessageRepository) List(ctx context.Context, q messages.Query) ([]*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	history := r.s.messages[q.GroupID]
	lo, hi := 0, len(history)
	if q.NewerThan != nil {
		lo = sort.Search(len(history), func(i int) bool { return history[i].ID > *q.NewerThan })
	}
	if q.OlderThan != nil {
		hi = sort.Search(len(history), func(i int) bool { return history[i].ID >= *q.OlderThan })
	}
	if lo >= hi || q.Limit <= 0 {
		return nil, nil
	}

	result := make([]*models.Message, 0, min(q.Limit, hi-lo))
	if q.Ascending {
		for i := lo; i < hi && len(result) < q.Limit; i++ {
			result = append(result, copyMessage(history[i]))
		}
	} else {
		for i := hi - 1; i >= lo && len(result) < q.Limit; i-- {
			result = append(result, copyMessage(history[i]))
		}
	}
	return result, nil
}

func (r *MessageRepository) ExistsOlder(ctx context.Context, groupID, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	history := r.s.messages[groupID]
	return len(history) > 0 && history[0].ID < id, nil
}

func (r *MessageRepository) ExistsNewer(ctx context.Context, groupID, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	history := r.s.messages[groupID]
	return len(history) > 0 && history[len(history)-1].ID > id, nil
}

func (r *MessageRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Message
	for _, history := range r.s.messages {
		for _, m := range history {
			if m.UserID == userID {
				result = append(result, copyMessage(m))
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
