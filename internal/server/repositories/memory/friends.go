package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

type FriendRepository struct {
	s *Store
}

func (r *FriendRepository) Add(ctx context.Context, userID, friendID int64) error {
	if userID == friendID {
		return common.ErrInvalidArgument
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := r.s.users[friendID]; !ok {
		return common.ErrorNotFound
	}
	r.s.link(userID, friendID)
	r.s.link(friendID, userID)
	return nil
}

func (s *Store) link(from, to int64) {
	set, ok := s.friends[from]
	if !ok {
		set = make(map[int64]struct{})
		s.friends[from] = set
	}
	set[to] = struct{}{}
}

func (r *FriendRepository) List(ctx context.Context, userID int64) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.User
	for id := range r.s.friends[userID] {
		u := r.s.users[id]
		result = append(result, &models.User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *FriendRepository) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.friends[userID][friendID]
	return ok, nil
}
