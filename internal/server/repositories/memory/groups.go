package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/groups"
)

type GroupRepository struct {
	s *Store
}

func (r *GroupRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.lastGroupID++
	group.ID = r.s.lastGroupID
	group.CreatedAt = r.s.now()

	r.s.groups[group.ID] = copyGroup(group)
	r.s.members[group.ID] = make(map[int64]time.Time)
	return group, nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyGroup(g), nil
}

// GetByIDForUpdate needs no lock of its own: the manager runs transactions
// one at a time.
func (r *GroupRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Group, error) {
	return r.GetByID(ctx, id)
}

func (r *GroupRepository) Update(ctx context.Context, id int64, upd groups.Update) (*models.Group, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.Name != nil {
		g.Name = *upd.Name
	}
	if upd.Icon != nil {
		g.Icon = *upd.Icon
	}
	return copyGroup(g), nil
}

func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.groups[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.groups, id)
	delete(r.s.members, id)
	delete(r.s.messages, id)
	return nil
}

func (r *GroupRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*models.Group
	for groupID, members := range r.s.members {
		if _, ok := members[userID]; ok {
			result = append(result, copyGroup(r.s.groups[groupID]))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *GroupRepository) AddMembers(ctx context.Context, groupID int64, userIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	members, ok := r.s.members[groupID]
	if !ok {
		return common.ErrorNotFound
	}
	for _, userID := range userIDs {
		if _, ok := r.s.users[userID]; !ok {
			return common.ErrorNotFound
		}
	}
	for _, userID := range userIDs {
		if _, ok := members[userID]; !ok {
			members[userID] = r.s.now()
		}
	}
	return nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	members := r.s.members[groupID]
	if _, ok := members[userID]; !ok {
		return common.ErrorNotFound
	}
	delete(members, userID)
	return nil
}

func (r *GroupRepository) CountMembers(ctx context.Context, groupID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.members[groupID]), nil
}

func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.members[groupID][userID]
	return ok, nil
}

func (r *GroupRepository) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.memberIDs(groupID), nil
}

func (r *GroupRepository) Members(ctx context.Context, groupID int64) ([]*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := r.s.memberIDs(groupID)
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		u := r.s.users[id]
		users = append(users, &models.User{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return users, nil
}

// memberIDs expects the caller to hold the lock.
func (s *Store) memberIDs(groupID int64) []int64 {
	ids := make([]int64, 0, len(s.members[groupID]))
	for id := range s.members[groupID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
