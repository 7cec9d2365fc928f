package memory

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.emails[user.Email]; taken {
		return nil, common.ErrorAlreadyExists
	}

	r.s.lastUserID++
	user.ID = r.s.lastUserID
	user.TokenVersion = 1
	user.CreatedAt = r.s.now()

	r.s.users[user.ID] = copyUser(user)
	r.s.emails[user.Email] = user.ID
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(r.s.users[id]), nil
}

func (r *UserRepository) UpdateUsername(ctx context.Context, id int64, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.Username = username
	return copyUser(u), nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.TokenVersion++
	return u.TokenVersion, nil
}

func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	u.TokenVersion++
	return u.TokenVersion, nil
}
