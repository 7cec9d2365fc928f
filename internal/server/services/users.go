package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/auth"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 64
)

func validateUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLength {
		return "", fmt.Errorf("%w: username must be 1-%d characters", common.ErrInvalidArgument, maxUsernameLength)
	}
	return username, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d bytes", common.ErrInvalidArgument, minPasswordLength)
	}
	return nil
}

// Signup registers a new user and returns a session for it.
func (s *Service) Signup(ctx context.Context, email, password, username string) (*Session, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed email", common.ErrInvalidArgument)
	}
	if username, err = validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Repos().Users.Create(ctx, &models.User{
		Email:        strings.ToLower(addr.Address),
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return s.session(user)
}

// Login checks the credentials. An unknown email and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Repos().Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: bad credentials", common.ErrorUnauthorized)
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, fmt.Errorf("%w: bad credentials", common.ErrorUnauthorized)
		}
		return nil, err
	}
	return s.session(user)
}

// ChangePassword replaces the password, revokes every outstanding token of
// the user and returns a session carrying the only valid one.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) (*Session, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(me.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, fmt.Errorf("%w: wrong password", common.ErrInvalidArgument)
		}
		return nil, err
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	version, err := s.repomanager.Repos().Users.UpdatePassword(ctx, me.ID, hash)
	if err != nil {
		return nil, err
	}
	s.closeSessions(ctx, me.ID)

	updated := *me
	updated.PasswordHash = hash
	updated.TokenVersion = version
	return s.session(&updated)
}

// Logout invalidates every token of the caller and closes their live
// channels.
func (s *Service) Logout(ctx context.Context) error {
	me, err := s.principal(ctx)
	if err != nil {
		return err
	}
	if _, err := s.repomanager.Repos().Users.IncrementTokenVersion(ctx, me.ID); err != nil {
		return err
	}
	s.closeSessions(ctx, me.ID)
	s.logger.Info(ctx, "user logged out", "user_id", me.ID)
	return nil
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.TokenVersion)
	if err != nil {
		return nil, err
	}
	return &Session{User: privateUser(user), Token: token}, nil
}

// User returns the caller's own record, email included.
func (s *Service) User(ctx context.Context, userID int64) (*models.User, error) {
	me, err := s.self(ctx, userID)
	if err != nil {
		return nil, err
	}
	return privateUser(me), nil
}

func (s *Service) UpdateUser(ctx context.Context, userID int64, username string) (*models.User, error) {
	me, err := s.self(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username, err = validateUsername(username); err != nil {
		return nil, err
	}
	user, err := s.repomanager.Repos().Users.UpdateUsername(ctx, me.ID, username)
	if err != nil {
		return nil, err
	}
	return privateUser(user), nil
}

func (s *Service) UserGroups(ctx context.Context, userID int64) ([]*models.Group, error) {
	me, err := s.self(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repomanager.Repos().Groups.ListByUser(ctx, me.ID)
}

func (s *Service) UserFriends(ctx context.Context, userID int64) ([]*models.User, error) {
	me, err := s.self(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.repomanager.Repos().Friends.List(ctx, me.ID)
	if err != nil {
		return nil, err
	}
	for i, f := range friends {
		friends[i] = publicUser(f)
	}
	return friends, nil
}

// UserMessages returns the caller's newest messages across all groups. A
// zero limit selects the default page size.
func (s *Service) UserMessages(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	me, err := s.self(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case limit < 0:
		return nil, fmt.Errorf("%w: limit must not be negative", common.ErrInvalidArgument)
	case limit == 0:
		limit = s.limits.DefaultSize
	case limit > s.limits.MaxSize:
		limit = s.limits.MaxSize
	}
	return s.repomanager.Repos().Messages.ListByUser(ctx, me.ID, limit)
}

// AddFriend links the caller and friendID in both directions.
func (s *Service) AddFriend(ctx context.Context, friendID int64) error {
	me, err := s.principal(ctx)
	if err != nil {
		return err
	}
	if friendID == me.ID {
		return fmt.Errorf("%w: cannot befriend yourself", common.ErrInvalidArgument)
	}
	if _, err := s.repomanager.Repos().Users.GetByID(ctx, friendID); err != nil {
		return err
	}
	return s.repomanager.Repos().Friends.Add(ctx, me.ID, friendID)
}
