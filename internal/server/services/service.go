// Package services holds the authorization mediator: every operation a
// client can perform, each one gated on the principal carried in ctx.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/channels"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/repomanager"
)

// Session is what a successful signup, login or password change returns.
type Session struct {
	User  *models.User
	Token string
}

// IconUpload is a presigned upload target. Key is passed back to
// UpdateGroup once the object has been written.
type IconUpload struct {
	Key string
	URL string
}

// Mediator is the complete set of client operations.
type Mediator interface {
	Signup(ctx context.Context, email, password, username string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (*Session, error)
	Logout(ctx context.Context) error

	User(ctx context.Context, userID int64) (*models.User, error)
	UpdateUser(ctx context.Context, userID int64, username string) (*models.User, error)
	UserGroups(ctx context.Context, userID int64) ([]*models.Group, error)
	UserFriends(ctx context.Context, userID int64) ([]*models.User, error)
	UserMessages(ctx context.Context, userID int64, limit int) ([]*models.Message, error)
	AddFriend(ctx context.Context, friendID int64) error

	CreateGroup(ctx context.Context, name string, userIDs []int64) (*models.Group, error)
	UpdateGroup(ctx context.Context, groupID int64, name, icon *string) (*models.Group, error)
	DeleteGroup(ctx context.Context, groupID int64) error
	LeaveGroup(ctx context.Context, groupID int64) error
	Group(ctx context.Context, groupID int64) (*models.Group, error)
	GroupMembers(ctx context.Context, groupID int64) ([]*models.User, error)
	AddGroupMembers(ctx context.Context, groupID int64, userIDs []int64) (*models.Group, error)
	GroupIconUploadURL(ctx context.Context, groupID int64) (*IconUpload, error)
	GroupIconURL(ctx context.Context, groupID int64) (string, error)

	CreateMessage(ctx context.Context, groupID int64, text string) (*models.Message, error)
	Messages(ctx context.Context, groupID int64, args pagination.Args) (*pagination.Connection, error)
}

type TokenIssuer interface {
	Issue(userID, tokenVersion int64) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev events.Event)
}

// SessionCloser force-closes the live channels of a user.
type SessionCloser interface {
	CloseUser(userID int64, reason channels.CloseReason) int
}

type IconStore interface {
	UploadURL(ctx context.Context, groupID int64) (key, url string, err error)
	DownloadURL(ctx context.Context, key string) (string, error)
}

// Service implements Mediator on top of the repositories.
type Service struct {
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	bus         Publisher
	sessions    SessionCloser
	icons       IconStore
	limits      pagination.Limits
	logger      logging.Logger
}

var _ Mediator = (*Service)(nil)

func NewService(m repomanager.RepositoryManager, tokens TokenIssuer, bus Publisher, sessions SessionCloser,
	icons IconStore, limits pagination.Limits, l logging.Logger) *Service {
	return &Service{
		repomanager: m,
		tokens:      tokens,
		bus:         bus,
		sessions:    sessions,
		icons:       icons,
		limits:      limits.Normalize(),
		logger:      l.With("module", "mediator"),
	}
}

// principal resolves the acting user. Every failure matches
// common.ErrorUnauthorized and keeps the original cause in the chain.
func (s *Service) principal(ctx context.Context) (*models.User, error) {
	user, err := principal.FromContext(ctx).Get(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return user, nil
}

// self resolves the principal and requires it to be userID. Zero stands
// for the principal itself.
func (s *Service) self(ctx context.Context, userID int64) (*models.User, error) {
	me, err := s.principal(ctx)
	if err != nil {
		return nil, err
	}
	if userID != 0 && userID != me.ID {
		return nil, fmt.Errorf("%w: user %d is not the caller", common.ErrorUnauthorized, userID)
	}
	return me, nil
}

// memberGroup loads groupID and requires userID to belong to it. A missing
// group is reported before the membership check.
func memberGroup(ctx context.Context, r repomanager.Repositories, groupID, userID int64) (*models.Group, error) {
	group, err := r.Groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, r, group, userID); err != nil {
		return nil, err
	}
	return group, nil
}

// lockedMemberGroup is memberGroup for transactions that change the member
// set. The group row stays locked until commit, so concurrent leaves see
// each other's removals.
func lockedMemberGroup(ctx context.Context, r repomanager.Repositories, groupID, userID int64) (*models.Group, error) {
	group, err := r.Groups.GetByIDForUpdate(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, r, group, userID); err != nil {
		return nil, err
	}
	return group, nil
}

func requireMember(ctx context.Context, r repomanager.Repositories, group *models.Group, userID int64) error {
	ok, err := r.Groups.IsMember(ctx, group.ID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: not a member of group %d", common.ErrorUnauthorized, group.ID)
	}
	return nil
}

func (s *Service) closeSessions(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	n := s.sessions.CloseUser(userID, channels.ReasonSessionRevoked)
	s.logger.Debug(ctx, "sessions revoked", "user_id", userID, "channels", n)
}

// publicUser strips the fields only the user may see.
func publicUser(u *models.User) *models.User {
	return &models.User{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

// privateUser strips the credential fields.
func privateUser(u *models.User) *models.User {
	out := *u
	out.PasswordHash = ""
	return &out
}
