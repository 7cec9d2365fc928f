package groups

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// Update carries the optional fields of a group edit; nil leaves the stored
// value unchanged.
type Update struct {
	Name *string
	Icon *string
}

// Repository stores groups and their memberships.
type Repository interface {
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	GetByID(ctx context.Context, id int64) (*models.Group, error)
	// GetByIDForUpdate is GetByID holding a row lock until the enclosing
	// transaction ends. Membership changes take it first.
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Group, error)
	Update(ctx context.Context, id int64, upd Update) (*models.Group, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.Group, error)

	// AddMembers ignores users that already belong to the group.
	AddMembers(ctx context.Context, groupID int64, userIDs []int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	CountMembers(ctx context.Context, groupID int64) (int, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	Members(ctx context.Context, groupID int64) ([]*models.User, error)
}
