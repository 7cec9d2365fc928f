package friends

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// Repository stores the symmetric friendship relation.
type Repository interface {
	// Add records the friendship in both directions; repeating it is a no-op.
	Add(ctx context.Context, userID, friendID int64) error
	List(ctx context.Context, userID int64) ([]*models.User, error)
	IsFriend(ctx context.Context, userID, friendID int64) (bool, error)
}
