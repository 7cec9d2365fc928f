package messages

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// Query selects a window of a group's history. OlderThan and NewerThan are
// exclusive id bounds. Results are ordered by id descending unless
// Ascending is set.
type Query struct {
	GroupID   int64
	OlderThan *int64
	NewerThan *int64
	Limit     int
	Ascending bool
}

// Repository stores immutable chat messages.
type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	List(ctx context.Context, q Query) ([]*models.Message, error)
	// ExistsOlder reports whether the group has a message with id < id.
	ExistsOlder(ctx context.Context, groupID, id int64) (bool, error)
	// ExistsNewer reports whether the group has a message with id > id.
	ExistsNewer(ctx context.Context, groupID, id int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error)
}
