package users

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) (*models.User, error)
	// UpdatePassword stores a new hash and bumps the token version in one
	// statement, returning the new version.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error)
	IncrementTokenVersion(ctx context.Context, id int64) (int64, error)
}
