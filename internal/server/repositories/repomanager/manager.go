// Package repomanager vends repository sets bound to a connection or a
// transaction and owns schema migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/groupchat/internal/server/repositories/friends"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/groups"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/messages"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/users"
)

// Repositories is one consistent view of the store: either the shared
// connection or a single transaction.
type Repositories struct {
	Users    users.Repository
	Groups   groups.Repository
	Friends  friends.Repository
	Messages messages.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Repos returns repositories bound to the shared connection.
	Repos() Repositories
	// WithTx runs fn with repositories bound to one transaction, committing
	// when fn returns nil.
	WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Close() error
}
