package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/server/repositories/memory"
)

// InMemoryRepositoryManager serves every repository from one memory.Store.
// WithTx serializes transactions against each other but offers no rollback.
type InMemoryRepositoryManager struct {
	store *memory.Store
	txMu  sync.Mutex
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Repos() Repositories {
	return Repositories{
		Users:    m.store.Users(),
		Groups:   m.store.Groups(),
		Friends:  m.store.Friends(),
		Messages: m.store.Messages(),
	}
}

func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m.Repos())
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
