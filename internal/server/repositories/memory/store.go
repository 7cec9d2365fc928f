// Package memory implements the repositories on process memory. It backs
// the "memory://" DSN and the service-level tests.
package memory

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// Store holds every table behind a single lock. Returned entities are
// copies; callers cannot mutate stored state through them.
type Store struct {
	mu sync.RWMutex

	now func() time.Time

	lastUserID    int64
	lastGroupID   int64
	lastMessageID int64

	users    map[int64]*models.User
	emails   map[string]int64
	groups   map[int64]*models.Group
	members  map[int64]map[int64]time.Time
	friends  map[int64]map[int64]struct{}
	messages map[int64][]*models.Message
}

func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]*models.User),
		emails:   make(map[string]int64),
		groups:   make(map[int64]*models.Group),
		members:  make(map[int64]map[int64]time.Time),
		friends:  make(map[int64]map[int64]struct{}),
		messages: make(map[int64][]*models.Message),
	}
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Groups() *GroupRepository     { return &GroupRepository{s: s} }
func (s *Store) Friends() *FriendRepository   { return &FriendRepository{s: s} }
func (s *Store) Messages() *MessageRepository { return &MessageRepository{s: s} }

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyGroup(g *models.Group) *models.Group {
	c := *g
	return &c
}

func copyMessage(m *models.Message) *models.Message {
	c := *m
	return &c
}
