package channels

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/subscriptions"
)

// Observer receives channel counters.
type Observer interface {
	ChannelsChanged(delta int)
	ChannelClosed(reason string)
}

type nopObserver struct{}

func (nopObserver) ChannelsChanged(int)  {}
func (nopObserver) ChannelClosed(string) {}

// Registry owns every open channel and indexes authenticated ones by user.
type Registry struct {
	auth     *Authenticator
	gate     *subscriptions.Gate
	logger   logging.Logger
	observer Observer

	mu     sync.Mutex
	all    map[*Channel]struct{}
	byUser map[int64]map[*Channel]struct{}
}

type Option func(*Registry)

func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

func NewRegistry(auth *Authenticator, gate *subscriptions.Gate, l logging.Logger, opts ...Option) *Registry {
	r := &Registry{
		auth:     auth,
		gate:     gate,
		logger:   l.With("module", "channels"),
		observer: nopObserver{},
		all:      make(map[*Channel]struct{}),
		byUser:   make(map[int64]map[*Channel]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a channel in StateConnecting. Its context derives from ctx.
func (r *Registry) Open(ctx context.Context) *Channel {
	c := newChannel(ctx, r)

	r.mu.Lock()
	r.all[c] = struct{}{}
	r.mu.Unlock()

	r.observer.ChannelsChanged(1)
	r.logger.Debug(ctx, "channel opened", "channel_id", c.ID)
	return c
}

func (r *Registry) bind(c *Channel, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, open := r.all[c]; !open {
		return
	}
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[*Channel]struct{})
		r.byUser[userID] = set
	}
	set[c] = struct{}{}
}

func (r *Registry) remove(c *Channel) {
	r.mu.Lock()
	_, open := r.all[c]
	delete(r.all, c)
	if u := c.User(); u != nil {
		delete(r.byUser[u.ID], c)
		if len(r.byUser[u.ID]) == 0 {
			delete(r.byUser, u.ID)
		}
	}
	r.mu.Unlock()

	if open {
		reason := c.CloseReason()
		r.observer.ChannelsChanged(-1)
		r.observer.ChannelClosed(reason.String())
		r.logger.Debug(c.ctx, "channel closed", "channel_id", c.ID, "reason", reason.String())
	}
}

// CloseUser force-closes every channel authenticated as userID and returns
// how many were closed.
func (r *Registry) CloseUser(userID int64, reason CloseReason) int {
	r.mu.Lock()
	victims := make([]*Channel, 0, len(r.byUser[userID]))
	for c := range r.byUser[userID] {
		victims = append(victims, c)
	}
	r.mu.Unlock()

	for _, c := range victims {
		c.Close(reason)
	}
	if len(victims) > 0 {
		r.logger.Info(context.Background(), "closed user channels", "user_id", userID, "count", len(victims), "reason", reason.String())
	}
	return len(victims)
}

// UserChannels returns the number of channels authenticated as userID.
func (r *Registry) UserChannels(userID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[userID])
}

// Len returns the number of open channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.all)
}

// CloseAll closes every channel, used on shutdown.
func (r *Registry) CloseAll(reason CloseReason) {
	r.mu.Lock()
	victims := make([]*Channel, 0, len(r.all))
	for c := range r.all {
		victims = append(victims, c)
	}
	r.mu.Unlock()

	for _, c := range victims {
		c.Close(reason)
	}
}
