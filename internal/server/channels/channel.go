package channels

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"github.com/dmitrijs2005/groupchat/internal/server/subscriptions"
	"github.com/google/uuid"
)

type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateSubscribed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateSubscribed:
		return "subscribed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CloseReason tells the transport why a channel ended.
type CloseReason int

const (
	ReasonClientGone CloseReason = iota
	ReasonInvalidToken
	ReasonUnauthorized
	ReasonSessionRevoked
	ReasonShutdown
	ReasonInitTimeout
	ReasonBadRequest
)

func (r CloseReason) String() string {
	switch r {
	case ReasonClientGone:
		return "client gone"
	case ReasonInvalidToken:
		return "invalid token"
	case ReasonUnauthorized:
		return "unauthorized"
	case ReasonSessionRevoked:
		return "session revoked"
	case ReasonShutdown:
		return "server shutdown"
	case ReasonInitTimeout:
		return "init timeout"
	case ReasonBadRequest:
		return "bad request"
	default:
		return "unknown"
	}
}

// Channel is one client connection. It starts in StateConnecting, becomes
// authenticated once, may hold any number of subscriptions and is closed
// exactly once.
type Channel struct {
	ID string

	registry *Registry
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	state   State
	user    *models.User
	token   string
	streams map[string]*subscriptions.Stream
	onClose func(CloseReason)
	reason  CloseReason
}

func newChannel(parent context.Context, r *Registry) *Channel {
	ctx, cancel := context.WithCancel(parent)
	return &Channel{
		ID:       uuid.NewString(),
		registry: r,
		ctx:      ctx,
		cancel:   cancel,
		streams:  make(map[string]*subscriptions.Stream),
	}
}

// Context is cancelled when the channel closes.
func (c *Channel) Context() context.Context { return c.ctx }

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the authenticated user, nil before authentication.
func (c *Channel) User() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Subscriptions returns the number of open subscriptions.
func (c *Channel) Subscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

// CloseReason is meaningful once the channel is closed.
func (c *Channel) CloseReason() CloseReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// OnClose registers fn to run once when the channel closes. The transport
// uses it to tell the peer why.
func (c *Channel) OnClose(fn func(CloseReason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = fn
}

// Authenticate validates the handshake token. On failure the channel stays
// unauthenticated and the caller is expected to close it.
func (c *Channel) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if state := c.State(); state != StateConnecting {
		return nil, fmt.Errorf("%w: channel is %s", common.ErrInvalidArgument, state)
	}

	user, err := c.registry.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if state := c.state; state != StateConnecting {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: channel is %s", common.ErrInvalidArgument, state)
	}
	c.state = StateAuthenticated
	c.user = user
	c.token = token
	c.mu.Unlock()

	c.registry.bind(c, user.ID)
	return user, nil
}

// Operation returns the principal for one subscribe operation. It
// re-resolves the handshake token so a revoked session fails here even if
// the channel has not been closed yet.
func (c *Channel) Operation() *principal.Future {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnecting || c.state == StateClosed {
		return principal.Anonymous()
	}
	return c.registry.auth.operation(c.token)
}

// Subscribe authorizes sub for this channel's principal and registers the
// resulting stream under id.
func (c *Channel) Subscribe(ctx context.Context, id string, sub subscriptions.Subscription) (*subscriptions.Stream, error) {
	c.mu.Lock()
	switch {
	case c.state == StateConnecting:
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: channel is not authenticated", common.ErrorUnauthorized)
	case c.state == StateClosed:
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: channel is closed", common.ErrInvalidArgument)
	}
	if _, dup := c.streams[id]; dup {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: subscription %q", common.ErrorAlreadyExists, id)
	}
	c.mu.Unlock()

	stream, err := c.registry.gate.Open(ctx, sub, c.Operation())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		stream.Close()
		return nil, fmt.Errorf("%w: channel is closed", common.ErrInvalidArgument)
	}
	if _, dup := c.streams[id]; dup {
		stream.Close()
		return nil, fmt.Errorf("%w: subscription %q", common.ErrorAlreadyExists, id)
	}
	c.streams[id] = stream
	c.state = StateSubscribed
	return stream, nil
}

// Unsubscribe closes the stream registered under id, if any.
func (c *Channel) Unsubscribe(id string) {
	c.mu.Lock()
	stream, ok := c.streams[id]
	delete(c.streams, id)
	if len(c.streams) == 0 && c.state == StateSubscribed {
		c.state = StateAuthenticated
	}
	c.mu.Unlock()

	if ok {
		stream.Close()
	}
}

// Close ends the channel: its context is cancelled, every stream is closed
// and the OnClose hook runs. Later calls are no-ops.
func (c *Channel) Close(reason CloseReason) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.reason = reason
	streams := c.streams
	c.streams = make(map[string]*subscriptions.Stream)
	hook := c.onClose
	c.mu.Unlock()

	c.cancel()
	for _, s := range streams {
		s.Close()
	}
	c.registry.remove(c)

	if hook != nil {
		hook(reason)
	}
}
