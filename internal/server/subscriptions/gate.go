package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
)

// Gate opens authorized streams on the event bus.
type Gate struct {
	bus     *events.Bus
	members MembershipChecker
	logger  logging.Logger
}

func NewGate(bus *events.Bus, members MembershipChecker, l logging.Logger) *Gate {
	return &Gate{bus: bus, members: members, logger: l.With("module", "subscription_gate")}
}

// Open resolves the principal, runs the subscribe-time check and then
// subscribes. A principal failure is reported as common.ErrorUnauthorized
// wrapping the cause.
func (g *Gate) Open(ctx context.Context, sub Subscription, future *principal.Future) (*Stream, error) {
	user, err := future.Get(ctx)
	if err != nil {
		return nil, unauthorized(err)
	}

	if err := sub.authorize(ctx, g.members, user); err != nil {
		return nil, err
	}

	g.logger.Debug(ctx, "subscription opened", "kind", sub.Kind(), "user_id", user.ID)

	return &Stream{
		gate: g,
		sub:  sub,
		user: user,
		it:   g.bus.Subscribe(sub.Topic()),
	}, nil
}

func unauthorized(err error) error {
	if errors.Is(err, common.ErrorUnauthorized) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
}

// Stream yields the events one subscription is entitled to.
type Stream struct {
	gate *Gate
	sub  Subscription
	user *models.User
	it   *events.Iterator
}

func (s *Stream) Subscription() Subscription { return s.sub }

// Next returns the next accepted event. An error from the filter ends the
// stream; the caller should Close it.
func (s *Stream) Next(ctx context.Context) (events.Event, error) {
	for {
		ev, err := s.it.Next(ctx)
		if err != nil {
			return nil, err
		}

		ok, err := s.sub.accept(ctx, s.gate.members, s.user, ev)
		if err != nil {
			return nil, err
		}
		if ok {
			return ev, nil
		}
		s.gate.logger.Debug(ctx, "event filtered", "kind", s.sub.Kind(), "user_id", s.user.ID)
	}
}

// Close releases the underlying bus subscription.
func (s *Stream) Close() {
	s.it.Close()
}
