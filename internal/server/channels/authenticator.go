// Package channels tracks long-lived client channels: their authentication,
// their open subscriptions and forced closure when a session is revoked.
package channels

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
)

// Authenticator validates the token presented when a channel opens.
type Authenticator struct {
	resolver *principal.Resolver
}

func NewAuthenticator(resolver *principal.Resolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// Authenticate verifies token and its version. Missing, malformed, stale or
// foreign tokens all yield common.ErrInvalidToken; store failures are
// returned as they are.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	user, err := a.resolver.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrInvalidToken) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

// operation returns a fresh principal future for token so every subscribe
// re-checks the stored token version.
func (a *Authenticator) operation(token string) *principal.Future {
	return a.resolver.Future(token)
}
