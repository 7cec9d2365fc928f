// Package principal resolves the acting user of a request or live-channel
// operation from a bearer token.
package principal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/auth"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
)

// TokenVerifier decodes bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup reads the stored credential record.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Resolver turns a token into the user it was issued for.
type Resolver struct {
	tokens TokenVerifier
	users  UserLookup
}

func NewResolver(tokens TokenVerifier, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve verifies token and checks its version against the stored user.
// An empty token yields common.ErrorUnauthorized; a bad signature, an
// unknown user or a stale version yield common.ErrInvalidToken.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: no principal", common.ErrorUnauthorized)
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}

	if user.TokenVersion != claims.Version {
		return nil, common.ErrInvalidToken
	}

	return user, nil
}

// Future defers resolution to the first operation that needs a principal.
func (r *Resolver) Future(token string) *Future {
	return NewFuture(func(ctx context.Context) (*models.User, error) {
		return r.Resolve(ctx, token)
	})
}

// Future memoizes one principal resolution. It is safe for concurrent use.
type Future struct {
	once    sync.Once
	resolve func(ctx context.Context) (*models.User, error)
	user    *models.User
	err     error
}

func NewFuture(resolve func(ctx context.Context) (*models.User, error)) *Future {
	return &Future{resolve: resolve}
}

// Get runs the resolution on first call and returns the memoized result
// afterwards.
func (f *Future) Get(ctx context.Context) (*models.User, error) {
	f.once.Do(func() {
		f.user, f.err = f.resolve(ctx)
	})
	return f.user, f.err
}

// Anonymous is the future of a request that carried no token.
func Anonymous() *Future {
	return NewFuture(func(context.Context) (*models.User, error) {
		return nil, fmt.Errorf("%w: no principal", common.ErrorUnauthorized)
	})
}

// Resolved wraps an already known user.
func Resolved(user *models.User) *Future {
	return NewFuture(func(context.Context) (*models.User, error) {
		return user, nil
	})
}

type ctxKey struct{}

func WithFuture(ctx context.Context, f *Future) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

// FromContext returns the attached future, or Anonymous when none is set.
func FromContext(ctx context.Context) *Future {
	if f, ok := ctx.Value(ctxKey{}).(*Future); ok && f != nil {
		return f
	}
	return Anonymous()
}
