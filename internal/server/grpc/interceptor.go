package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/dmitrijs2005/groupchat/internal/server/models"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// bearerToken extracts the token from the authorization metadata. ok is
// false when no header was sent.
func bearerToken(ctx context.Context) (token string, ok bool) {
	md, present := metadata.FromIncomingContext(ctx)
	if !present {
		return "", false
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return "", false
	}
	v := values[0]
	if len(v) < len(common.BearerPrefix) || !strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", true
	}
	return strings.TrimSpace(v[len(common.BearerPrefix):]), true
}

// principalInterceptor attaches a lazily resolved principal to every call.
// A call without a token runs as anonymous; only operations that need a
// principal fail.
func (s *GRPCServer) principalInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	token, ok := bearerToken(ctx)
	switch {
	case !ok:
		ctx = principal.WithFuture(ctx, principal.Anonymous())
	case token == "":
		ctx = principal.WithFuture(ctx, principal.NewFuture(func(context.Context) (*models.User, error) {
			return nil, common.ErrInvalidToken
		}))
	default:
		ctx = principal.WithFuture(ctx, s.resolver.Future(token))
	}
	return handler(ctx, req)
}

var kindCodes = map[string]codes.Code{
	"unauthorized":     codes.Unauthenticated,
	"invalid_token":    codes.Unauthenticated,
	"not_found":        codes.NotFound,
	"invalid_argument": codes.InvalidArgument,
	"already_exists":   codes.AlreadyExists,
	"internal":         codes.Internal,
}

// errorKindInterceptor turns service errors into status errors and reports
// the error kind in a trailer. Internal errors are logged and their detail
// is not sent to the client.
func (s *GRPCServer) errorKindInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		s.observe(info.FullMethod, "ok")
		return resp, nil
	}

	if _, isStatus := status.FromError(err); isStatus {
		s.observe(info.FullMethod, "internal")
		return nil, err
	}

	kind := common.ErrorKind(err)
	s.observe(info.FullMethod, kind)
	_ = grpc.SetTrailer(ctx, metadata.Pairs(common.ErrorKindTrailerName, kind))

	msg := err.Error()
	if kind == "internal" {
		s.logger.Error(ctx, "request failed", "method", info.FullMethod, "error", err)
		msg = common.ErrorInternal.Error()
	}
	return nil, status.Error(kindCodes[kind], msg)
}

func (s *GRPCServer) observe(method, kind string) {
	if s.requests != nil {
		s.requests.RequestObserved(method, kind)
	}
}
