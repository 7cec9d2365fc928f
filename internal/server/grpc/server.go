package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"github.com/dmitrijs2005/groupchat/internal/server/services"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
)

// RequestObserver counts finished calls by method and error kind.
type RequestObserver interface {
	RequestObserved(method, kind string)
}

type GRPCServer struct {
	address  string
	mediator services.Mediator
	resolver *principal.Resolver
	requests RequestObserver
	logger   logging.Logger
}

var _ ChatServiceServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, m services.Mediator, r *principal.Resolver, requests RequestObserver) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		mediator: m,
		resolver: r,
		requests: requests,
	}
}

// NewServer builds a grpc.Server with the chat service and its
// interceptors registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.errorKindInterceptor, s.principalInterceptor),
	}, opts...)
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, s)
	return srv
}

// Run serves until ctx is cancelled and then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
