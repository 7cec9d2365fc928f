// Package httpserver hosts the WebSocket endpoint together with the health
// and metrics endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/julienschmidt/httprouter"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 5 * time.Second

// HealthFunc reports whether the server can serve traffic.
type HealthFunc func(ctx context.Context) error

type Server struct {
	address string
	router  *httprouter.Router
	health  HealthFunc
	logger  logging.Logger
}

// NewServer routes /ws to ws and /metrics to metrics. A nil health check
// always reports ok.
func NewServer(address string, ws, metrics http.Handler, health HealthFunc, l logging.Logger) *Server {
	s := &Server{
		address: address,
		router:  httprouter.New(),
		health:  health,
		logger:  l.With("module", "http_server"),
	}

	s.router.Handler(http.MethodGet, "/ws", ws)
	s.router.GET("/healthz", s.handleHealth)
	if metrics != nil {
		s.router.Handler(http.MethodGet, "/metrics", metrics)
	}
	return s
}

// Handler is the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http.server")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status, code := "ok", http.StatusOK
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// Run serves until ctx is cancelled and then shuts down.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
