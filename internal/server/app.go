// Package server wires the groupchat components together and runs the gRPC
// and HTTP endpoints until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/groupchat/internal/logging"
	"github.com/dmitrijs2005/groupchat/internal/server/auth"
	"github.com/dmitrijs2005/groupchat/internal/server/channels"
	"github.com/dmitrijs2005/groupchat/internal/server/config"
	"github.com/dmitrijs2005/groupchat/internal/server/events"
	"github.com/dmitrijs2005/groupchat/internal/server/httpserver"
	"github.com/dmitrijs2005/groupchat/internal/server/icons"
	"github.com/dmitrijs2005/groupchat/internal/server/pagination"
	"github.com/dmitrijs2005/groupchat/internal/server/principal"
	"github.com/dmitrijs2005/groupchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/groupchat/internal/server/services"
	"github.com/dmitrijs2005/groupchat/internal/server/subscriptions"
	"github.com/dmitrijs2005/groupchat/internal/server/telemetry"
	"github.com/dmitrijs2005/groupchat/internal/server/ws"

	gs "github.com/dmitrijs2005/groupchat/internal/server/grpc"
)

const serviceName = "groupchat"

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	registry *channels.Registry
	grpc     *gs.GRPCServer
	http     *httpserver.Server
}

// openStore selects the repository backend from the DSN and returns it
// with a matching health check.
func openStore(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, httpserver.HealthFunc, error) {
	if c.UsesMemoryStore() {
		return repomanager.NewInMemoryRepositoryManager(), nil, nil
	}
	pm, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return pm, pm.Conn().PingContext, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	m, health, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	metrics := telemetry.NewMetrics()
	bus := events.NewBus(c.SubscriberBuffer, logger, events.WithObserver(metrics))
	tokens := auth.NewTokenService([]byte(c.SecretKey))
	resolver := principal.NewResolver(tokens, m.Repos().Users)

	gate := subscriptions.NewGate(bus, m.Repos().Groups, logger)
	registry := channels.NewRegistry(channels.NewAuthenticator(resolver), gate, logger, channels.WithObserver(metrics))

	iconStore := icons.NewS3Store(icons.Settings{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})

	limits := pagination.Limits{DefaultSize: c.DefaultPageSize, MaxSize: c.MaxPageSize}
	svc := services.NewService(m, tokens, bus, registry, iconStore, limits, logger)

	return &App{
		config:   c,
		logger:   logger,
		repos:    m,
		registry: registry,
		grpc:     gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc, resolver, metrics),
		http: httpserver.NewServer(c.EndpointAddrHTTP,
			ws.NewHandler(registry, c.WSInitTimeout, logger), metrics.Handler(), health, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until ctx is cancelled, a signal arrives or one of the
// endpoints fails. Live channels are closed before the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName, app.config.OTELEndpoint)
	if err != nil {
		app.logger.Error(ctx, "tracing setup failed", "error", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()
	app.registry.CloseAll(channels.ReasonShutdown)
	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err)
	}
	if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
		app.logger.Error(ctx, "tracing shutdown failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
