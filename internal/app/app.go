package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/database"
	"github.com/xpanvictor/convoinfer/internal/db"
	"github.com/xpanvictor/convoinfer/internal/domains/conversation"
	"github.com/xpanvictor/convoinfer/internal/handlers/websocket"
	convoRepo "github.com/xpanvictor/convoinfer/internal/repository/conversation"
	"github.com/xpanvictor/convoinfer/internal/server"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	pio "github.com/xpanvictor/convoinfer/pkg/io"
	"github.com/xpanvictor/convoinfer/pkg/io/registry"
	memoryregistry "github.com/xpanvictor/convoinfer/pkg/io/registry/memoryRegistry"
	"github.com/xpanvictor/convoinfer/pkg/tracer"
	"gorm.io/gorm"
)

// App represents the application with all its dependencies
type App struct {
	Config   *config.Settings
	Logger   *Logger.Logger
	DB       *gorm.DB
	RC       *redis.Client
	Watchers registry.Registry
	Backend  adapters.Backend
	Pipeline *adapters.Pipeline

	ConversationRepo    conversation.ConversationRepository
	ConversationService conversation.ConversationService
	Connections         *websocket.ConnectionManager
	ServerDeps          server.Dependencies

	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.setupDependencies(ctx); err != nil {
		_ = app.Close(context.WithoutCancel(ctx))
		return nil, err
	}

	return app, nil
}

func (a *App) setupDependencies(ctx context.Context) error {
	shutdown, err := tracer.Setup(ctx, a.Config.Tracing)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	a.shutdownTracing = shutdown

	// 1. store
	if err := a.setupStore(); err != nil {
		return err
	}

	// 2. live watchers
	a.Watchers = memoryregistry.New()
	publisher := pio.New(a.Watchers, a.Logger.Named("publisher"))
	sink := conversation.NewTurnSink(a.ConversationRepo, publisher, a.Logger.Named("sink"))

	// 3. backend and pipeline
	factory := NewBackendFactory(a.Config, a.Logger.Named("backend"))
	a.Backend, err = factory.CreateBackend(ctx)
	if err != nil {
		return err
	}
	model, gen := factory.ResolveModel(ctx)
	invoker := adapters.NewInvoker(a.Backend, a.Config.Model.Name, gen)
	a.Pipeline = adapters.NewPipeline(invoker, sink, gen, model, a.Logger.Named("pipeline"))

	// 4. service and server
	a.ConversationService = conversation.New(
		a.Pipeline,
		a.ConversationRepo,
		a.Watchers,
		a.Config.Batch.Concurrency,
		a.Logger.Named("conversation"),
	)
	a.Connections = websocket.NewConnectionManager(a.Config.Server.WatchTimeout, a.Logger.Named("watch"))
	a.ServerDeps = server.NewServerDependencies(a.ConversationService, a.Watchers, a.Connections, a.Logger)

	a.Logger.Infow("application wired",
		"provider", a.Config.Model.Provider,
		"model", model.Name,
		"stream", gen.Stream,
		"store", a.Config.Store.Driver,
		"concurrency", a.Config.Batch.Concurrency,
	)
	return nil
}

func (a *App) setupStore() error {
	if a.Config.Store.Driver == config.StoreMemory {
		a.ConversationRepo = convoRepo.NewMemoryItemRepo()
		return nil
	}

	gdb, err := db.InitDB(a.Config.DB, a.Config.Debug)
	if err != nil {
		return err
	}
	a.DB = gdb
	if err := database.MigrateDB(gdb); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	rc, err := database.NewRedis(a.Config.Redis)
	if err != nil {
		// the cache is optional, the database stays authoritative
		a.Logger.Warnw("redis unavailable, running without item cache", "error", err)
	}
	a.RC = rc

	ttl := time.Duration(a.Config.Store.LiveTTLMins) * time.Minute
	a.ConversationRepo = convoRepo.NewGormItemRepo(gdb, rc, ttl, a.Logger.Named("store"))
	return nil
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}

// Close releases everything NewApp opened.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Connections != nil {
		errs = append(errs, a.Connections.Close())
	}
	if a.RC != nil {
		errs = append(errs, a.RC.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
