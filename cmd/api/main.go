package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/convoinfer/internal/app"
	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/internal/server"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
)

//go:generate swag init -g main.go -d ./,../../internal/handlers -o ../../docs --outputTypes go

// @title Conversation Inference API
// @version 1.0
// @description Batch inference over stored conversation items with live publication of generated turns.
// @BasePath /
func main() {
	// fetch cfg
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// load global logger
	logger := Logger.New(cfg.Debug)
	defer logger.Sync()
	logger.Infow("Logger initialized", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize application: %v", err)
	}

	// compose router
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	server.InitializeRoutes(router, application.GetServerDependencies())

	// listen with graceful exit
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router.Handler(),
	}
	go func() {
		logger.Infow("Server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server exiting: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
	if err := application.Close(shutdownCtx); err != nil {
		logger.Errorf("Application close error: %v", err)
	}
	logger.Info("Shutdown system")
}
