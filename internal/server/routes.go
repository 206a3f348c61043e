package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/xpanvictor/convoinfer/docs"
	"github.com/xpanvictor/convoinfer/internal/domains/conversation"
	"github.com/xpanvictor/convoinfer/internal/handlers"
	"github.com/xpanvictor/convoinfer/internal/handlers/websocket"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/io/registry"
)

type Dependencies struct {
	ConversationService conversation.ConversationService
	Watchers            registry.Registry
	Connections         *websocket.ConnectionManager
	Logger              *Logger.Logger
}

func NewServerDependencies(
	conversationService conversation.ConversationService,
	watchers registry.Registry,
	connections *websocket.ConnectionManager,
	logger *Logger.Logger,
) Dependencies {
	return Dependencies{
		ConversationService: conversationService,
		Watchers:            watchers,
		Connections:         connections,
		Logger:              logger,
	}
}

func InitializeRoutes(r *gin.Engine, dep Dependencies) {
	r.Use(handlers.ErrorHandlerMiddleware(dep.Logger))
	r.Use(handlers.RequestLoggerMiddleware(dep.Logger))
	r.Use(handlers.CORSMiddleware())

	r.GET("/", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/v1")
	convoHandler := handlers.NewConvoHandler(dep.ConversationService, dep.Logger)
	convoHandler.RegisterConversationRoutes(v1)

	wsHandler := websocket.NewWebSocketHandler(dep.Logger, dep.ConversationService, dep.Watchers, dep.Connections)
	wsHandler.RegisterRoutes(v1)
}
