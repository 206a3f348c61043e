package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/convoinfer/internal/domains/conversation"
	"github.com/xpanvictor/convoinfer/internal/handlers"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	wsdevice "github.com/xpanvictor/convoinfer/pkg/io/device/websocket"
	"github.com/xpanvictor/convoinfer/pkg/io/registry"
)

// WebSocketHandler serves live watches of items' published turns.
type WebSocketHandler struct {
	logger              *Logger.Logger
	conversationService conversation.ConversationService
	watchers            registry.Registry
	connectionManager   *ConnectionManager
	upgrader            websocket.Upgrader
}

func NewWebSocketHandler(
	logger *Logger.Logger,
	conversationService conversation.ConversationService,
	watchers registry.Registry,
	connectionManager *ConnectionManager,
) *WebSocketHandler {
	return &WebSocketHandler{
		logger:              logger,
		conversationService: conversationService,
		watchers:            watchers,
		connectionManager:   connectionManager,
		upgrader: websocket.Upgrader{
			// watchers are read-only and carry no credentials
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/items/:id/watch", h.HandleWatch)
	router.GET("/ws/stats", h.HandleStats)
}

// HandleWatch streams an item's publications
// @Summary Watch an item's generated turns
// @Description Upgrades to a websocket and pushes one JSON frame per publication for the item until the client disconnects
// @Tags Inference
// @Param id path string true "Item ID"
// @Success 101 {object} wsdevice.TurnFrame "one frame per publication"
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 404 {object} handlers.ErrorResponse
// @Router /v1/items/{id}/watch [get]
func (h *WebSocketHandler) HandleWatch(c *gin.Context) {
	itemID, ok := handlers.ExtractItemID(c)
	if !ok {
		return
	}
	// reject unknown items while a plain HTTP status can still be sent
	if _, err := h.conversationService.RetrieveItem(c.Request.Context(), itemID); err != nil {
		handlers.WriteError(c, h.logger, "watch item", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "item", itemID, "error", err)
		return
	}

	ep := wsdevice.New(conn)
	detach, err := h.conversationService.Watch(c.Request.Context(), itemID, ep)
	if err != nil {
		h.logger.Warnw("watch attach failed", "item", itemID, "error", err)
		_ = ep.Close()
		return
	}

	session := NewSession(itemID, ep, detach)
	h.connectionManager.RegisterConnection(session)
	defer h.connectionManager.UnregisterConnection(session.ID())

	h.readUntilClosed(conn, session)
}

// readUntilClosed drains client frames so control frames are processed. Any
// client frame or pong counts as activity.
func (h *WebSocketHandler) readUntilClosed(conn *websocket.Conn, session *Session) {
	conn.SetReadLimit(maxClientFrame)
	conn.SetPongHandler(func(string) error {
		session.Endpoint.Touch()
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debugw("watch connection dropped", "session", session.ID(), "error", err)
			}
			return
		}
		session.Endpoint.Touch()
	}
}

// HandleStats reports live watch sessions
// @Summary Watch session statistics
// @Tags Inference
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /v1/ws/stats [get]
func (h *WebSocketHandler) HandleStats(c *gin.Context) {
	stats := h.connectionManager.GetStats()
	stats.Watchers = h.watchers.CountEndpoints()
	c.JSON(http.StatusOK, stats)
}
