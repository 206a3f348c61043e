package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/convoinfer/internal/domains/conversation"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
)

type ConversationHandler struct {
	convoService conversation.ConversationService
	logger       *Logger.Logger
}

func NewConvoHandler(
	convoService conversation.ConversationService,
	logger *Logger.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		convoService: convoService,
		logger:       logger,
	}
}

// CreateItem stores a prompt item
// @Summary Create a prompt item
// @Description Stores a conversation history as a prompt item. Supplying an existing id replaces that item.
// @Tags Items
// @Accept json
// @Produce json
// @Param request body types.CreateItem true "Item messages"
// @Success 201 {object} ItemResponse "Created item"
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/items [post]
func (h *ConversationHandler) CreateItem(c *gin.Context) {
	var req types.CreateItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	item, err := h.convoService.CreateItem(c.Request.Context(), req)
	if err != nil {
		WriteError(c, h.logger, "create item", err)
		return
	}

	c.JSON(http.StatusCreated, ItemResponse{Item: *item})
}

// RetrieveItem gets an item with its turns
// @Summary Retrieve a prompt item
// @Description Returns the item's history followed by its generated turns
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} ItemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/items/{id} [get]
func (h *ConversationHandler) RetrieveItem(c *gin.Context) {
	itemID, ok := ExtractItemID(c)
	if !ok {
		return
	}

	item, err := h.convoService.RetrieveItem(c.Request.Context(), itemID)
	if err != nil {
		WriteError(c, h.logger, "retrieve item", err)
		return
	}

	c.JSON(http.StatusOK, ItemResponse{Item: *item})
}

// AppendMessages extends an item's history
// @Summary Append messages to a prompt item
// @Tags Items
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body types.AppendMessages true "Messages to append"
// @Success 200 {object} ItemResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/items/{id}/messages [post]
func (h *ConversationHandler) AppendMessages(c *gin.Context) {
	itemID, ok := ExtractItemID(c)
	if !ok {
		return
	}

	var req types.AppendMessages
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	item, err := h.convoService.AppendMessages(c.Request.Context(), itemID, req)
	if err != nil {
		WriteError(c, h.logger, "append messages", err)
		return
	}

	c.JSON(http.StatusOK, ItemResponse{Item: *item})
}

// Predict runs inference for a batch of items
// @Summary Run inference over a batch of items
// @Description Generates one model turn per item. Per-item failures are reported in the results and never abort the batch.
// @Tags Inference
// @Accept json
// @Produce json
// @Param request body PredictRequest true "Items to process"
// @Success 200 {object} PredictResponse
// @Failure 400 {object} ErrorResponse
// @Router /v1/predict [post]
func (h *ConversationHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	batch := h.convoService.Predict(c.Request.Context(), req.ItemIDs)
	c.JSON(http.StatusOK, NewPredictResponse(batch))
}

// RegisterConversationRoutes registers all item and inference routes
func (h *ConversationHandler) RegisterConversationRoutes(r *gin.RouterGroup) {
	items := r.Group("/items")
	{
		items.POST("", h.CreateItem)
		items.GET("/:id", h.RetrieveItem)
		items.POST("/:id/messages", h.AppendMessages)
	}
	r.POST("/predict", h.Predict)
}
