package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
)

// ExtractItemID parses the :id path parameter and answers 400 when it is not
// a uuid.
func ExtractItemID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid item ID format", Details: err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// StatusFor maps an error category onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrEmptyPrompt):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func WriteError(c *gin.Context, logger *Logger.Logger, op string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorw(op+" failed", "error", err)
		c.JSON(status, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Error: http.StatusText(status), Details: err.Error()})
}
