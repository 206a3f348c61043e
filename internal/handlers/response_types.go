package handlers

import (
	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/domains/conversation"
	"github.com/xpanvictor/convoinfer/internal/types"
)

// Response wrapper types for Swagger documentation

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// ItemResponse wraps a prompt item with all of its turns
type ItemResponse struct {
	Item types.PromptItem `json:"item"`
}

// PredictRequest lists the items to run in one batch
type PredictRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required,min=1" swaggertype:"array,string"`
}

// PredictResult is the outcome of one item of a batch
type PredictResult struct {
	ItemID       uuid.UUID  `json:"item_id" swaggertype:"string" format:"uuid"`
	OK           bool       `json:"ok" example:"true"`
	Error        string     `json:"error,omitempty" example:"error processing prompt item"`
	InvocationID *uuid.UUID `json:"invocation_id,omitempty" swaggertype:"string" format:"uuid"`
}

// PredictResponse keeps the order of the request's item_ids
type PredictResponse struct {
	Results []PredictResult `json:"results"`
	Failed  int             `json:"failed" example:"0"`
}

func NewPredictResponse(batch conversation.BatchResult) PredictResponse {
	resp := PredictResponse{Results: make([]PredictResult, 0, len(batch.Results)), Failed: batch.Failed()}
	for _, r := range batch.Results {
		pr := PredictResult{ItemID: r.ItemID, OK: r.OK()}
		if r.InvocationID != uuid.Nil {
			id := r.InvocationID
			pr.InvocationID = &id
		}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, pr)
	}
	return resp
}
