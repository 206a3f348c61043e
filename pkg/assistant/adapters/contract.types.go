package adapters

import (
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/convoinfer/internal/types"
)

type MsgRole string

const (
	USER  MsgRole = "user"
	MODEL MsgRole = "model"
)

// ContractPart is either a text unit or a binary unit (Data + MIMEType).
type ContractPart struct {
	Text     string
	Data     []byte
	MIMEType string
}

func (p ContractPart) IsBinary() bool {
	return p.MIMEType != ""
}

type ContractMessage struct {
	Role  MsgRole
	Parts []ContractPart
}

// Text joins the text units of the message.
func (m ContractMessage) Text() string {
	var out string
	for _, p := range m.Parts {
		if !p.IsBinary() {
			out += p.Text
		}
	}
	return out
}

type ContractParams struct {
	Temperature       float32
	TopP              float32
	Seed              *int32
	MaxOutputTokens   int32
	SystemInstruction string // empty means none
	ThinkingBudget    *int32 // streaming only
}

type ContractRequest struct {
	Model  string
	Msgs   []ContractMessage
	Params ContractParams
}

type ContractFragment struct {
	Text string
}

type ContractInput struct {
	ItemID  uuid.UUID
	History types.ConversationHistory
}

type ContractResponse struct {
	ID        uuid.UUID // invocation id
	ItemID    uuid.UUID
	StartedAt time.Time
	Error     error
	Done      bool
}
