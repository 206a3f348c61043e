package adapters

import (
	"fmt"

	"github.com/xpanvictor/convoinfer/internal/types"
)

// ConvertMsgs translates a conversation history into backend messages.
// Roles collapse to user/model, and trailing model turns are dropped so the
// request always ends on a user turn.
func ConvertMsgs(history types.ConversationHistory) ([]ContractMessage, error) {
	msgs := make([]ContractMessage, 0, len(history))
	for _, turn := range history {
		role := MODEL
		if turn.Role == types.USER {
			role = USER
		}
		parts := make([]ContractPart, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			switch p.Kind {
			case types.TEXT:
				parts = append(parts, ContractPart{Text: p.Text})
			case types.IMAGE:
				parts = append(parts, ContractPart{Data: p.Data, MIMEType: p.MIMEType})
			}
		}
		msgs = append(msgs, ContractMessage{Role: role, Parts: parts})
	}

	msgs = TrimTrailingModel(msgs)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: no user turn left after trimming", types.ErrEmptyPrompt)
	}
	return msgs, nil
}

func TrimTrailingModel(msgs []ContractMessage) []ContractMessage {
	for len(msgs) > 0 && msgs[len(msgs)-1].Role == MODEL {
		msgs = msgs[:len(msgs)-1]
	}
	return msgs
}
