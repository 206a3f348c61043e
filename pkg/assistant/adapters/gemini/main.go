package gemini

import (
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	"google.golang.org/genai"
)

// ConvertMsgs converts contract messages to genai contents, one content per
// turn with parts kept in order.
func ConvertMsgs(msgs []adapters.ContractMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if p.IsBinary() {
				parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
				continue
			}
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		contents = append(contents, genai.NewContentFromParts(parts, ConvertRole(msg.Role)))
	}
	return contents
}

func ConvertRole(role adapters.MsgRole) genai.Role {
	if role == adapters.MODEL {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// ConvertParams maps contract parameters onto a request config. A nil
// thinking budget leaves the model's default thinking behaviour in place.
func ConvertParams(p adapters.ContractParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(p.Temperature),
		TopP:            genai.Ptr(p.TopP),
		MaxOutputTokens: p.MaxOutputTokens,
	}
	if p.Seed != nil {
		cfg.Seed = genai.Ptr(*p.Seed)
	}
	if p.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.SystemInstruction, genai.RoleUser)
	}
	if p.ThinkingBudget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(*p.ThinkingBudget)}
	}
	return cfg
}

// ConvertMsgBackward extracts the visible text of a response. Thought parts
// are skipped.
func ConvertMsgBackward(resp *genai.GenerateContentResponse) adapters.ContractFragment {
	if resp == nil {
		return adapters.ContractFragment{}
	}
	return adapters.ContractFragment{Text: resp.Text()}
}
