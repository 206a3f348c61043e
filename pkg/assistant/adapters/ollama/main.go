package ollama

import (
	"github.com/ollama/ollama/api"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
)

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// ConvertMsgs maps contract messages to ollama chat messages. Text units of a
// turn are joined; binary units ride along as images.
func ConvertMsgs(msgs []adapters.ContractMessage, system string) []api.Message {
	converted := make([]api.Message, 0, len(msgs)+1)
	if system != "" {
		converted = append(converted, api.Message{Role: roleSystem, Content: system})
	}
	for _, msg := range msgs {
		m := api.Message{Role: roleUser, Content: msg.Text()}
		if msg.Role == adapters.MODEL {
			m.Role = roleAssistant
		}
		for _, p := range msg.Parts {
			if p.IsBinary() {
				m.Images = append(m.Images, api.ImageData(p.Data))
			}
		}
		converted = append(converted, m)
	}
	return converted
}

// ConvertOptions maps contract parameters onto ollama runtime options. The
// thinking budget has no ollama counterpart.
func ConvertOptions(p adapters.ContractParams) map[string]interface{} {
	opts := map[string]interface{}{
		"temperature": p.Temperature,
		"top_p":       p.TopP,
	}
	if p.MaxOutputTokens > 0 {
		opts["num_predict"] = p.MaxOutputTokens
	}
	if p.Seed != nil {
		opts["seed"] = *p.Seed
	}
	return opts
}

func ConvertMsgBackward(cr api.ChatResponse) adapters.ContractFragment {
	return adapters.ContractFragment{Text: cr.Message.Content}
}
