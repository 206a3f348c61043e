package openai

import (
	"github.com/openai/openai-go"
	"github.com/xpanvictor/convoinfer/internal/types"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
)

// ConvertMsgs builds chat messages. The system instruction, when set, leads
// the list. Images travel as data URIs on user turns; assistant turns carry
// text only.
func ConvertMsgs(msgs []adapters.ContractMessage, system string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range msgs {
		if msg.Role == adapters.MODEL {
			out = append(out, openai.AssistantMessage(msg.Text()))
			continue
		}
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			if p.IsBinary() {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: types.EncodeDataURI(p.MIMEType, p.Data),
				}))
				continue
			}
			parts = append(parts, openai.TextContentPart(p.Text))
		}
		out = append(out, openai.UserMessage(parts))
	}
	return out
}

func ConvertParams(model string, msgs []openai.ChatCompletionMessageParamUnion, p adapters.ContractParams) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(float64(p.Temperature)),
		TopP:        openai.Float(float64(p.TopP)),
	}
	if p.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(p.MaxOutputTokens))
	}
	if p.Seed != nil {
		params.Seed = openai.Int(int64(*p.Seed))
	}
	return params
}

// ConvertMsgBackward joins the content of the first choice.
func ConvertMsgBackward(res *openai.ChatCompletion) string {
	if res == nil || len(res.Choices) == 0 {
		return ""
	}
	return res.Choices[0].Message.Content
}

func ConvertChunk(chunk openai.ChatCompletionChunk) adapters.ContractFragment {
	if len(chunk.Choices) == 0 {
		return adapters.ContractFragment{}
	}
	return adapters.ContractFragment{Text: chunk.Choices[0].Delta.Content}
}
