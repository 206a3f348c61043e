package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
)

func TestConvertMsgs(t *testing.T) {
	msgs := []adapters.ContractMessage{
		{Role: adapters.USER, Parts: []adapters.ContractPart{
			{Text: "describe"},
			{Data: []byte("png"), MIMEType: "image/png"},
		}},
		{Role: adapters.MODEL, Parts: []adapters.ContractPart{{Text: "a cat"}}},
		{Role: adapters.USER, Parts: []adapters.ContractPart{{Text: "colour?"}}},
	}

	out := ConvertMsgs(msgs, "be terse")

	require.Len(t, out, 4)
	require.NotNil(t, out[0].OfSystem)
	assert.Equal(t, "be terse", out[0].OfSystem.Content.OfString.Value)

	require.NotNil(t, out[1].OfUser)
	parts := out[1].OfUser.Content.OfArrayOfContentParts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].OfText)
	assert.Equal(t, "describe", parts[0].OfText.Text)
	require.NotNil(t, parts[1].OfImageURL)
	assert.Equal(t, "data:image/png;base64,cG5n", parts[1].OfImageURL.ImageURL.URL)

	require.NotNil(t, out[2].OfAssistant)
	assert.Equal(t, "a cat", out[2].OfAssistant.Content.OfString.Value)
	require.NotNil(t, out[3].OfUser)
}

func TestConvertMsgsWithoutSystem(t *testing.T) {
	out := ConvertMsgs([]adapters.ContractMessage{{Role: adapters.USER}}, "")
	require.Len(t, out, 1)
	assert.Nil(t, out[0].OfSystem)
}

func TestConvertParams(t *testing.T) {
	seed := int32(3)
	params := ConvertParams("gpt-4o-mini", nil, adapters.ContractParams{
		Temperature:     0.5,
		TopP:            0.9,
		Seed:            &seed,
		MaxOutputTokens: 256,
	})

	assert.Equal(t, openai.ChatModel("gpt-4o-mini"), params.Model)
	assert.InDelta(t, 0.5, params.Temperature.Value, 1e-6)
	assert.InDelta(t, 0.9, params.TopP.Value, 1e-6)
	assert.Equal(t, int64(3), params.Seed.Value)
	assert.Equal(t, int64(256), params.MaxCompletionTokens.Value)

	unseeded := ConvertParams("m", nil, adapters.ContractParams{})
	assert.False(t, unseeded.Seed.Valid())
	assert.False(t, unseeded.MaxCompletionTokens.Valid())
}

func TestConvertChunk(t *testing.T) {
	chunk := openai.ChatCompletionChunk{Choices: []openai.ChatCompletionChunkChoice{{
		Delta: openai.ChatCompletionChunkChoiceDelta{Content: "Hel"},
	}}}
	assert.Equal(t, "Hel", ConvertChunk(chunk).Text)
	assert.Equal(t, "", ConvertChunk(openai.ChatCompletionChunk{}).Text)
	assert.Equal(t, "", ConvertMsgBackward(nil))
}
