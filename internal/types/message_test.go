package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	data, mime, err := DecodeDataURI("data:image/png;base64,AQID")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "image/png", mime)

	data, mime, err = DecodeDataURI("data:;base64,AQID")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "image/jpeg", mime)

	_, mime, err = DecodeDataURI("AQID")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	_, _, err = DecodeDataURI("data:image/png,AQID")
	assert.Error(t, err)
	_, _, err = DecodeDataURI("data:image/png;base64")
	assert.Error(t, err)
	_, _, err = DecodeDataURI("data:image/png;base64,***")
	assert.Error(t, err)
}

func TestEncodeDataURIRoundTrip(t *testing.T) {
	uri := EncodeDataURI("image/webp", []byte("pixels"))
	data, mime, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)
	assert.Equal(t, "image/webp", mime)
}

func TestDecodeMessages(t *testing.T) {
	history, err := DecodeMessages([]PromptMessage{
		{Role: "system", Content: []PromptContent{{Type: "text", Text: "rules"}}},
		{Role: "user", Content: []PromptContent{
			{Type: "text", Text: "look "},
			{Type: "image_url", ImageURL: &PromptImageURL{URL: "data:image/gif;base64,AA=="}},
			{Type: "audio", Text: "ignored"},
		}},
		{Role: "assistant", Content: []PromptContent{{Type: "text", Text: "ok"}}},
	})
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, MODEL, history[0].Role)
	assert.Equal(t, USER, history[1].Role)
	assert.Equal(t, MODEL, history[2].Role)

	require.Len(t, history[1].Parts, 2)
	assert.Equal(t, IMAGE, history[1].Parts[1].Kind)
	assert.Equal(t, "image/gif", history[1].Parts[1].MIMEType)
	assert.Equal(t, "look ", history[1].Text())
}

func TestDecodeMessagesRejectsBrokenImages(t *testing.T) {
	_, err := DecodeMessages([]PromptMessage{{Role: "user", Content: []PromptContent{{Type: "image_url"}}}})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = DecodeMessages([]PromptMessage{{Role: "user", Content: []PromptContent{
		{Type: "image_url", ImageURL: &PromptImageURL{URL: "data:image/png;base64,!!"}},
	}}})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}
