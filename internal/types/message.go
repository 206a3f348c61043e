package types

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// default when a data URI omits its media type
const defaultImageMIME = "image/jpeg"

// PromptMessage is the wire shape of one conversation turn.
// @Description A chat message made of text and image_url parts
type PromptMessage struct {
	Role    string          `json:"role" binding:"required" example:"user"`
	Content []PromptContent `json:"content" binding:"required"`
}

type PromptContent struct {
	Type     string          `json:"type" example:"text" enums:"text,image_url"`
	Text     string          `json:"text,omitempty" example:"Describe this picture"`
	ImageURL *PromptImageURL `json:"image_url,omitempty"`
}

type PromptImageURL struct {
	URL string `json:"url" example:"data:image/png;base64,iVBORw0KGgo="`
}

// CreateItem data to create a prompt item
// @Description Prompt item creation body
type CreateItem struct {
	ID       *uuid.UUID      `json:"id,omitempty" swaggertype:"string" format:"uuid"`
	Messages []PromptMessage `json:"messages" binding:"required"`
}

// AppendMessages data to extend a prompt item
// @Description Messages appended to an existing prompt item
type AppendMessages struct {
	Messages []PromptMessage `json:"messages" binding:"required"`
}

// DecodeMessages converts wire messages into a conversation history, decoding
// inline images. Unknown part types are skipped.
func DecodeMessages(msgs []PromptMessage) (ConversationHistory, error) {
	history := make(ConversationHistory, 0, len(msgs))
	for i, msg := range msgs {
		turn := ConversationTurn{Role: CollapseRole(msg.Role)}
		for _, c := range msg.Content {
			switch c.Type {
			case "text":
				turn.Parts = append(turn.Parts, TextPart(c.Text))
			case "image_url":
				if c.ImageURL == nil {
					return nil, fmt.Errorf("%w: message %d: image_url part without url", ErrInvalidMessage, i)
				}
				data, mime, err := DecodeDataURI(c.ImageURL.URL)
				if err != nil {
					return nil, fmt.Errorf("%w: message %d: %w", ErrInvalidMessage, i, err)
				}
				turn.Parts = append(turn.Parts, ImagePart(data, mime))
			}
		}
		history = append(history, turn)
	}
	return history, nil
}

// DecodeDataURI strips a "data:<mime>;base64," prefix and decodes the payload.
// A bare base64 payload is accepted as a jpeg.
func DecodeDataURI(uri string) ([]byte, string, error) {
	mime := defaultImageMIME
	payload := uri
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("malformed data uri")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("data uri is not base64 encoded")
		}
		if t := strings.TrimSuffix(header, ";base64"); t != "" {
			mime = t
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image payload: %w", err)
	}
	return data, mime, nil
}

func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
