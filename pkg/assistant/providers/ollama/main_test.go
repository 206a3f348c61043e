package ollama

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
	oad "github.com/xpanvictor/convoinfer/pkg/assistant/adapters/ollama"
)

func scriptedChat(chunks []string, err error) chatFunc {
	return func(ctx context.Context, fn api.ChatResponseFunc) error {
		for i, c := range chunks {
			cr := api.ChatResponse{Message: api.Message{Role: "assistant", Content: c}, Done: i == len(chunks)-1}
			if cbErr := fn(cr); cbErr != nil {
				return cbErr
			}
		}
		return err
	}
}

func drain(t *testing.T, s adapters.FragmentStream) ([]string, error) {
	t.Helper()
	var got []string
	for {
		frag, err := s.Next(context.Background())
		if err != nil {
			return got, err
		}
		got = append(got, frag.Text)
	}
}

func TestOllamaStreamDeliversChunks(t *testing.T) {
	s := newOllamaStream(context.Background(), scriptedChat([]string{"He", "llo"}, nil))
	defer s.Close()

	got, err := drain(t, s)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"He", "llo"}, got)

	_, err = s.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestOllamaStreamReportsChatError(t *testing.T) {
	s := newOllamaStream(context.Background(), scriptedChat([]string{"par"}, errors.New("model not loaded")))
	defer s.Close()

	got, err := drain(t, s)

	assert.Equal(t, []string{"par"}, got)
	assert.EqualError(t, err, "model not loaded")
}

func TestOllamaStreamCloseUnblocksProducer(t *testing.T) {
	finished := make(chan error, 1)
	chat := func(ctx context.Context, fn api.ChatResponseFunc) error {
		err := fn(api.ChatResponse{Message: api.Message{Content: "a"}})
		if err == nil {
			err = fn(api.ChatResponse{Message: api.Message{Content: "b"}})
		}
		finished <- err
		return err
	}
	s := newOllamaStream(context.Background(), chat)

	frag, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", frag.Text)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, <-finished, context.Canceled)
}

func TestConvertMsgs(t *testing.T) {
	msgs := oad.ConvertMsgs([]adapters.ContractMessage{
		{Role: adapters.USER, Parts: []adapters.ContractPart{{Text: "see "}, {Data: []byte{9}, MIMEType: "image/png"}, {Text: "this"}}},
		{Role: adapters.MODEL, Parts: []adapters.ContractPart{{Text: "ok"}}},
	}, "sys")

	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "see this", msgs[1].Content)
	require.Len(t, msgs[1].Images, 1)
	assert.Equal(t, "assistant", msgs[2].Role)
}

func TestConvertOptions(t *testing.T) {
	seed := int32(5)
	opts := oad.ConvertOptions(adapters.ContractParams{Temperature: 0.2, TopP: 0.7, Seed: &seed, MaxOutputTokens: 64})

	assert.Equal(t, float32(0.2), opts["temperature"])
	assert.Equal(t, float32(0.7), opts["top_p"])
	assert.Equal(t, int32(5), opts["seed"])
	assert.Equal(t, int32(64), opts["num_predict"])

	assert.NotContains(t, oad.ConvertOptions(adapters.ContractParams{}), "seed")
}
