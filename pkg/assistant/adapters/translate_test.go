package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/convoinfer/internal/types"
)

func TestConvertMsgsKeepsUserTerminatedHistory(t *testing.T) {
	msgs, err := ConvertMsgs(types.ConversationHistory{userTurn("hi")})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, USER, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Text())
}

func TestConvertMsgsTrimsSingleTrailingModelTurn(t *testing.T) {
	msgs, err := ConvertMsgs(types.ConversationHistory{userTurn("hi"), modelTurn("hey")})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, USER, msgs[0].Role)
	assert.Equal(t, "hi", msgs[0].Text())
}

func TestConvertMsgsTrimsTrailingModelRun(t *testing.T) {
	msgs, err := ConvertMsgs(types.ConversationHistory{userTurn("hi"), modelTurn("a"), modelTurn("b")})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text())
}

func TestConvertMsgsKeepsInnerModelTurns(t *testing.T) {
	history := types.ConversationHistory{
		userTurn("q1"), modelTurn("a1"), userTurn("q2"), modelTurn("a2"),
	}
	msgs, err := ConvertMsgs(history)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []MsgRole{USER, MODEL, USER}, []MsgRole{msgs[0].Role, msgs[1].Role, msgs[2].Role})
}

func TestConvertMsgsEmptyPrompt(t *testing.T) {
	cases := map[string]types.ConversationHistory{
		"empty":      {},
		"nil":        nil,
		"model only": {modelTurn("a"), modelTurn("b")},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			msgs, err := ConvertMsgs(history)
			assert.ErrorIs(t, err, types.ErrEmptyPrompt)
			assert.Nil(t, msgs)
		})
	}
}

func TestConvertMsgsCollapsesRoles(t *testing.T) {
	history := types.ConversationHistory{
		{Role: types.CollapseRole("system"), Parts: []types.Part{types.TextPart("rules")}},
		{Role: types.CollapseRole("assistant"), Parts: []types.Part{types.TextPart("ok")}},
		{Role: types.CollapseRole("user"), Parts: []types.Part{types.TextPart("go")}},
	}
	msgs, err := ConvertMsgs(history)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, MODEL, msgs[0].Role)
	assert.Equal(t, MODEL, msgs[1].Role)
	assert.Equal(t, USER, msgs[2].Role)
}

func TestConvertMsgsPreservesPartOrderAndImages(t *testing.T) {
	img := []byte{0xff, 0xd8, 0xff}
	history := types.ConversationHistory{{
		Role: types.USER,
		Parts: []types.Part{
			types.TextPart("look at"),
			types.ImagePart(img, "image/png"),
			types.TextPart("this"),
		},
	}}
	msgs, err := ConvertMsgs(history)
	require.NoError(t, err)
	parts := msgs[0].Parts
	require.Len(t, parts, 3)
	assert.False(t, parts[0].IsBinary())
	assert.Equal(t, "look at", parts[0].Text)
	assert.True(t, parts[1].IsBinary())
	assert.Equal(t, img, parts[1].Data)
	assert.Equal(t, "image/png", parts[1].MIMEType)
	assert.Equal(t, "this", parts[2].Text)
}

func TestConvertMsgsNeverEndsOnModel(t *testing.T) {
	// every user/model pattern up to length 6
	for n := 0; n <= 6; n++ {
		for mask := 0; mask < 1<<n; mask++ {
			history := make(types.ConversationHistory, 0, n)
			lastUser := -1
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					history = append(history, userTurn("u"))
					lastUser = i
				} else {
					history = append(history, modelTurn("m"))
				}
			}
			msgs, err := ConvertMsgs(history)
			if lastUser < 0 {
				assert.ErrorIs(t, err, types.ErrEmptyPrompt)
				continue
			}
			require.NoError(t, err)
			assert.Len(t, msgs, lastUser+1)
			assert.Equal(t, USER, msgs[len(msgs)-1].Role)
		}
	}
}
