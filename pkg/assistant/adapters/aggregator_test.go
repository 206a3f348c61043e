package adapters

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/convoinfer/internal/types"
)

func newTestAggregator(pub TurnPublisher, clock *fakeClock, interval time.Duration) *Aggregator {
	return NewAggregator(AggregatorOpts{
		ItemID:       uuid.New(),
		InvocationID: uuid.New(),
		Model:        types.ModelInfo{Name: "gemini-test", ID: "m-1"},
		Interval:     interval,
		Publisher:    pub,
		Now:          clock.Now,
	})
}

func TestAggregatorDebouncesStream(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, 2*time.Second)
	stream := newScriptedStream(clock,
		timedFragment{0, "He"},
		timedFragment{1 * time.Second, "llo, "},
		timedFragment{3 * time.Second, "world"},
	)

	require.NoError(t, agg.Consume(context.Background(), stream))

	assert.Equal(t, []string{"Hello, world", "Hello, world"}, pub.texts())
	assert.False(t, pub.turns[0].Final)
	assert.True(t, pub.turns[1].Final)
	assert.Equal(t, StatePublished, agg.State())
	assert.True(t, stream.closed)
}

func TestAggregatorPublishesFullPrefixes(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, time.Second)
	stream := newScriptedStream(clock,
		timedFragment{1 * time.Second, "a"},
		timedFragment{2 * time.Second, "b"},
		timedFragment{3 * time.Second, "c"},
	)

	require.NoError(t, agg.Consume(context.Background(), stream))

	texts := pub.texts()
	assert.Equal(t, []string{"a", "ab", "abc", "abc"}, texts)
	for i := 1; i < len(texts); i++ {
		assert.True(t, strings.HasPrefix(texts[i], texts[i-1]))
	}
}

func TestAggregatorFinalFlushWithinFirstInterval(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, 10*time.Second)
	stream := newScriptedStream(clock,
		timedFragment{100 * time.Millisecond, "quick "},
		timedFragment{200 * time.Millisecond, "answer"},
	)

	require.NoError(t, agg.Consume(context.Background(), stream))

	require.Len(t, pub.turns, 1)
	assert.Equal(t, "quick answer", pub.turns[0].Text)
	assert.True(t, pub.turns[0].Final)
}

func TestAggregatorEmptyFragmentsAreNoops(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, 2*time.Second)
	// the empty fragment arrives late; it must not trigger a publish nor move
	// the debounce reference point
	stream := newScriptedStream(clock,
		timedFragment{0, "x"},
		timedFragment{5 * time.Second, ""},
		timedFragment{5 * time.Second, "y"},
	)

	require.NoError(t, agg.Consume(context.Background(), stream))

	assert.Equal(t, []string{"xy", "xy"}, pub.texts())
}

func TestAggregatorEmptyStreamSkipsPublishing(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, time.Second)
	stream := newScriptedStream(clock, timedFragment{0, ""}, timedFragment{time.Second, ""})

	require.NoError(t, agg.Consume(context.Background(), stream))

	assert.Empty(t, pub.turns)
	assert.Equal(t, StatePublished, agg.State())
}

func TestAggregatorFinalTextIsConcatenation(t *testing.T) {
	frags := []string{"The ", "", "quick ", "brown", " fox", "", " jumps"}
	for _, interval := range []time.Duration{0, time.Second, 3 * time.Second, time.Hour} {
		clock := newFakeClock()
		pub := &recordingPublisher{}
		agg := newTestAggregator(pub, clock, interval)
		script := make([]timedFragment, 0, len(frags))
		for i, f := range frags {
			script = append(script, timedFragment{time.Duration(i) * 700 * time.Millisecond, f})
		}

		require.NoError(t, agg.Consume(context.Background(), newScriptedStream(clock, script...)))

		require.NotEmpty(t, pub.turns)
		last := pub.turns[len(pub.turns)-1]
		assert.True(t, last.Final)
		assert.Equal(t, strings.Join(frags, ""), last.Text)
	}
}

func TestAggregatorBoundsIntermediatePublishes(t *testing.T) {
	interval := 2 * time.Second
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, interval)
	script := make([]timedFragment, 0, 100)
	for i := 0; i < 100; i++ {
		script = append(script, timedFragment{time.Duration(i) * 100 * time.Millisecond, "t"})
	}
	duration := script[len(script)-1].at

	require.NoError(t, agg.Consume(context.Background(), newScriptedStream(clock, script...)))

	intermediate := 0
	for _, turn := range pub.turns {
		if !turn.Final {
			intermediate++
		}
	}
	bound := int(math.Ceil(float64(duration) / float64(interval)))
	assert.LessOrEqual(t, intermediate, bound)
	assert.Equal(t, intermediate+1, len(pub.turns))
	assert.Equal(t, agg.Publishes(), len(pub.turns))
}

func TestAggregatorKeepsInvocationIdentity(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, 0)
	stream := newScriptedStream(clock, timedFragment{0, "a"}, timedFragment{time.Second, "b"})

	require.NoError(t, agg.Consume(context.Background(), stream))

	require.Len(t, pub.turns, 3)
	for _, turn := range pub.turns {
		assert.Equal(t, pub.turns[0].ID, turn.ID)
		assert.Equal(t, pub.turns[0].InvocationID, turn.InvocationID)
		assert.Equal(t, types.PublishedConfidence, turn.Confidence)
		assert.Equal(t, "gemini-test", turn.Model.Name)
	}
}

func TestAggregatorPublishErrorPropagates(t *testing.T) {
	clock := newFakeClock()
	storeErr := errors.New("store down")
	pub := &recordingPublisher{err: storeErr}
	agg := newTestAggregator(pub, clock, time.Second)
	stream := newScriptedStream(clock, timedFragment{0, "a"})

	err := agg.Consume(context.Background(), stream)

	assert.ErrorIs(t, err, types.ErrPublish)
	assert.ErrorIs(t, err, storeErr)
	assert.NotEqual(t, StatePublished, agg.State())
}

func TestAggregatorStreamErrorSkipsFinalFlush(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, time.Hour)
	stream := newScriptedStream(clock, timedFragment{0, "partial"})
	stream.err = errors.New("connection reset")

	err := agg.Consume(context.Background(), stream)

	assert.EqualError(t, err, "connection reset")
	assert.Empty(t, pub.turns)
	assert.Equal(t, StateAccumulating, agg.State())
}

func TestAggregatorCancellationFlushes(t *testing.T) {
	clock := newFakeClock()
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, clock, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	stream := &cancellingStream{frags: []string{"one ", "two"}, cancel: cancel}

	err := agg.Consume(ctx, stream)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, pub.turns, 1)
	assert.Equal(t, "one two", pub.turns[0].Text)
	assert.True(t, pub.turns[0].Final)
	assert.Equal(t, StatePublished, agg.State())
}

func TestAggregatorCompletePublishesOnce(t *testing.T) {
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, newFakeClock(), time.Second)

	require.NoError(t, agg.Complete(context.Background(), "hello"))

	assert.Equal(t, []string{"hello"}, pub.texts())
	assert.True(t, pub.turns[0].Final)
	assert.Equal(t, StatePublished, agg.State())
}

func TestAggregatorCompleteSkipsEmpty(t *testing.T) {
	pub := &recordingPublisher{}
	agg := newTestAggregator(pub, newFakeClock(), time.Second)

	require.NoError(t, agg.Complete(context.Background(), ""))

	assert.Empty(t, pub.turns)
	assert.Equal(t, StatePublished, agg.State())
}

// cancellingStream cancels its context after handing out every fragment.
type cancellingStream struct {
	frags  []string
	pos    int
	cancel context.CancelFunc
}

func (s *cancellingStream) Next(ctx context.Context) (ContractFragment, error) {
	if s.pos < len(s.frags) {
		s.pos++
		return ContractFragment{Text: s.frags[s.pos-1]}, nil
	}
	s.cancel()
	<-ctx.Done()
	return ContractFragment{}, ctx.Err()
}

func (s *cancellingStream) Close() error { return nil }
