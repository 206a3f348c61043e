package adapters

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/xpanvictor/convoinfer/internal/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// timedFragment arrives at offset from the stream's start.
type timedFragment struct {
	at   time.Duration
	text string
}

// scriptedStream moves the clock to each fragment's arrival time before
// handing it out.
type scriptedStream struct {
	clock  *fakeClock
	start  time.Time
	frags  []timedFragment
	pos    int
	err    error // returned after the script instead of io.EOF
	closed bool
}

func newScriptedStream(clock *fakeClock, frags ...timedFragment) *scriptedStream {
	s := &scriptedStream{clock: clock, frags: frags}
	if clock != nil {
		s.start = clock.Now()
	}
	return s
}

func (s *scriptedStream) Next(ctx context.Context) (ContractFragment, error) {
	if err := ctx.Err(); err != nil {
		return ContractFragment{}, err
	}
	if s.pos >= len(s.frags) {
		if s.err != nil {
			return ContractFragment{}, s.err
		}
		return ContractFragment{}, io.EOF
	}
	f := s.frags[s.pos]
	s.pos++
	if s.clock != nil {
		s.clock.Set(s.start.Add(f.at))
	}
	return ContractFragment{Text: f.text}, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	turns []types.PublishedTurn
	err   error
}

func (p *recordingPublisher) AppendTurn(_ context.Context, turn types.PublishedTurn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.turns = append(p.turns, turn)
	return nil
}

func (p *recordingPublisher) texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.turns))
	for _, t := range p.turns {
		out = append(out, t.Text)
	}
	return out
}

type fakeBackend struct {
	mu          sync.Mutex
	text        string
	err         error
	stream      FragmentStream
	calls       int
	streamCalls int
	lastReq     ContractRequest
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Generate(_ context.Context, req ContractRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.lastReq = req
	return b.text, b.err
}

func (b *fakeBackend) GenerateStream(_ context.Context, req ContractRequest) (FragmentStream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streamCalls++
	b.lastReq = req
	if b.err != nil {
		return nil, b.err
	}
	if b.stream == nil {
		return nil, errors.New("no stream scripted")
	}
	return b.stream, nil
}

func userTurn(text string) types.ConversationTurn {
	return types.ConversationTurn{Role: types.USER, Parts: []types.Part{types.TextPart(text)}}
}

func modelTurn(text string) types.ConversationTurn {
	return types.ConversationTurn{Role: types.MODEL, Parts: []types.Part{types.TextPart(text)}}
}
