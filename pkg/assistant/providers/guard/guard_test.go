package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
)

type stubBackend struct {
	calls int
	err   error
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Generate(_ context.Context, _ adapters.ContractRequest) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return "ok", nil
}

func (b *stubBackend) GenerateStream(_ context.Context, _ adapters.ContractRequest) (adapters.FragmentStream, error) {
	b.calls++
	return nil, b.err
}

func TestWrapDisabledReturnsInner(t *testing.T) {
	inner := &stubBackend{}
	assert.Same(t, inner, Wrap(inner, config.GuardConfig{}, Logger.NewNop()))
}

func TestGuardPassesThrough(t *testing.T) {
	inner := &stubBackend{}
	b := Wrap(inner, config.GuardConfig{BreakerMaxFailures: 3}, Logger.NewNop())

	text, err := b.Generate(context.Background(), adapters.ContractRequest{})

	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, "stub", b.Name())
}

func TestGuardOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubBackend{err: errors.New("503")}
	b := Wrap(inner, config.GuardConfig{BreakerMaxFailures: 2, BreakerTimeout: time.Minute}, Logger.NewNop())

	for i := 0; i < 2; i++ {
		_, err := b.Generate(context.Background(), adapters.ContractRequest{})
		assert.EqualError(t, err, "503")
	}
	assert.Equal(t, gobreaker.StateOpen, b.(*GuardedBackend).State())

	_, err := b.GenerateStream(context.Background(), adapters.ContractRequest{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls)
}

func TestGuardIgnoresCancellation(t *testing.T) {
	inner := &stubBackend{err: context.Canceled}
	b := Wrap(inner, config.GuardConfig{BreakerMaxFailures: 1}, Logger.NewNop())

	for i := 0; i < 3; i++ {
		_, err := b.Generate(context.Background(), adapters.ContractRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.(*GuardedBackend).State())
	assert.Equal(t, 3, inner.calls)
}

func TestGuardRateLimitHonoursContext(t *testing.T) {
	inner := &stubBackend{}
	b := Wrap(inner, config.GuardConfig{RequestsPerSecond: 0.001, Burst: 1}, Logger.NewNop())

	_, err := b.Generate(context.Background(), adapters.ContractRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = b.Generate(ctx, adapters.ContractRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
