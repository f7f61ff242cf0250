package audioio

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// collectBlocks gathers delivered blocks behind a lock.
type collectBlocks struct {
	mu     sync.Mutex
	blocks [][]float32
}

func (c *collectBlocks) deliver(block []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = append(c.blocks, block)
}

func (c *collectBlocks) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.blocks)
}

func (c *collectBlocks) all() [][]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]float32, len(c.blocks))
	copy(out, c.blocks)

	return out
}

func TestReaderSourceDeliversBlocks(t *testing.T) {
	// Two full blocks of 8 samples at a high rate so the ticker fires fast.
	samples := make([]float32, 16)
	for i := range samples {
		samples[i] = 0.5
	}
	r := bytes.NewReader(audio.EncodePCM16(samples))

	src := NewReaderSource(zaptest.NewLogger(t), r, 8000, 8)
	sink := &collectBlocks{}

	require.NoError(t, src.Start(context.Background(), sink.deliver))
	defer src.Stop()

	require.Eventually(t, func() bool { return sink.count() == 2 },
		time.Second, time.Millisecond)

	for _, block := range sink.all() {
		require.Len(t, block, 8)
		for _, v := range block {
			assert.InDelta(t, 0.5, v, 1.0/32768)
		}
	}
}

func TestReaderSourceStopsAtEOF(t *testing.T) {
	src := NewReaderSource(zaptest.NewLogger(t), bytes.NewReader(nil), 8000, 8)
	sink := &collectBlocks{}

	require.NoError(t, src.Start(context.Background(), sink.deliver))
	defer src.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sink.count())
}

func TestReaderSourceStartTwice(t *testing.T) {
	src := NewReaderSource(zaptest.NewLogger(t), bytes.NewReader(nil), 8000, 8)

	require.NoError(t, src.Start(context.Background(), func([]float32) {}))
	defer src.Stop()

	assert.Error(t, src.Start(context.Background(), func([]float32) {}))
}

func TestReaderSourceNilReader(t *testing.T) {
	src := NewReaderSource(zaptest.NewLogger(t), nil, 8000, 8)

	assert.Error(t, src.Start(context.Background(), func([]float32) {}))
}

func TestReaderSourceStopIsIdempotent(t *testing.T) {
	src := NewReaderSource(zaptest.NewLogger(t), bytes.NewReader(nil), 8000, 8)

	require.NoError(t, src.Start(context.Background(), func([]float32) {}))

	src.Stop()
	src.Stop()

	// Restart is allowed after a full stop.
	require.NoError(t, src.Start(context.Background(), func([]float32) {}))
	src.Stop()
}
