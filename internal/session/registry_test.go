package session_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/voiceloop-ai/voiceloop/internal/session"
)

func TestRegistry_RecordAndGet(t *testing.T) {
	registry, err := session.NewRegistry(zaptest.NewLogger(t), 4)
	require.NoError(t, err)

	summary := session.Summary{
		ID:                "s-1",
		Model:             "gpt-4o-realtime-preview",
		StartedAt:         time.Now(),
		Duration:          90 * time.Second,
		FinalState:        session.StateClosed,
		Reason:            "closed by caller",
		InputAudioTokens:  500,
		OutputAudioTokens: 1500,
		Cost:              0.14,
	}
	registry.Record(summary)

	got, ok := registry.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, summary, got)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_EvictsOldestWhenFull(t *testing.T) {
	registry, err := session.NewRegistry(zaptest.NewLogger(t), 3)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		registry.Record(session.Summary{
			ID:         fmt.Sprintf("s-%d", i),
			FinalState: session.StateClosed,
		})
	}

	assert.Equal(t, 3, registry.Len())

	_, ok := registry.Get("s-0")
	assert.False(t, ok)
	_, ok = registry.Get("s-1")
	assert.False(t, ok)

	recent := registry.Recent()
	require.Len(t, recent, 3)
	assert.Equal(t, "s-2", recent[0].ID)
	assert.Equal(t, "s-4", recent[2].ID)
}

func TestRegistry_RejectsNonPositiveSize(t *testing.T) {
	_, err := session.NewRegistry(zaptest.NewLogger(t), 0)
	assert.Error(t, err)
}
