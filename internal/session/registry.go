package session

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Summary is the read-only record of an ended session. Only accounting
// survives teardown; transcripts and audio never do.
type Summary struct {
	ID                string
	Model             string
	StartedAt         time.Time
	Duration          time.Duration
	FinalState        State
	Reason            string
	InputAudioTokens  int
	OutputAudioTokens int
	Cost              float64
}

// Registry retains summaries of recently ended sessions in a bounded
// in-memory cache.
type Registry struct {
	logger *zap.Logger
	cache  *lru.Cache[string, Summary]
}

// NewRegistry creates a registry keeping at most size summaries.
func NewRegistry(logger *zap.Logger, size int) (*Registry, error) {
	cache, err := lru.New[string, Summary](size)
	if err != nil {
		return nil, err
	}

	return &Registry{logger: logger, cache: cache}, nil
}

// Record stores the summary of an ended session, evicting the oldest entry
// when full.
func (r *Registry) Record(s Summary) {
	r.cache.Add(s.ID, s)

	r.logger.Info("Session ended",
		zap.String("session_id", s.ID),
		zap.String("model", s.Model),
		zap.String("final_state", s.FinalState.String()),
		zap.String("reason", s.Reason),
		zap.Duration("duration", s.Duration),
		zap.Int("input_audio_tokens", s.InputAudioTokens),
		zap.Int("output_audio_tokens", s.OutputAudioTokens),
		zap.Float64("cost", s.Cost))
}

// Get returns the summary for a session ID, if still cached.
func (r *Registry) Get(id string) (Summary, bool) {
	return r.cache.Get(id)
}

// Recent returns cached summaries from oldest to newest.
func (r *Registry) Recent() []Summary {
	return r.cache.Values()
}

// Len reports how many summaries are currently cached.
func (r *Registry) Len() int {
	return r.cache.Len()
}
