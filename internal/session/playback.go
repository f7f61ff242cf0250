package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/audioio"
	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// PlaybackScheduler consumes inbound audio chunks in arrival order and
// schedules them against the output sink with no gaps and no overlap. A
// single cursor tracks the earliest time the next buffer may begin; a burst
// of chunks therefore plays back-to-back, while a chunk arriving after its
// slot has passed plays immediately instead of being skipped.
type PlaybackScheduler struct {
	logger     *zap.Logger
	sink       audioio.OutputSink
	sampleRate int

	mu        sync.Mutex
	nextStart float64
	active    map[string]audioio.PlaybackHandle
	closed    bool
}

// NewPlaybackScheduler creates a scheduler whose cursor starts at the
// sink's current clock time.
func NewPlaybackScheduler(logger *zap.Logger, sink audioio.OutputSink, sampleRate int) *PlaybackScheduler {
	return &PlaybackScheduler{
		logger:     logger,
		sink:       sink,
		sampleRate: sampleRate,
		nextStart:  sink.Now(),
		active:     make(map[string]audioio.PlaybackHandle),
	}
}

// Schedule decodes one inbound chunk (transport-safe text encoding of PCM16
// bytes) and queues it for seamless playback. Malformed chunks are dropped
// without advancing the cursor; the session continues.
func (p *PlaybackScheduler) Schedule(chunk string) {
	pcm, err := audio.DecodeBase64(chunk)
	if err != nil {
		p.logger.Warn("Dropping undecodable inbound chunk", zap.Error(err))
		return
	}

	samples, err := audio.DecodePCM16(pcm)
	if err != nil {
		p.logger.Warn("Dropping malformed inbound PCM", zap.Error(err))
		return
	}
	if len(samples) == 0 {
		return
	}

	duration := float64(len(samples)) / float64(p.sampleRate)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	start := p.sink.Now()
	if p.nextStart > start {
		start = p.nextStart
	}

	handle, err := p.sink.ScheduleAt(samples, start)
	if err != nil {
		// Cursor stays put so the next chunk does not inherit a slot that
		// was never filled.
		p.logger.Warn("Output sink rejected buffer", zap.Error(err))
		return
	}

	p.nextStart = start + duration
	p.active[handle.ID()] = handle

	go p.reapWhenDone(handle)

	p.logger.Debug("Scheduled playback buffer",
		zap.String("playback_id", handle.ID()),
		zap.Float64("start", start),
		zap.Float64("duration", duration))
}

func (p *PlaybackScheduler) reapWhenDone(handle audioio.PlaybackHandle) {
	<-handle.Done()

	p.mu.Lock()
	delete(p.active, handle.ID())
	p.mu.Unlock()
}

// ActiveCount reports how many scheduled buffers have not yet completed.
func (p *PlaybackScheduler) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.active)
}

// NextStart exposes the cursor for tests and diagnostics.
func (p *PlaybackScheduler) NextStart() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.nextStart
}

// Teardown stops every in-flight playback, clears the active set, and
// resets the cursor to the sink's current time so nothing stale survives.
// Safe to call more than once.
func (p *PlaybackScheduler) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, handle := range p.active {
		handle.Stop()
		delete(p.active, id)
	}

	p.nextStart = p.sink.Now()
	p.closed = true

	p.logger.Debug("Playback scheduler torn down")
}
