package session_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/voiceloop-ai/voiceloop/internal/audioio"
	"github.com/voiceloop-ai/voiceloop/internal/config"
	"github.com/voiceloop-ai/voiceloop/internal/transport"
	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

func newTestConfig() *config.Config {
	return &config.Config{
		OpenAI: config.OpenAIConfig{
			Model: "gpt-4o-realtime-preview",
			Voice: "shimmer",
		},
		Session: config.SessionConfig{
			MaxSessionLength:       10,
			InactivityTimeout:      120,
			RecentSessionCacheSize: 8,
		},
		Audio: config.AudioConfig{
			CaptureSampleRate:  audio.CaptureSampleRate,
			CaptureBlockSize:   audio.CaptureBlockSize,
			PlaybackSampleRate: audio.PlaybackSampleRate,
		},
	}
}

// fakeSource is a capture source driven manually from tests. startHook runs
// mid-acquisition, after the source is committed but before Start returns.
type fakeSource struct {
	mu        sync.Mutex
	startErr  error
	startHook func()
	deliver   audioio.BlockFunc
	started   int
	stopped   int
}

func (s *fakeSource) Start(_ context.Context, deliver audioio.BlockFunc) error {
	s.mu.Lock()
	if s.startErr != nil {
		s.mu.Unlock()
		return s.startErr
	}

	s.deliver = deliver
	s.started++
	hook := s.startHook
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	return nil
}

func (s *fakeSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
}

func (s *fakeSource) Push(block []float32) {
	s.mu.Lock()
	deliver := s.deliver
	s.mu.Unlock()

	if deliver != nil {
		deliver(block)
	}
}

func (s *fakeSource) Stopped() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopped
}

// fakePlayback is a scheduled buffer on the fake sink.
type fakePlayback struct {
	id      string
	samples []float32
	start   float64

	mu      sync.Mutex
	stopped bool
	once    sync.Once
	done    chan struct{}
}

func (p *fakePlayback) ID() string { return p.id }

func (p *fakePlayback) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.once.Do(func() { close(p.done) })
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

// Complete simulates natural end of playback.
func (p *fakePlayback) Complete() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakePlayback) WasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stopped
}

// fakeSink is an output sink with a manually advanced clock. openHook runs
// mid-acquisition, after the sink is committed but before Open returns.
type fakeSink struct {
	mu          sync.Mutex
	now         float64
	openErr     error
	openHook    func()
	scheduleErr error
	opened      int
	closed      int
	scheduled   []*fakePlayback
}

func (s *fakeSink) Open(context.Context) error {
	s.mu.Lock()
	if s.openErr != nil {
		s.mu.Unlock()
		return s.openErr
	}
	s.opened++
	hook := s.openHook
	s.mu.Unlock()

	if hook != nil {
		hook()
	}

	return nil
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeSink) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

func (s *fakeSink) Advance(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += seconds
}

func (s *fakeSink) ScheduleAt(samples []float32, start float64) (audioio.PlaybackHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduleErr != nil {
		return nil, s.scheduleErr
	}

	p := &fakePlayback{
		id:      fmt.Sprintf("pb-%d", len(s.scheduled)),
		samples: samples,
		start:   start,
		done:    make(chan struct{}),
	}
	s.scheduled = append(s.scheduled, p)

	return p, nil
}

func (s *fakeSink) Scheduled() []*fakePlayback {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*fakePlayback, len(s.scheduled))
	copy(out, s.scheduled)

	return out
}

func (s *fakeSink) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opened
}

func (s *fakeSink) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// fakeTransport records outbound frames and lets tests emit server events.
// openHook runs mid-dial, before the OnOpen callback fires.
type fakeTransport struct {
	mu           sync.Mutex
	openErr      error
	sendErr      error
	autoOpen     bool
	openHook     func()
	handlers     transport.Handlers
	instructions string
	frames       []transport.Frame
	opened       int
	closed       int
}

func (t *fakeTransport) Open(_ context.Context, instructions string, handlers transport.Handlers) error {
	t.mu.Lock()
	t.handlers = handlers
	t.instructions = instructions
	t.opened++
	autoOpen := t.autoOpen
	openErr := t.openErr
	hook := t.openHook
	t.mu.Unlock()

	if openErr != nil {
		return openErr
	}

	if hook != nil {
		hook()
	}

	if autoOpen && handlers.OnOpen != nil {
		handlers.OnOpen()
	}

	return nil
}

func (t *fakeTransport) Send(frame transport.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return t.sendErr
	}

	t.frames = append(t.frames, frame)

	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++

	return nil
}

func (t *fakeTransport) Frames() []transport.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]transport.Frame, len(t.frames))
	copy(out, t.frames)

	return out
}

func (t *fakeTransport) Opened() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.opened
}

func (t *fakeTransport) Closed() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

func (t *fakeTransport) Instructions() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.instructions
}

func (t *fakeTransport) EmitOpen() {
	t.mu.Lock()
	h := t.handlers
	t.mu.Unlock()

	if h.OnOpen != nil {
		h.OnOpen()
	}
}

func (t *fakeTransport) EmitAudio(chunk string) {
	t.mu.Lock()
	h := t.handlers
	t.mu.Unlock()

	if h.OnAudio != nil {
		h.OnAudio(chunk)
	}
}

func (t *fakeTransport) EmitUsage(u transport.Usage) {
	t.mu.Lock()
	h := t.handlers
	t.mu.Unlock()

	if h.OnUsage != nil {
		h.OnUsage(u)
	}
}

func (t *fakeTransport) EmitError(err error) {
	t.mu.Lock()
	h := t.handlers
	t.mu.Unlock()

	if h.OnError != nil {
		h.OnError(err)
	}
}

func (t *fakeTransport) EmitClose() {
	t.mu.Lock()
	h := t.handlers
	t.mu.Unlock()

	if h.OnClose != nil {
		h.OnClose()
	}
}
