package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/audioio"
	"github.com/voiceloop-ai/voiceloop/internal/config"
	"github.com/voiceloop-ai/voiceloop/internal/transport"
	"github.com/voiceloop-ai/voiceloop/pkg/openai"
	"github.com/voiceloop-ai/voiceloop/pkg/util"
)

// defaultPreamble is used when the config does not override the system
// prompt preamble.
const defaultPreamble = "You are a helpful voice assistant. The user is " +
	"working on the notes provided below; answer conversationally and " +
	"keep responses brief."

// Options carries the caller-supplied parameters of one session.
type Options struct {
	// Context is an opaque textual context (for example the body of the
	// note being discussed). May be empty. It enters the core only as part
	// of the transport's system instruction.
	Context string
}

// Controller owns one session: it wires the capture encoder and playback
// scheduler to the transport, drives the Connecting -> Connected ->
// Closed|Error state machine, and guarantees every acquired resource is
// released exactly once on every exit path.
type Controller struct {
	logger   *zap.Logger
	cfg      *config.Config
	source   audioio.CaptureSource
	sink     audioio.OutputSink
	tr       transport.Transport
	pricing  openai.PricingService
	registry *Registry
	opts     Options

	id      string
	encoder *CaptureEncoder

	mu            sync.Mutex
	state         State
	onState       func(State)
	scheduler     *PlaybackScheduler
	runCtx        context.Context
	cancelRun     context.CancelFunc
	reason        string
	startedAt     time.Time
	usage         transport.Usage
	idle          *util.Debouncer
	opening       bool
	pendingNotify []State
	notifying     bool

	teardownOnce sync.Once
}

// New constructs a session in the Connecting state. Nothing is acquired
// until Open; registry and pricing may be nil.
func New(
	logger *zap.Logger,
	cfg *config.Config,
	source audioio.CaptureSource,
	sink audioio.OutputSink,
	tr transport.Transport,
	pricing openai.PricingService,
	registry *Registry,
	opts Options,
) *Controller {
	id := uuid.NewString()

	return &Controller{
		logger:   logger.With(zap.String("session_id", id)),
		cfg:      cfg,
		source:   source,
		sink:     sink,
		tr:       tr,
		pricing:  pricing,
		registry: registry,
		opts:     opts,
		id:       id,
		encoder:  NewCaptureEncoder(logger, tr),
		state:    StateConnecting,
	}
}

// ID returns the session's unique identifier.
func (c *Controller) ID() string { return c.id }

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// OnStateChange registers an observer for state transitions. Must be set
// before Open.
func (c *Controller) OnStateChange(f func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onState = f
}

// Open runs the Connecting phase: acquire the capture and output resources
// and open the transport. The given context cancels acquisition; an early
// Close does too. On any failure the session ends in Error with everything
// released.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return ErrSessionTerminal
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.runCtx = runCtx
	c.cancelRun = cancel
	c.opening = true
	c.pendingNotify = append(c.pendingNotify, StateConnecting)
	c.mu.Unlock()

	c.flushNotify()

	c.logger.Info("Session connecting",
		zap.String("model", c.cfg.OpenAI.Model),
		zap.Int("context_len", len(c.opts.Context)))

	if err := c.source.Start(runCtx, c.onCaptureBlock); err != nil {
		acqErr := &ResourceAcquisitionError{Resource: "capture", Err: err}
		c.fail(acqErr)
		c.finishOpen()
		return acqErr
	}

	if err := c.sink.Open(runCtx); err != nil {
		acqErr := &ResourceAcquisitionError{Resource: "output", Err: err}
		c.fail(acqErr)
		c.finishOpen()
		return acqErr
	}

	c.mu.Lock()
	if c.state.Terminal() {
		// Closed while acquiring; run the release that transition deferred.
		c.mu.Unlock()
		c.finishOpen()
		return ErrSessionTerminal
	}
	c.scheduler = NewPlaybackScheduler(c.logger, c.sink, c.cfg.Audio.PlaybackSampleRate)
	c.mu.Unlock()

	handlers := transport.Handlers{
		OnOpen:           c.onTransportOpen,
		OnAudio:          c.onInboundAudio,
		OnTranscript:     c.onTranscript,
		OnUserTranscript: c.onUserTranscript,
		OnUsage:          c.onUsage,
		OnClose:          c.onTransportClose,
		OnError:          c.onTransportError,
	}

	if err := c.tr.Open(runCtx, c.systemPrompt(), handlers); err != nil {
		c.fail(err)
		c.finishOpen()
		return err
	}

	if c.finishOpen() {
		return ErrSessionTerminal
	}

	return nil
}

// finishOpen ends the acquisition phase and runs any teardown a concurrent
// transition deferred while Open was still acquiring. Reports whether the
// session ended up terminal.
func (c *Controller) finishOpen() bool {
	c.mu.Lock()
	c.opening = false
	terminal := c.state.Terminal()
	c.mu.Unlock()

	if terminal {
		c.teardown()
	}

	return terminal
}

// Close ends the session. Idempotent; closing an already ended session is
// a no-op.
func (c *Controller) Close() {
	c.transition(StateClosed, "closed by caller", nil)
}

// Usage returns the audio token usage accumulated so far.
func (c *Controller) Usage() transport.Usage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.usage
}

// systemPrompt composes the session instruction from the configured
// preamble and the caller-supplied context. This is the only place caller
// context enters the core.
func (c *Controller) systemPrompt() string {
	preamble := c.cfg.Session.SystemPromptPreamble
	if preamble == "" {
		preamble = defaultPreamble
	}

	if c.opts.Context == "" {
		return preamble
	}

	return preamble + "\n\n" + c.opts.Context
}

// onCaptureBlock runs on the capture source's cadence. Liveness is checked
// here so blocks arriving after teardown never reach the transport.
func (c *Controller) onCaptureBlock(block []float32) {
	if c.State() != StateConnected {
		return
	}

	c.touch()
	c.encoder.OnBlock(block)
}

func (c *Controller) onTransportOpen() {
	c.mu.Lock()
	if c.state != StateConnecting {
		// Teardown won the race; stay terminal.
		c.mu.Unlock()
		return
	}
	c.state = StateConnected
	c.startedAt = time.Now()
	if idleLimit := time.Duration(c.cfg.Session.InactivityTimeout) * time.Second; idleLimit > 0 {
		c.idle = util.NewDebouncer(idleLimit)
	}
	c.pendingNotify = append(c.pendingNotify, StateConnected)
	runCtx := c.runCtx
	c.mu.Unlock()

	c.encoder.Start(runCtx)
	go c.watchdog(runCtx)

	c.logger.Info("Session connected")

	c.flushNotify()
}

func (c *Controller) onInboundAudio(chunk string) {
	c.mu.Lock()
	live := c.state == StateConnected
	scheduler := c.scheduler
	c.mu.Unlock()

	if !live || scheduler == nil {
		return
	}

	c.touch()
	scheduler.Schedule(chunk)
}

func (c *Controller) onTranscript(text string) {
	if text == "" {
		return
	}

	// Transcripts are surfaced as log signals only; nothing is persisted.
	c.logger.Info("Assistant transcript", zap.String("text", text))
}

func (c *Controller) onUserTranscript(text string) {
	if text == "" {
		return
	}

	c.logger.Info("User transcript", zap.String("text", text))
}

func (c *Controller) onUsage(u transport.Usage) {
	c.mu.Lock()
	c.usage.InputAudioTokens += u.InputAudioTokens
	c.usage.OutputAudioTokens += u.OutputAudioTokens
	c.mu.Unlock()

	c.touch()
}

func (c *Controller) onTransportClose() {
	c.transition(StateClosed, "transport closed", nil)
}

func (c *Controller) onTransportError(err error) {
	c.fail(err)
}

func (c *Controller) fail(err error) {
	c.transition(StateError, err.Error(), err)
}

// transition moves to a terminal state and runs teardown. Transitions out
// of a terminal state are ignored, which makes Close and every internal
// failure path idempotent.
func (c *Controller) transition(to State, reason string, err error) {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = to
	c.reason = reason
	c.pendingNotify = append(c.pendingNotify, to)
	opening := c.opening
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("Session failed", zap.Error(err))
	}

	c.flushNotify()

	// While Open is still acquiring, teardown is deferred to finishOpen:
	// consuming the once-guarded release now would miss resources acquired
	// after this point.
	if !opening {
		c.teardown()
	}
}

// flushNotify delivers queued state notifications in the order the states
// were entered. A single drainer runs at a time; a callback that triggers
// another transition enqueues it for the active drainer instead of
// recursing.
func (c *Controller) flushNotify() {
	c.mu.Lock()
	if c.notifying {
		c.mu.Unlock()
		return
	}
	c.notifying = true
	for len(c.pendingNotify) > 0 {
		next := c.pendingNotify[0]
		c.pendingNotify = c.pendingNotify[1:]
		cb := c.onState
		c.mu.Unlock()

		if cb != nil {
			cb(next)
		}

		c.mu.Lock()
	}
	c.notifying = false
	c.mu.Unlock()
}

// teardown releases everything exactly once: the encoder stops feeding the
// transport, in-flight playback is cancelled, capture and output resources
// are released, and the transport is closed. Runs at most once regardless
// of how many exit paths reach it.
func (c *Controller) teardown() {
	c.teardownOnce.Do(func() {
		c.mu.Lock()
		cancel := c.cancelRun
		scheduler := c.scheduler
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}

		c.encoder.Stop()

		if scheduler != nil {
			scheduler.Teardown()
		}

		c.source.Stop()
		c.sink.Close()

		if err := c.tr.Close(); err != nil {
			c.logger.Warn("Error closing transport", zap.Error(err))
		}

		c.record()
	})
}

func (c *Controller) record() {
	c.mu.Lock()
	summary := Summary{
		ID:                c.id,
		Model:             c.cfg.OpenAI.Model,
		StartedAt:         c.startedAt,
		FinalState:        c.state,
		Reason:            c.reason,
		InputAudioTokens:  c.usage.InputAudioTokens,
		OutputAudioTokens: c.usage.OutputAudioTokens,
	}
	if !c.startedAt.IsZero() {
		summary.Duration = time.Since(c.startedAt)
	}
	c.mu.Unlock()

	if c.pricing != nil {
		cost, err := c.pricing.AudioTokenCost(summary.Model, summary.InputAudioTokens, summary.OutputAudioTokens)
		if err != nil {
			c.logger.Debug("No pricing data for model", zap.String("model", summary.Model))
		} else {
			summary.Cost = cost
		}
	}

	if c.registry != nil {
		c.registry.Record(summary)
	}
}

// touch marks audio activity in either direction, deferring the inactivity
// deadline.
func (c *Controller) touch() {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	if idle != nil {
		idle.Reset()
	}
}

// watchdog enforces the configured session length and inactivity limits.
// Runs from the moment the session connects until teardown cancels it.
func (c *Controller) watchdog(ctx context.Context) {
	var maxC <-chan time.Time
	if maxLength := time.Duration(c.cfg.Session.MaxSessionLength) * time.Minute; maxLength > 0 {
		timer := time.NewTimer(maxLength)
		defer timer.Stop()
		maxC = timer.C
	}

	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	var idleC <-chan time.Time
	if idle != nil {
		defer idle.Stop()
		idleC = idle.C()
	}

	select {
	case <-ctx.Done():
	case <-maxC:
		c.transition(StateClosed, "maximum session length reached", nil)
	case <-idleC:
		c.transition(StateClosed, "inactivity timeout", nil)
	}
}
