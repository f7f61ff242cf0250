package session

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/transport"
	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// captureQueueSize bounds the frames held between the capture callback and
// the sender goroutine. At 4096 samples per block this is over ten seconds
// of backlog before anything is dropped.
const captureQueueSize = 64

// CaptureEncoder turns capture blocks into encoded outbound frames. The
// capture source pushes blocks into OnBlock on its own cadence; a dedicated
// sender goroutine issues the transport writes so the capture callback
// never blocks. Frames are dropped, counted, and logged only when the queue
// is full.
type CaptureEncoder struct {
	logger *zap.Logger
	tr     transport.Transport

	queue  chan transport.Frame
	active atomic.Bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool

	sent    atomic.Int64
	dropped atomic.Int64
}

// NewCaptureEncoder creates an encoder feeding tr. It stays inert until
// Start; blocks delivered before then are ignored.
func NewCaptureEncoder(logger *zap.Logger, tr transport.Transport) *CaptureEncoder {
	return &CaptureEncoder{
		logger: logger,
		tr:     tr,
		queue:  make(chan transport.Frame, captureQueueSize),
	}
}

// Start begins accepting blocks and launches the sender goroutine. A no-op
// after Stop, so a stop racing session setup leaves the encoder inert.
func (e *CaptureEncoder) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped || e.cancel != nil {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.active.Store(true)
	e.mu.Unlock()

	go e.sendLoop(ctx)

	e.logger.Info("Capture encoder started")
}

// Stop ends encoding and unsubscribes from further blocks. Safe to call
// more than once; repeat calls are no-ops.
func (e *CaptureEncoder) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.active.Store(false)
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	e.logger.Info("Capture encoder stopped",
		zap.Int64("frames_sent", e.sent.Load()),
		zap.Int64("frames_dropped", e.dropped.Load()))
}

// OnBlock is the capture source callback. It encodes the block and enqueues
// the frame without ever blocking; under sustained overload the frame is
// dropped.
func (e *CaptureEncoder) OnBlock(block []float32) {
	if !e.active.Load() || len(block) == 0 {
		return
	}

	frame := transport.Frame{
		Payload:    audio.EncodePCM16(block),
		MediaType:  audio.MediaType,
		SampleRate: audio.CaptureSampleRate,
	}

	select {
	case e.queue <- frame:
	default:
		n := e.dropped.Add(1)
		e.logger.Warn("Outbound queue full, dropping capture frame",
			zap.Int64("total_dropped", n))
	}
}

// Dropped returns the number of frames discarded under backpressure.
func (e *CaptureEncoder) Dropped() int64 { return e.dropped.Load() }

// Sent returns the number of frames handed to the transport.
func (e *CaptureEncoder) Sent() int64 { return e.sent.Load() }

func (e *CaptureEncoder) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-e.queue:
			if !e.active.Load() {
				return
			}

			if err := e.tr.Send(frame); err != nil {
				// Transient send failure drops this frame only; a dead
				// channel surfaces separately through the transport's
				// error callback.
				e.dropped.Add(1)
				e.logger.Warn("Failed to send capture frame", zap.Error(err))
				continue
			}
			e.sent.Add(1)
		}
	}
}
