package audioio

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// WriterSink plays scheduled sample buffers by writing their PCM16 bytes to
// an io.Writer when their start time arrives on the sink's wall-clock
// derived output clock. It backs the CLI's stdout playback path.
type WriterSink struct {
	logger     *zap.Logger
	w          io.Writer
	sampleRate int

	mu     sync.Mutex
	epoch  time.Time
	opened bool
	closed bool

	// serializes buffer writes so overlapping goroutines cannot interleave
	writeMu sync.Mutex
}

// NewWriterSink creates a sink emitting 16-bit little-endian mono PCM at
// sampleRate to w.
func NewWriterSink(logger *zap.Logger, w io.Writer, sampleRate int) *WriterSink {
	return &WriterSink{
		logger:     logger,
		w:          w,
		sampleRate: sampleRate,
	}
}

func (s *WriterSink) Open(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return errors.New("output stream unavailable")
	}
	if s.opened && !s.closed {
		return nil
	}

	s.epoch = time.Now()
	s.opened = true
	s.closed = false

	return nil
}

func (s *WriterSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *WriterSink) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return 0
	}

	return time.Since(s.epoch).Seconds()
}

type writerPlayback struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *writerPlayback) ID() string            { return p.id }
func (p *writerPlayback) Stop()                 { p.cancel() }
func (p *writerPlayback) Done() <-chan struct{} { return p.done }

func (s *WriterSink) ScheduleAt(samples []float32, start float64) (PlaybackHandle, error) {
	s.mu.Lock()
	if !s.opened || s.closed {
		s.mu.Unlock()
		return nil, errors.New("output sink is not open")
	}
	epoch := s.epoch
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	playback := &writerPlayback{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	startAt := epoch.Add(time.Duration(start * float64(time.Second)))
	duration := time.Duration(len(samples)) * time.Second / time.Duration(s.sampleRate)

	go func() {
		defer close(playback.done)
		defer cancel()

		if wait := time.Until(startAt); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}

		s.writeMu.Lock()
		_, err := s.w.Write(audio.EncodePCM16(samples))
		s.writeMu.Unlock()
		if err != nil {
			s.logger.Warn("Output stream write failed",
				zap.String("playback_id", playback.id),
				zap.Error(err))
			return
		}

		// Hold the handle active for the buffer's play duration so that
		// completion tracks the output clock, not the write call.
		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}()

	return playback, nil
}
