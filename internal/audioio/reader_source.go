package audioio

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// ReaderSource captures raw PCM16 audio from an io.Reader and delivers it
// as fixed-size float blocks at the real-time cadence of the configured
// sample rate. It backs the CLI's stdin capture path and doubles as a
// file-based source.
type ReaderSource struct {
	logger     *zap.Logger
	r          io.Reader
	sampleRate int
	blockSize  int

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// NewReaderSource creates a source reading 16-bit little-endian mono PCM
// from r at sampleRate, delivering blockSize samples per callback.
func NewReaderSource(logger *zap.Logger, r io.Reader, sampleRate, blockSize int) *ReaderSource {
	return &ReaderSource{
		logger:     logger,
		r:          r,
		sampleRate: sampleRate,
		blockSize:  blockSize,
	}
}

func (s *ReaderSource) Start(ctx context.Context, deliver BlockFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil {
		return errors.New("capture stream unavailable")
	}
	if s.started {
		return errors.New("capture already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true

	go s.run(ctx, deliver)

	return nil
}

func (s *ReaderSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.started = false
}

func (s *ReaderSource) run(ctx context.Context, deliver BlockFunc) {
	blockDuration := time.Duration(s.blockSize) * time.Second / time.Duration(s.sampleRate)
	ticker := time.NewTicker(blockDuration)
	defer ticker.Stop()

	raw := make([]byte, s.blockSize*audio.BytesPerSample)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := io.ReadFull(s.r, raw)
			if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
				if !errors.Is(err, io.EOF) {
					s.logger.Warn("Capture stream read failed", zap.Error(err))
				}
				return
			}

			block, decErr := audio.DecodePCM16(raw[:n-n%audio.BytesPerSample])
			if decErr != nil {
				s.logger.Warn("Skipping malformed capture block", zap.Error(decErr))
				continue
			}
			if len(block) == 0 {
				continue
			}

			deliver(block)
		}
	}
}
