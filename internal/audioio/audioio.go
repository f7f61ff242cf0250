// Package audioio defines the capture-source and output-sink collaborators
// a session depends on, together with stream-backed implementations used by
// the CLI. Real device backends plug in behind the same interfaces.
package audioio

import "context"

// BlockFunc receives one capture block of mono float samples in [-1, 1].
// The capture source invokes it on its own cadence; implementations must
// never block inside it.
type BlockFunc func(block []float32)

// CaptureSource produces a continuous stream of capture blocks.
type CaptureSource interface {
	// Start acquires the capture resource and begins delivering blocks.
	// It fails if the device is unavailable or permission is denied.
	// The context cancels both acquisition and delivery.
	Start(ctx context.Context, deliver BlockFunc) error

	// Stop ends delivery and releases the capture resource. Safe to call
	// more than once.
	Stop()
}

// PlaybackHandle is a single scheduled buffer on an output sink.
type PlaybackHandle interface {
	// ID uniquely identifies this playback within the sink.
	ID() string

	// Stop cancels the playback immediately. Safe to call more than once.
	Stop()

	// Done is closed when the buffer finishes playing or is stopped.
	Done() <-chan struct{}
}

// OutputSink plays sample buffers at scheduled times against its own
// monotonic clock. The clock's rate defines the playback sample rate.
type OutputSink interface {
	// Open acquires the output resource.
	Open(ctx context.Context) error

	// Close releases the output resource. Safe to call more than once.
	Close()

	// Now returns the current output-clock time in seconds.
	Now() float64

	// ScheduleAt queues samples to begin playing at start (output-clock
	// seconds). A start time in the past means "play immediately".
	ScheduleAt(samples []float32, start float64) (PlaybackHandle, error)
}
