// Package transport provides the duplex streaming channel to the remote
// conversational service. The session controller talks to the Transport
// interface; the OpenAI Realtime implementation lives in realtime.go.
package transport

import "context"

// Frame is one outbound block of encoded capture audio.
type Frame struct {
	Payload    []byte // 16-bit signed little-endian PCM
	MediaType  string // e.g. "audio/pcm"
	SampleRate int    // Hz
}

// Usage reports audio token consumption for one completed response.
type Usage struct {
	InputAudioTokens  int
	OutputAudioTokens int
}

// Handlers receive asynchronous transport events. All callbacks are invoked
// from the transport's own goroutines; nil callbacks are skipped.
type Handlers struct {
	// OnOpen fires once the channel is open and configured.
	OnOpen func()

	// OnAudio delivers one inbound audio chunk as its transport-safe text
	// encoding. Decoding (and decode-failure recovery) is the consumer's
	// concern.
	OnAudio func(chunk string)

	// OnTranscript delivers the assistant's response transcript.
	OnTranscript func(text string)

	// OnUserTranscript delivers the transcription of captured user audio.
	OnUserTranscript func(text string)

	// OnUsage fires when a response completes with token accounting.
	OnUsage func(u Usage)

	// OnClose fires when the channel closes without a fatal error.
	OnClose func()

	// OnError fires on a fatal transport failure.
	OnError func(err error)
}

// Transport is a bidirectional streaming channel. Open blocks until the
// channel is established (cancellable via ctx) and configures the remote
// session with the given system instruction; Send is fire-and-forget and
// must not be called before OnOpen; Close is idempotent.
type Transport interface {
	Open(ctx context.Context, instructions string, handlers Handlers) error
	Send(frame Frame) error
	Close() error
}

// Error wraps a fatal transport failure with the operation that caused it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "transport " + e.Op + " failed"
	}

	return "transport " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
