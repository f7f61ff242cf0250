package transport

import (
	"context"
	"errors"
	"sync"

	openairt "github.com/WqyJh/go-openai-realtime"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// RealtimeConfig parameterizes one realtime channel.
type RealtimeConfig struct {
	APIKey string
	Model  string
	Voice  string
}

// Realtime streams duplex audio over the OpenAI Realtime API. Outbound
// frames become input-audio-buffer appends; server events are demultiplexed
// into the Handlers callbacks. Turn detection is left to the server, so the
// capture side streams continuously without explicit commits.
type Realtime struct {
	logger *zap.Logger
	cfg    RealtimeConfig
	client *openairt.Client

	mu       sync.Mutex
	conn     *openairt.Conn
	handlers Handlers
	closing  bool
}

// NewRealtime creates an unopened realtime transport.
func NewRealtime(logger *zap.Logger, cfg RealtimeConfig) *Realtime {
	return &Realtime{
		logger: logger,
		cfg:    cfg,
		client: openairt.NewClient(cfg.APIKey),
	}
}

func (t *Realtime) Open(ctx context.Context, instructions string, handlers Handlers) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return &Error{Op: "open", Err: errors.New("already open")}
	}
	t.handlers = handlers
	t.mu.Unlock()

	t.logger.Info("Opening realtime channel",
		zap.String("model", t.cfg.Model),
		zap.String("voice", t.cfg.Voice))

	conn, err := t.client.Connect(ctx, openairt.WithModel(t.cfg.Model))
	if err != nil {
		return &Error{Op: "open", Err: err}
	}

	t.mu.Lock()
	t.conn = conn
	t.closing = false
	t.mu.Unlock()

	if err := t.configureSession(ctx, conn, instructions); err != nil {
		_ = t.Close()
		return err
	}

	go t.readLoop(ctx, conn)

	if handlers.OnOpen != nil {
		handlers.OnOpen()
	}

	return nil
}

func (t *Realtime) configureSession(ctx context.Context, conn *openairt.Conn, instructions string) error {
	update := &openairt.SessionUpdateEvent{
		Session: openairt.ClientSession{
			Modalities:        []openairt.Modality{openairt.ModalityAudio, openairt.ModalityText},
			Voice:             mapVoice(t.cfg.Voice),
			Instructions:      instructions,
			InputAudioFormat:  openairt.AudioFormatPcm16,
			OutputAudioFormat: openairt.AudioFormatPcm16,
			InputAudioTranscription: &openairt.InputAudioTranscription{
				Model: openai.Whisper1,
			},
		},
	}

	if err := conn.SendMessage(ctx, update); err != nil {
		return &Error{Op: "configure", Err: err}
	}

	return nil
}

// Send appends one capture frame to the remote input buffer. Callers own
// queueing; Send itself issues a single non-blocking websocket write.
func (t *Realtime) Send(frame Frame) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return &Error{Op: "send", Err: errors.New("channel is not open")}
	}

	event := &openairt.InputAudioBufferAppendEvent{
		Audio: audio.EncodeBase64(frame.Payload),
	}

	if err := conn.SendMessage(context.Background(), event); err != nil {
		return &Error{Op: "send", Err: err}
	}

	return nil
}

func (t *Realtime) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.closing = true
	t.mu.Unlock()

	if conn == nil {
		return nil
	}

	t.logger.Info("Closing realtime channel")

	if err := conn.Close(); err != nil {
		t.logger.Warn("Error closing realtime channel", zap.Error(err))
	}

	return nil
}

func (t *Realtime) readLoop(ctx context.Context, conn *openairt.Conn) {
	for {
		event, err := conn.ReadMessage(ctx)
		if err != nil {
			t.mu.Lock()
			closing := t.closing
			handlers := t.handlers
			t.mu.Unlock()

			if closing || ctx.Err() != nil {
				if handlers.OnClose != nil {
					handlers.OnClose()
				}
				return
			}

			if handlers.OnError != nil {
				handlers.OnError(&Error{Op: "receive", Err: err})
			}
			return
		}

		t.route(event)
	}
}

func (t *Realtime) route(event openairt.ServerEvent) {
	t.mu.Lock()
	handlers := t.handlers
	t.mu.Unlock()

	switch event.ServerEventType() {
	case openairt.ServerEventTypeResponseAudioDelta:
		delta := event.(openairt.ResponseAudioDeltaEvent)
		if handlers.OnAudio != nil && delta.Delta != "" {
			handlers.OnAudio(delta.Delta)
		}

	case openairt.ServerEventTypeResponseAudioTranscriptDone:
		transcript := event.(openairt.ResponseAudioTranscriptDoneEvent)
		if handlers.OnTranscript != nil {
			handlers.OnTranscript(transcript.Transcript)
		}

	case openairt.ServerEventTypeConversationItemInputAudioTranscriptionCompleted:
		transcript := event.(openairt.ConversationItemInputAudioTranscriptionCompletedEvent)
		if handlers.OnUserTranscript != nil {
			handlers.OnUserTranscript(transcript.Transcript)
		}

	case openairt.ServerEventTypeConversationItemInputAudioTranscriptionFailed:
		failed := event.(openairt.ConversationItemInputAudioTranscriptionFailedEvent)
		t.logger.Warn("User audio transcription failed",
			zap.String("item_id", failed.ItemID),
			zap.String("error", failed.Error.Message))

	case openairt.ServerEventTypeResponseDone:
		done := event.(openairt.ResponseDoneEvent)
		if handlers.OnUsage != nil && done.Response.Usage != nil {
			handlers.OnUsage(Usage{
				InputAudioTokens:  done.Response.Usage.InputTokenDetails.AudioTokens,
				OutputAudioTokens: done.Response.Usage.OutputTokenDetails.AudioTokens,
			})
		}

	case openairt.ServerEventTypeError:
		errorEvent := event.(openairt.ErrorEvent)
		if handlers.OnError != nil {
			handlers.OnError(&Error{Op: "session", Err: errors.New(errorEvent.Error.Message)})
		}
	}
}

func mapVoice(voice string) openairt.Voice {
	switch voice {
	case "alloy":
		return openairt.VoiceAlloy
	case "echo":
		return openairt.VoiceEcho
	case "shimmer":
		return openairt.VoiceShimmer
	default:
		return openairt.VoiceShimmer
	}
}
