// Package openai provides OpenAI-related dependencies as an Fx module: the
// realtime transport and the audio token pricing service.
package openai

import (
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/config"
	"github.com/voiceloop-ai/voiceloop/internal/transport"
	pkgopenai "github.com/voiceloop-ai/voiceloop/pkg/openai"
)

// Module provides OpenAI-related dependencies.
var Module = fx.Module("openai",
	fx.Provide(
		NewRealtimeTransport,
		NewPricingService,
	),
)

// NewRealtimeTransport creates the realtime channel from configuration. The
// channel stays unopened until the session controller opens it.
func NewRealtimeTransport(cfg *config.Config, logger *zap.Logger) (transport.Transport, error) {
	if cfg.OpenAI.APIKey == "" {
		logger.Error("OpenAI API key is not configured in config.yaml")

		return nil, errors.New("OpenAI API key (config.OpenAI.APIKey) is not configured")
	}

	return transport.NewRealtime(logger, transport.RealtimeConfig{
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.Model,
		Voice:  cfg.OpenAI.Voice,
	}), nil
}

// NewPricingService creates the audio token pricing service backed by the
// built-in pricing table.
func NewPricingService(logger *zap.Logger) pkgopenai.PricingService {
	service := pkgopenai.NewPricingService()
	logger.Info("OpenAI pricing service created")

	return service
}
