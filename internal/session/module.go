package session

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/config"
)

// Module provides the session controller and its registry. The capture
// source, output sink, transport, and Options are supplied by the caller.
var Module = fx.Module("session",
	fx.Provide(
		NewRegistryFromConfig,
		New,
	),
)

// NewRegistryFromConfig sizes the registry from configuration.
func NewRegistryFromConfig(logger *zap.Logger, cfg *config.Config) (*Registry, error) {
	return NewRegistry(logger, cfg.Session.RecentSessionCacheSize)
}
