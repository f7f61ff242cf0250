// Package infrastructure provides core infrastructure components and their Fx modules.
package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/voiceloop-ai/voiceloop/internal/config"
)

// LoggerModule provides logging infrastructure.
var LoggerModule = fx.Module("logger",
	fx.Provide(NewZapLogger),
)

// NewZapLoggerParams holds dependencies for NewZapLogger.
type NewZapLoggerParams struct {
	fx.In
	Cfg *config.Config
	LC  fx.Lifecycle
}

// NewZapLogger creates and configures a new Zap logger. Log output goes to
// stderr: stdout carries the playback PCM stream.
func NewZapLogger(params NewZapLoggerParams) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if params.Cfg.LogLevel != "" {
		var err error
		level, err = zapcore.ParseLevel(params.Cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", params.Cfg.LogLevel, err)
		}
	}

	zapConfig := zap.NewProductionConfig()
	if level == zapcore.DebugLevel {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.OutputPaths = []string{"stderr"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	params.LC.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})

	return logger, nil
}
