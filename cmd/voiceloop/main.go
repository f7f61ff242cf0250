// Package main runs one realtime voice session from the command line:
// raw PCM16 capture audio on stdin, scheduled playback audio on stdout.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/app"
	"github.com/voiceloop-ai/voiceloop/internal/audioio"
	"github.com/voiceloop-ai/voiceloop/internal/config"
	"github.com/voiceloop-ai/voiceloop/internal/infrastructure"
	"github.com/voiceloop-ai/voiceloop/internal/openai"
	"github.com/voiceloop-ai/voiceloop/internal/session"
	pkginfra "github.com/voiceloop-ai/voiceloop/pkg/infrastructure"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	noteContext := flag.String("context", "", "textual context for the session system prompt")
	flag.Parse()

	application := app.New(
		// Core modules.
		config.Module,
		infrastructure.LoggerModule,
		openai.Module,
		session.Module,

		// Collaborators: stdin capture and stdout playback.
		fx.Provide(
			newCaptureSource,
			newOutputSink,
		),

		fx.Supply(*configPath),
		fx.Supply(session.Options{Context: *noteContext}),

		// Route Fx's own logs through zap.
		fx.WithLogger(pkginfra.NewFxLoggerAdapter),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go application.Run()

	sig := <-sigCh
	fmt.Fprintf(os.Stderr, "received signal: %s, shutting down\n", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := application.Stop(shutdownCtx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
		os.Exit(1)
	}
}

func newCaptureSource(logger *zap.Logger, cfg *config.Config) audioio.CaptureSource {
	return audioio.NewReaderSource(logger, os.Stdin, cfg.Audio.CaptureSampleRate, cfg.Audio.CaptureBlockSize)
}

func newOutputSink(logger *zap.Logger, cfg *config.Config) audioio.OutputSink {
	return audioio.NewWriterSink(logger, os.Stdout, cfg.Audio.PlaybackSampleRate)
}
