// Package app provides the main application structure and lifecycle management.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/voiceloop-ai/voiceloop/internal/session"
)

// Application wraps the Fx app that assembles one voice session.
type Application struct {
	app *fx.App
}

// New creates a new Application from the provided modules and options.
func New(modules ...fx.Option) *Application {
	options := append(modules, fx.Invoke(registerSessionLifecycle))

	return &Application{app: fx.New(options...)}
}

// Run starts the application and blocks until it is stopped.
func (a *Application) Run() {
	a.app.Run()
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}

// registerSessionLifecycle ties the session controller to the application
// lifecycle: Open on start, Close on stop. A session that ends on its own
// simply leaves the controller terminal; Close on shutdown is then a no-op.
func registerSessionLifecycle(lc fx.Lifecycle, ctrl *session.Controller, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting voice session")

			// Open acquires resources against the application's run
			// context, not the start hook's deadline.
			if err := ctrl.Open(context.Background()); err != nil {
				logger.Error("Failed to open session", zap.Error(err))
				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping voice session")
			ctrl.Close()
			return nil
		},
	})
}
