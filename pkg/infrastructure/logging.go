// Package infrastructure provides reusable infrastructure components for Go applications.
package infrastructure

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter routes Fx's internal lifecycle events through a zap
// logger so application and framework logs share one stream.
type FxLoggerAdapter struct {
	logger *zap.SugaredLogger
}

// NewFxLoggerAdapter creates an fxevent.Logger backed by the given zap logger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLoggerAdapter{logger: logger.Sugar()}
}

// LogEvent implements fxevent.Logger. Routine wiring events log at Debug;
// anything carrying an error logs at Error.
func (a *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		a.hookResult("OnStart", e.FunctionName, e.Err)
	case *fxevent.OnStopExecuted:
		a.hookResult("OnStop", e.FunctionName, e.Err)
	case *fxevent.Provided:
		if e.Err != nil {
			a.logger.Errorf("provide failed: %v", e.Err)
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			a.logger.Errorf("invoke failed: %s: %v", e.FunctionName, e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			a.logger.Errorf("start failed: %v", e.Err)
		} else {
			a.logger.Info("application started")
		}
	case *fxevent.Stopping:
		a.logger.Infof("stopping: %s", e.Signal)
	case *fxevent.Stopped:
		if e.Err != nil {
			a.logger.Errorf("stop failed: %v", e.Err)
		} else {
			a.logger.Info("application stopped")
		}
	case *fxevent.RollingBack:
		a.logger.Errorf("rolling back: %v", e.StartErr)
	default:
		a.logger.Debugf("fx: %T", event)
	}
}

func (a *FxLoggerAdapter) hookResult(hook, function string, err error) {
	if err != nil {
		a.logger.Errorf("%s failed: %s: %v", hook, function, err)
	} else {
		a.logger.Debugf("%s executed: %s", hook, function)
	}
}
