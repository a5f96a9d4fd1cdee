package logger

import corelogger "github.com/corner-25/test-umc-sub000/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}
func (NopLogger) Infow(string, map[string]any) {}
func (NopLogger) Warnw(string, map[string]any) {}

// New returns a Logger tagged with the given component. The output format is
// chosen from the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}
