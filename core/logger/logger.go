package logger

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// Infow logs a message with structured fields, e.g. batch statistics.
	Infow(msg string, fields map[string]any)
	// Warnw logs a warning with structured fields.
	Warnw(msg string, fields map[string]any)
}
