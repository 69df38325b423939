package logging

import "go.uber.org/zap"

// Logger defines the structured logging interface the resolver and pipeline
// report diagnostics through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// NoOpLogger is a logger that does nothing (used when no logger is provided).
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Field) {}
func (n *NoOpLogger) Info(msg string, fields ...Field)  {}
func (n *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (n *NoOpLogger) Error(msg string, fields ...Field) {}

// With returns a logger that prepends fields to every entry. The parent is
// not modified.
func With(l Logger, fields ...Field) Logger {
	if l == nil {
		return &NoOpLogger{}
	}
	if len(fields) == 0 {
		return l
	}
	if z, ok := l.(*ZapLogger); ok {
		return &ZapLogger{logger: z.logger.With(toZap(fields)...)}
	}
	if w, ok := l.(*scoped); ok {
		return &scoped{parent: w.parent, fields: append(append([]Field{}, w.fields...), fields...)}
	}
	return &scoped{parent: l, fields: fields}
}

type scoped struct {
	parent Logger
	fields []Field
}

func (s *scoped) merge(fields []Field) []Field {
	return append(append(make([]Field, 0, len(s.fields)+len(fields)), s.fields...), fields...)
}

func (s *scoped) Debug(msg string, fields ...Field) { s.parent.Debug(msg, s.merge(fields)...) }
func (s *scoped) Info(msg string, fields ...Field)  { s.parent.Info(msg, s.merge(fields)...) }
func (s *scoped) Warn(msg string, fields ...Field)  { s.parent.Warn(msg, s.merge(fields)...) }
func (s *scoped) Error(msg string, fields ...Field) { s.parent.Error(msg, s.merge(fields)...) }

// ZapLogger adapts a zap logger to Logger
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps a zap logger. A nil logger yields a no-op zap logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// Zap returns the underlying zap logger
func (z *ZapLogger) Zap() *zap.Logger { return z.logger }

func (z *ZapLogger) Debug(msg string, fields ...Field) { z.logger.Debug(msg, toZap(fields)...) }
func (z *ZapLogger) Info(msg string, fields ...Field)  { z.logger.Info(msg, toZap(fields)...) }
func (z *ZapLogger) Warn(msg string, fields ...Field)  { z.logger.Warn(msg, toZap(fields)...) }
func (z *ZapLogger) Error(msg string, fields ...Field) { z.logger.Error(msg, toZap(fields)...) }

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok {
			out[i] = zap.NamedError(f.Key, err)
			continue
		}
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}
