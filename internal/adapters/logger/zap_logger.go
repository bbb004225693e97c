package logger

import (
	"go.uber.org/zap"

	"dev.rubentxu.ml-cluster/internal/core/ports"
)

// ZapLogger implementa la interfaz Logger usando zap
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// NewZapLogger crea una nueva instancia de ZapLogger
func NewZapLogger(development bool) (*ZapLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: logger.Sugar()}, nil
}

// NewNopLogger crea un logger que descarta todo; útil en tests.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop().Sugar()}
}

// Debug implementa Logger.Debug
func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.logger.Debugw(msg, args...)
}

// Info implementa Logger.Info
func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.logger.Infow(msg, args...)
}

// Warn implementa Logger.Warn
func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.logger.Warnw(msg, args...)
}

// Error implementa Logger.Error
func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.logger.Errorw(msg, args...)
}

// With implementa Logger.With
func (l *ZapLogger) With(args ...interface{}) ports.Logger {
	return &ZapLogger{logger: l.logger.With(args...)}
}

// Sync vuelca los buffers pendientes de zap.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
