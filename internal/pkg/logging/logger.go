// Package logging предоставляет интерфейс и реализации структурированного логирования.
package logging

import "log/slog"

// Logger — структурированный логгер с key-value парами:
//
//	logger.Info("Шаг выполнен", "step", "health", "status_code", 200)
//
// ВАЖНО: Logger пишет только в stderr или файл, никогда в stdout.
// stdout занят OutputWriter'ом.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With возвращает Logger с добавленными атрибутами.
	With(args ...any) Logger
}

// SlogAdapter реализует Logger поверх log/slog.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter оборачивает slog.Logger. nil заменяется на slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// With возвращает новый Logger с добавленными атрибутами.
func (s *SlogAdapter) With(args ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(args...)}
}

// NopLogger игнорирует все сообщения. Используется в тестах.
type NopLogger struct{}

// NewNopLogger создаёт NopLogger.
func NewNopLogger() Logger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(_ string, _ ...any) {}
func (n *NopLogger) Info(_ string, _ ...any)  {}
func (n *NopLogger) Warn(_ string, _ ...any)  {}
func (n *NopLogger) Error(_ string, _ ...any) {}

// With возвращает тот же NopLogger.
func (n *NopLogger) With(_ ...any) Logger { return n }
