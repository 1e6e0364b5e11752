package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Kargones/aihub-smoke/internal/constants"
)

// redactedValue подставляется вместо значений чувствительных атрибутов.
const redactedValue = "***"

// sensitiveKeys — атрибуты, значения которых никогда не попадают в лог.
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
	"api_key":       {},
}

// NewLogger создаёт Logger по конфигурации.
//
//   - Output "stderr" или "": логи в os.Stderr;
//   - Output "file": логи в файл с ротацией через lumberjack.
func NewLogger(config Config) Logger {
	var w io.Writer

	switch config.Output {
	case OutputFile:
		w = newLumberjackWriter(config)
	case OutputStderr, "":
		w = os.Stderr
	default:
		_, _ = fmt.Fprintf(os.Stderr, "WARNING: неизвестный logging output %q, используется stderr\n", config.Output) //nolint:errcheck // bootstrap stderr
		w = os.Stderr
	}

	return NewLoggerWithWriter(config, w)
}

func newLumberjackWriter(config Config) io.Writer {
	if config.FilePath == "" {
		_, _ = os.Stderr.WriteString("WARNING: logging output=file, но filePath пуст, используется stderr\n") //nolint:errcheck // bootstrap stderr
		return os.Stderr
	}

	dir := filepath.Dir(config.FilePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermLogs); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "WARNING: не удалось создать директорию логов %q: %v, используется stderr\n", dir, err) //nolint:errcheck // bootstrap stderr
			return os.Stderr
		}
	}

	return &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
}

// NewLoggerWithWriter создаёт Logger, пишущий в w. Используется в тестах.
func NewLoggerWithWriter(config Config, w io.Writer) Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(config.Level),
		ReplaceAttr: redactAttr,
	}

	var handler slog.Handler
	if config.Format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return NewSlogAdapter(slog.New(handler))
}

// redactAttr маскирует пароли, токены и ключи, переданные в лог по ошибке.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
