package config

import (
	"log/slog"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
)

// LoggingConfig содержит настройки для логирования.
type LoggingConfig struct {
	// Level - уровень логирования (debug, info, warn, error)
	Level string `yaml:"level" env:"BR_LOG_LEVEL" env-default:"info"`

	// Format - формат логов (json, text)
	Format string `yaml:"format" env:"BR_LOG_FORMAT" env-default:"text"`

	// Output - вывод логов (stderr, file)
	Output string `yaml:"output" env:"BR_LOG_OUTPUT" env-default:"stderr"`

	// FilePath - путь к файлу логов (если output=file)
	FilePath string `yaml:"filePath" env:"BR_LOG_FILE_PATH"`

	// MaxSize - максимальный размер файла лога в MB
	MaxSize int `yaml:"maxSize" env:"BR_LOG_MAX_SIZE" env-default:"50"`

	// MaxBackups - максимальное количество backup файлов
	MaxBackups int `yaml:"maxBackups" env:"BR_LOG_MAX_BACKUPS" env-default:"3"`

	// MaxAge - максимальный возраст backup файлов в днях
	MaxAge int `yaml:"maxAge" env:"BR_LOG_MAX_AGE" env-default:"7"`

	// Compress - сжимать ли backup файлы.
	// env-default:"true" перезаписывает yaml false, выключить сжатие можно только через env.
	Compress bool `yaml:"compress" env:"BR_LOG_COMPRESS" env-default:"true"`
}

// loadLoggingConfig загружает конфигурацию логирования. BR_LOG_* переопределяют AppConfig.
func loadLoggingConfig(l *slog.Logger, cfg *Config) (*LoggingConfig, error) {
	var fromApp *LoggingConfig
	if cfg.AppConfig != nil {
		fromApp = &cfg.AppConfig.Logging
	}
	present := fromApp != nil && *fromApp != (LoggingConfig{})
	return loadSection(l, "logging", fromApp, present, getDefaultLoggingConfig), nil
}

// getDefaultLoggingConfig возвращает конфигурацию логирования по умолчанию.
func getDefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:      logging.DefaultLevel,
		Format:     logging.DefaultFormat,
		Output:     logging.DefaultOutput,
		FilePath:   logging.DefaultFilePath,
		MaxSize:    logging.DefaultMaxSize,
		MaxBackups: logging.DefaultMaxBackups,
		MaxAge:     logging.DefaultMaxAge,
		Compress:   logging.DefaultCompress,
	}
}
