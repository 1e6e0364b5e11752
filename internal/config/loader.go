package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MustLoad загружает конфигурацию приложения.
// Порядок источников: .env файл, переменные окружения, YAML файл BR_CONFIG_FILE.
// Переменные окружения имеют приоритет над YAML.
// Возвращает ошибку вместо завершения процесса, main преобразует её в exit code 5.
func MustLoad() (*Config, error) {
	var cfg Config
	var err error

	// .env читается до cleanenv, иначе BR_* из файла не попадут в Config.
	// Уже выставленные переменные окружения godotenv не перезаписывает.
	envFile := os.Getenv("BR_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err = loadEnvFile(envFile); err != nil {
		return nil, err
	}

	if err = cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("не удалось прочитать переменные окружения в Config: %w", err)
	}

	l := getSlog(os.Getenv("BR_LOG_LEVEL"))
	cfg.Logger = l

	if cfg.ConfigFile != "" {
		if cfg.AppConfig, err = loadAppConfig(cfg.ConfigFile); err != nil {
			return nil, err
		}
		l.Debug("Конфигурация приложения загружена", slog.String("path", cfg.ConfigFile))
	}

	if cfg.HubConfig, err = loadHubConfig(l, &cfg); err != nil {
		return nil, err
	}
	if cfg.SmokeConfig, err = loadSmokeConfig(l, &cfg); err != nil {
		return nil, err
	}
	if cfg.EmbeddingConfig, err = loadEmbeddingConfig(l, &cfg); err != nil {
		return nil, err
	}
	if cfg.WatchConfig, err = loadWatchConfig(l, &cfg); err != nil {
		return nil, err
	}
	if cfg.HistoryConfig, err = loadHistoryConfig(l, &cfg); err != nil {
		return nil, err
	}

	// Ошибки загрузки observability конфигураций не фатальны: используются defaults.
	if cfg.LoggingConfig, err = loadLoggingConfig(l, &cfg); err != nil {
		l.Warn("ошибка загрузки конфигурации логирования", slog.String("error", err.Error()))
		cfg.LoggingConfig = getDefaultLoggingConfig()
	}
	if cfg.MetricsConfig, err = loadMetricsConfig(l, &cfg); err != nil {
		l.Warn("ошибка загрузки конфигурации метрик", slog.String("error", err.Error()))
		cfg.MetricsConfig = getDefaultMetricsConfig()
	}
	if cfg.TracingConfig, err = loadTracingConfig(l, &cfg); err != nil {
		l.Warn("ошибка загрузки конфигурации трейсинга", slog.String("error", err.Error()))
		cfg.TracingConfig = getDefaultTracingConfig()
	}
	if cfg.AlertingConfig, err = loadAlertingConfig(l, &cfg); err != nil {
		l.Warn("ошибка загрузки конфигурации алертинга", slog.String("error", err.Error()))
		cfg.AlertingConfig = getDefaultAlertingConfig()
	}

	// Fail-fast валидация: неверная конфигурация observability это ошибка оператора.
	if err = validateMetricsConfig(cfg.MetricsConfig); err != nil {
		return nil, err
	}
	if err = validateTracingConfig(cfg.TracingConfig); err != nil {
		return nil, err
	}
	if err = validateAlertingConfig(cfg.AlertingConfig); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadEnvFile загружает переменные из .env файла. Отсутствующий файл не ошибка.
func loadEnvFile(envFile string) error {
	err := godotenv.Load(envFile)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("не удалось загрузить %s: %w", envFile, err)
}

// loadAppConfig читает YAML файл приложения. Неизвестные ключи считаются ошибкой.
func loadAppConfig(configPath string) (*AppConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", configPath, err)
	}
	return parseAppConfig(data)
}

// parseAppConfig разбирает YAML. Пустой документ даёт пустой AppConfig.
func parseAppConfig(data []byte) (*AppConfig, error) {
	var appConfig AppConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&appConfig); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("ошибка разбора конфигурации приложения: %w", err)
	}
	return &appConfig, nil
}

func getSlog(logLevel string) *slog.Logger {
	programLevel := new(slog.LevelVar)
	switch strings.ToLower(logLevel) {
	case "debug":
		programLevel.Set(slog.LevelDebug)
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "error":
		programLevel.Set(slog.LevelError)
	default:
		programLevel.Set(slog.LevelInfo)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     programLevel,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if s, ok := a.Value.Any().(*slog.Source); ok {
					s.File = path.Base(s.File)
				}
			}
			return a
		},
	}))
}
