package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/urlutil"
	"github.com/ilyakaznacheev/cleanenv"
)

// Источники вектора эмбеддинга.
const (
	EmbeddingSourceConstant = "constant"
	EmbeddingSourceOpenAI   = "openai"
)

// Ошибки валидации доменной конфигурации.
var (
	ErrHubURLInvalid        = errors.New("hub: url должен быть http(s) адресом с хостом")
	ErrHubTimeoutInvalid    = errors.New("hub: таймауты должны быть положительными")
	ErrStrictModeInvalid    = errors.New("smoke: strict должен быть true или false")
	ErrEmbeddingSource      = errors.New("embedding: source должен быть constant или openai")
	ErrOpenAIKeyRequired    = errors.New("embedding: BR_OPENAI_API_KEY обязателен при source=openai")
	ErrWatchScheduleMissing = errors.New("watch: schedule не задан")
	ErrWatchMaxRunsInvalid  = errors.New("watch: maxRuns не может быть отрицательным")
	ErrHistoryDBInvalid     = errors.New("history: номер БД Redis не может быть отрицательным")
)

// loadHubConfig загружает адрес и таймауты AI Hub.
// Переменные окружения BR_HUB_* переопределяют значения из AppConfig.
func loadHubConfig(l *slog.Logger, cfg *Config) (*HubConfig, error) {
	hubConfig := getDefaultHubConfig()
	if cfg.AppConfig != nil && (cfg.AppConfig.Hub != HubConfig{}) {
		hubConfig = &cfg.AppConfig.Hub
	}
	if err := cleanenv.ReadEnv(hubConfig); err != nil {
		return nil, fmt.Errorf("ошибка чтения hub конфигурации из окружения: %w", err)
	}
	if err := validateHubConfig(hubConfig); err != nil {
		return nil, err
	}
	l.Debug("Hub конфигурация загружена",
		slog.String("url", urlutil.MaskURL(hubConfig.URL)),
		slog.Duration("health_timeout", hubConfig.HealthTimeout),
		slog.Duration("request_timeout", hubConfig.RequestTimeout),
	)
	return hubConfig, nil
}

func getDefaultHubConfig() *HubConfig {
	return &HubConfig{
		URL:            "http://localhost:3000",
		HealthTimeout:  5 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

func validateHubConfig(hc *HubConfig) error {
	u, err := url.Parse(hc.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrHubURLInvalid, urlutil.MaskURL(hc.URL))
	}
	if hc.HealthTimeout <= 0 || hc.RequestTimeout <= 0 {
		return ErrHubTimeoutInvalid
	}
	return nil
}

// loadSmokeConfig загружает параметры выполнения сценария.
func loadSmokeConfig(l *slog.Logger, cfg *Config) (*SmokeConfig, error) {
	smokeConfig := &SmokeConfig{}
	if cfg.AppConfig != nil {
		*smokeConfig = cfg.AppConfig.Smoke
	}
	if err := cleanenv.ReadEnv(smokeConfig); err != nil {
		return nil, fmt.Errorf("ошибка чтения smoke конфигурации из окружения: %w", err)
	}
	// ReadEnv выставил Strict=true по умолчанию, YAML значение применяется
	// только если BR_SMOKE_STRICT не задан явно.
	if _, ok := os.LookupEnv("BR_SMOKE_STRICT"); !ok && smokeConfig.StrictMode != "" {
		strict, err := strconv.ParseBool(smokeConfig.StrictMode)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrStrictModeInvalid, smokeConfig.StrictMode)
		}
		smokeConfig.Strict = strict
	}
	l.Debug("Smoke конфигурация загружена",
		slog.String("scenario", smokeConfig.Scenario),
		slog.String("scenario_file", smokeConfig.ScenarioFile),
		slog.Bool("strict", smokeConfig.Strict),
		slog.Bool("cleanup", smokeConfig.Cleanup),
		slog.Bool("fresh_user", smokeConfig.FreshUser),
	)
	return smokeConfig, nil
}

// loadEmbeddingConfig загружает источник эмбеддингов.
func loadEmbeddingConfig(l *slog.Logger, cfg *Config) (*EmbeddingConfig, error) {
	embeddingConfig := &EmbeddingConfig{}
	if cfg.AppConfig != nil {
		*embeddingConfig = cfg.AppConfig.Embedding
	}
	if err := cleanenv.ReadEnv(embeddingConfig); err != nil {
		return nil, fmt.Errorf("ошибка чтения embedding конфигурации из окружения: %w", err)
	}
	switch embeddingConfig.Source {
	case EmbeddingSourceConstant:
	case EmbeddingSourceOpenAI:
		if embeddingConfig.OpenAIAPIKey == "" {
			return nil, ErrOpenAIKeyRequired
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrEmbeddingSource, embeddingConfig.Source)
	}
	l.Debug("Embedding конфигурация загружена",
		slog.String("source", embeddingConfig.Source),
		slog.String("model", embeddingConfig.Model),
	)
	return embeddingConfig, nil
}

// loadWatchConfig загружает расписание hub-watch.
// Синтаксис cron выражения проверяет сам обработчик команды.
func loadWatchConfig(l *slog.Logger, cfg *Config) (*WatchConfig, error) {
	watchConfig := &WatchConfig{}
	if cfg.AppConfig != nil {
		*watchConfig = cfg.AppConfig.Watch
	}
	if err := cleanenv.ReadEnv(watchConfig); err != nil {
		return nil, fmt.Errorf("ошибка чтения watch конфигурации из окружения: %w", err)
	}
	if watchConfig.Schedule == "" {
		return nil, ErrWatchScheduleMissing
	}
	if watchConfig.MaxRuns < 0 {
		return nil, ErrWatchMaxRunsInvalid
	}
	l.Debug("Watch конфигурация загружена",
		slog.String("schedule", watchConfig.Schedule),
		slog.Int("max_runs", watchConfig.MaxRuns),
	)
	return watchConfig, nil
}

// loadHistoryConfig загружает настройки хранилища истории прогонов.
func loadHistoryConfig(l *slog.Logger, cfg *Config) (*HistoryConfig, error) {
	historyConfig := &HistoryConfig{}
	if cfg.AppConfig != nil {
		*historyConfig = cfg.AppConfig.History
	}
	if err := cleanenv.ReadEnv(historyConfig); err != nil {
		return nil, fmt.Errorf("ошибка чтения history конфигурации из окружения: %w", err)
	}
	if historyConfig.RedisDB < 0 {
		return nil, ErrHistoryDBInvalid
	}
	backend := "memory"
	if historyConfig.RedisAddr != "" {
		backend = "redis"
	}
	l.Debug("History конфигурация загружена", slog.String("backend", backend))
	return historyConfig, nil
}
