// Package config загружает конфигурацию aihub-smoke из переменных окружения,
// .env файла и необязательного YAML файла приложения.
package config

import (
	"log/slog"
	"time"
)

// Config — полная конфигурация одного запуска.
type Config struct {
	// Command — имя команды (BR_COMMAND). Пусто — help.
	Command string `env:"BR_COMMAND"`

	// OutputFormat — "text" или "json".
	OutputFormat string `env:"BR_OUTPUT_FORMAT" env-default:"text"`

	// ConfigFile — путь к YAML конфигурации приложения. Пусто — не читается.
	ConfigFile string `env:"BR_CONFIG_FILE"`

	// EnvFile — путь к .env файлу. Отсутствующий файл игнорируется.
	EnvFile string `env:"BR_ENV_FILE" env-default:".env"`

	// Logger — bootstrap логгер загрузчика конфигурации.
	Logger *slog.Logger

	// AppConfig — содержимое BR_CONFIG_FILE, nil если файл не задан.
	AppConfig *AppConfig

	HubConfig       *HubConfig
	SmokeConfig     *SmokeConfig
	EmbeddingConfig *EmbeddingConfig
	WatchConfig     *WatchConfig
	HistoryConfig   *HistoryConfig
	LoggingConfig   *LoggingConfig
	MetricsConfig   *MetricsConfig
	TracingConfig   *TracingConfig
	AlertingConfig  *AlertingConfig
}

// AppConfig — структура YAML файла приложения.
type AppConfig struct {
	Hub       HubConfig       `yaml:"hub"`
	Smoke     SmokeConfig     `yaml:"smoke"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Watch     WatchConfig     `yaml:"watch"`
	History   HistoryConfig   `yaml:"history"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Alerting  AlertingConfig  `yaml:"alerting"`
}

// HubConfig содержит адрес AI Hub и таймауты HTTP клиента.
type HubConfig struct {
	// URL — базовый адрес AI Hub.
	URL string `yaml:"url" env:"BR_HUB_URL" env-default:"http://localhost:3000"`

	// HealthTimeout — таймаут проверки /api/health.
	HealthTimeout time.Duration `yaml:"healthTimeout" env:"BR_HUB_HEALTH_TIMEOUT" env-default:"5s"`

	// RequestTimeout — таймаут остальных запросов.
	RequestTimeout time.Duration `yaml:"requestTimeout" env:"BR_HUB_TIMEOUT" env-default:"30s"`
}

// SmokeConfig управляет выполнением сценария.
type SmokeConfig struct {
	// Scenario — имя встроенного сценария. Пусто — сценарий команды.
	Scenario string `yaml:"scenario" env:"BR_SCENARIO"`

	// ScenarioFile — путь к YAML сценарию, заменяет встроенный.
	ScenarioFile string `yaml:"scenarioFile" env:"BR_SCENARIO_FILE"`

	// Strict — падение любого шага даёт exit code 8.
	// bool с env-default:"true" перезапишет yaml false, поэтому в YAML
	// используется строка, см. loadSmokeConfig.
	Strict bool `yaml:"-" env:"BR_SMOKE_STRICT" env-default:"true"`

	// StrictMode — значение strict из YAML ("true"/"false").
	StrictMode string `yaml:"strict"`

	// Cleanup — удалить созданные ресурсы в конце прогона.
	Cleanup bool `yaml:"cleanup" env:"BR_SMOKE_CLEANUP" env-default:"false"`

	// FreshUser — добавить uuid суффикс к email сценария.
	FreshUser bool `yaml:"freshUser" env:"BR_SMOKE_FRESH_USER" env-default:"false"`

	// NegativeAuth — включить негативные проверки токена независимо от сценария.
	NegativeAuth bool `yaml:"negativeAuth" env:"BR_SMOKE_NEGATIVE_AUTH" env-default:"false"`

	// Email и Password переопределяют учётные данные сценария.
	Email    string `yaml:"email" env:"BR_HUB_EMAIL"`
	Password string `yaml:"password" env:"BR_HUB_PASSWORD"`
}

// EmbeddingConfig выбирает источник вектора для embedding шага.
type EmbeddingConfig struct {
	// Source — "constant" или "openai".
	Source string `yaml:"source" env:"BR_EMBEDDING_SOURCE" env-default:"constant"`

	// OpenAIAPIKey — ключ OpenAI, обязателен при source=openai.
	OpenAIAPIKey string `yaml:"openaiApiKey" env:"BR_OPENAI_API_KEY"`

	// OpenAIBaseURL — альтернативный адрес OpenAI-совместимого API.
	OpenAIBaseURL string `yaml:"openaiBaseUrl" env:"BR_OPENAI_BASE_URL"`

	// Model — модель эмбеддингов. Пусто — модель vector store из сценария.
	Model string `yaml:"model" env:"BR_EMBEDDING_MODEL"`
}

// WatchConfig — настройки команды hub-watch.
type WatchConfig struct {
	// Schedule — cron выражение или дескриптор (@every 5m).
	Schedule string `yaml:"schedule" env:"BR_WATCH_SCHEDULE" env-default:"@every 5m"`

	// MaxRuns — остановиться после N прогонов. 0 — работать до сигнала.
	MaxRuns int `yaml:"maxRuns" env:"BR_WATCH_MAX_RUNS" env-default:"0"`

	// RunOnStart — выполнить первый прогон сразу, не дожидаясь расписания.
	RunOnStart bool `yaml:"runOnStart" env:"BR_WATCH_RUN_ON_START" env-default:"false"`
}

// HistoryConfig — хранилище результатов прогонов для hub-watch.
type HistoryConfig struct {
	// RedisAddr — адрес Redis. Пусто — хранилище в памяти.
	RedisAddr     string        `yaml:"redisAddr" env:"BR_REDIS_ADDR"`
	RedisPassword string        `yaml:"redisPassword" env:"BR_REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redisDb" env:"BR_REDIS_DB" env-default:"0"`
	KeyPrefix     string        `yaml:"keyPrefix" env:"BR_HISTORY_KEY_PREFIX" env-default:"aihub-smoke"`
	TTL           time.Duration `yaml:"ttl" env:"BR_HISTORY_TTL" env-default:"168h"`
}
