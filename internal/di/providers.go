package di

import (
	"context"
	"log/slog"
	"os"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/alerting"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/metrics"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/pkg/tracing"
	"github.com/Kargones/aihub-smoke/internal/smoke"
	"github.com/Kargones/aihub-smoke/internal/smoke/history"
)

// ProvideLogger создаёт Logger на основе LoggingConfig из Config.
// Использует logging.NewLogger() для создания SlogAdapter.
//
// Провайдер извлекает настройки из Config.LoggingConfig:
//   - Level: уровень логирования (debug, info, warn, error)
//   - Format: формат вывода (json, text)
//   - Output: куда выводить логи (stderr, file)
//   - FilePath, MaxSize, MaxBackups, MaxAge, Compress: параметры ротации файлов
//
// Если LoggingConfig == nil или поля пусты, используются значения по умолчанию:
//   - Level: "info"
//   - Format: "text"
//   - Output: "stderr"
func ProvideLogger(cfg *config.Config) logging.Logger {
	logCfg := logging.DefaultConfig()

	if cfg != nil && cfg.LoggingConfig != nil {
		if cfg.LoggingConfig.Level != "" {
			logCfg.Level = cfg.LoggingConfig.Level
		}
		if cfg.LoggingConfig.Format != "" {
			logCfg.Format = cfg.LoggingConfig.Format
		}
		if cfg.LoggingConfig.Output != "" {
			logCfg.Output = cfg.LoggingConfig.Output
		}
		if cfg.LoggingConfig.FilePath != "" {
			logCfg.FilePath = cfg.LoggingConfig.FilePath
		}
		// BR_LOG_MAX_SIZE=0 игнорируется, остаётся значение по умолчанию.
		if cfg.LoggingConfig.MaxSize > 0 {
			logCfg.MaxSize = cfg.LoggingConfig.MaxSize
		}
		if cfg.LoggingConfig.MaxBackups > 0 {
			logCfg.MaxBackups = cfg.LoggingConfig.MaxBackups
		}
		if cfg.LoggingConfig.MaxAge > 0 {
			logCfg.MaxAge = cfg.LoggingConfig.MaxAge
		}
		// false может быть задано явно, поэтому Compress переносится всегда.
		logCfg.Compress = cfg.LoggingConfig.Compress
	}

	return logging.NewLogger(logCfg)
}

// ProvideOutputWriter создаёт OutputWriter на основе BR_OUTPUT_FORMAT.
// Использует output.NewWriter() для создания JSONWriter или TextWriter.
//
// Провайдер читает переменную окружения BR_OUTPUT_FORMAT:
//   - "json": возвращает JSONWriter
//   - "text" или пустая строка: возвращает TextWriter (default)
//
// Не зависит от Config — формат вывода определяется переменной окружения
// для гибкости переключения формата без перезагрузки конфигурации.
func ProvideOutputWriter() output.Writer {
	format := os.Getenv("BR_OUTPUT_FORMAT")
	if format == "" {
		format = output.FormatText
	}
	return output.NewWriter(format)
}

// ProvideTraceID генерирует уникальный trace_id для корреляции логов.
// Использует tracing.GenerateTraceID() для криптографически безопасной генерации.
//
// Формат trace_id: 32-символьный hex string (16 байт).
// Пример: "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
//
// TraceID генерируется один раз при инициализации App
// и используется для корреляции всех логов в рамках одного запуска команды.
func ProvideTraceID() string {
	return tracing.GenerateTraceID()
}

// ProvideHubClient создаёт HTTP клиент AI Hub на основе HubConfig.
// Некорректный URL — ошибка конфигурации (exit code 5).
func ProvideHubClient(cfg *config.Config, logger logging.Logger) (hub.Client, error) {
	hubCfg := &config.HubConfig{URL: constants.DefaultHubURL}
	if cfg != nil && cfg.HubConfig != nil {
		hubCfg = cfg.HubConfig
	}

	client, err := hub.NewClient(hub.Options{
		BaseURL:        hubCfg.URL,
		HealthTimeout:  hubCfg.HealthTimeout,
		RequestTimeout: hubCfg.RequestTimeout,
		Logger:         logger,
	})
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrConfigValidate, "некорректный адрес AI Hub", err)
	}
	return client, nil
}

// ProvideEmbedder выбирает источник вектора для шага add_embedding.
//   - "openai": OpenAIEmbedder, ключ проверен при загрузке конфигурации
//   - иначе: ConstantEmbedder (вектор из 0.1)
func ProvideEmbedder(cfg *config.Config) smoke.Embedder {
	if cfg == nil || cfg.EmbeddingConfig == nil || cfg.EmbeddingConfig.Source != config.EmbeddingSourceOpenAI {
		return smoke.NewConstantEmbedder()
	}
	ec := cfg.EmbeddingConfig
	return smoke.NewOpenAIEmbedder(ec.OpenAIAPIKey, ec.OpenAIBaseURL, ec.Model)
}

// ProvideHistoryStore создаёт хранилище исходов прогонов для hub-watch.
// Без BR_REDIS_ADDR история живёт в памяти процесса и теряется при рестарте.
// Соединение с Redis устанавливается лениво, при первом обращении.
func ProvideHistoryStore(cfg *config.Config, logger logging.Logger) history.Store {
	if cfg == nil || cfg.HistoryConfig == nil || cfg.HistoryConfig.RedisAddr == "" {
		return history.NewMemoryStore()
	}
	hc := cfg.HistoryConfig
	logger.Debug("история прогонов хранится в Redis",
		slog.String("addr", hc.RedisAddr),
		slog.Int("db", hc.RedisDB),
	)
	return history.NewRedisStore(history.RedisOptions{
		Addr:      hc.RedisAddr,
		Password:  hc.RedisPassword,
		DB:        hc.RedisDB,
		KeyPrefix: hc.KeyPrefix,
		TTL:       hc.TTL,
	})
}

// ProvideAlerter создаёт Alerter на основе AlertingConfig из Config.
// Использует alerting.NewAlerter() для создания multi-channel alerter или NopAlerter.
//
// Провайдер извлекает настройки из Config.AlertingConfig:
//   - Enabled: включён ли алертинг (по умолчанию false)
//   - RateLimitWindow: интервал rate limiting
//   - Webhook, Telegram, NATS: конфигурация каналов
//
// Если AlertingConfig == nil или Enabled=false, возвращает NopAlerter.
// При ошибке создания Alerter возвращает NopAlerter и логирует ошибку.
func ProvideAlerter(cfg *config.Config, logger logging.Logger) alerting.Alerter {
	// Если конфигурация отсутствует — возвращаем NopAlerter
	if cfg == nil || cfg.AlertingConfig == nil {
		return alerting.NewNopAlerter()
	}

	alerter, err := alerting.NewAlerter(cfg.AlertingConfig.ToAlertingConfig(), cfg.AlertingConfig.Rules, logger)
	if err != nil {
		logger.Error("ошибка создания Alerter, используется NopAlerter",
			slog.String("error", err.Error()),
		)
		return alerting.NewNopAlerter()
	}

	return alerter
}

// ProvideMetricsCollector создаёт Collector на основе MetricsConfig из Config.
// Если MetricsConfig == nil или Enabled=false, возвращает NopCollector.
//
// Провайдер извлекает настройки из Config.MetricsConfig:
//   - Enabled: включены ли метрики (по умолчанию false)
//   - PushgatewayURL: URL Prometheus Pushgateway
//   - JobName: имя job для группировки метрик
//   - Timeout: таймаут HTTP запросов
//   - InstanceLabel: переопределение instance label (или hostname)
//
// При ошибке создания Collector возвращает NopCollector и логирует ошибку.
func ProvideMetricsCollector(cfg *config.Config, logger logging.Logger) metrics.Collector {
	// Если конфигурация отсутствует — возвращаем NopCollector
	if cfg == nil || cfg.MetricsConfig == nil {
		return metrics.NewNopCollector()
	}

	// Конвертируем config.MetricsConfig в metrics.Config
	metricsCfg := metrics.Config{
		Enabled:        cfg.MetricsConfig.Enabled,
		PushgatewayURL: cfg.MetricsConfig.PushgatewayURL,
		JobName:        cfg.MetricsConfig.JobName,
		Timeout:        cfg.MetricsConfig.Timeout,
		InstanceLabel:  cfg.MetricsConfig.InstanceLabel,
	}

	collector, err := metrics.NewCollector(metricsCfg, logger)
	if err != nil {
		logger.Error("ошибка создания MetricsCollector, используется NopCollector",
			slog.String("error", err.Error()),
		)
		return metrics.NewNopCollector()
	}

	return collector
}

// ProvideTracerProvider создаёт и инициализирует OTel TracerProvider.
// Возвращает shutdown function для graceful завершения.
// Если TracingConfig == nil или Enabled=false, возвращает nop shutdown.
// При ошибке создания TracerProvider возвращает nop shutdown и логирует ошибку.
func ProvideTracerProvider(cfg *config.Config, logger logging.Logger) func(context.Context) error {
	// Если конфигурация отсутствует — возвращаем nop shutdown
	if cfg == nil || cfg.TracingConfig == nil {
		return tracing.NewNopTracerProvider()
	}

	// Конвертируем config.TracingConfig в tracing.Config
	tracingCfg := tracing.Config{
		Enabled:      cfg.TracingConfig.Enabled,
		Endpoint:     cfg.TracingConfig.Endpoint,
		ServiceName:  cfg.TracingConfig.ServiceName,
		Version:      constants.Version,
		Environment:  cfg.TracingConfig.Environment,
		Insecure:     cfg.TracingConfig.Insecure,
		Timeout:      cfg.TracingConfig.Timeout,
		SamplingRate: cfg.TracingConfig.SamplingRate,
	}
	if cfg.HubConfig != nil {
		tracingCfg.HubTarget = cfg.HubConfig.URL
	}

	shutdown, err := tracing.NewTracerProvider(tracingCfg, logger)
	if err != nil {
		logger.Error("ошибка инициализации tracing, используется nop provider",
			slog.String("error", err.Error()),
		)
		return tracing.NewNopTracerProvider()
	}

	return shutdown
}
