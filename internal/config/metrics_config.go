package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/urlutil"
)

// MetricsConfig содержит настройки для Prometheus метрик.
type MetricsConfig struct {
	// Enabled — включены ли метрики (по умолчанию false).
	Enabled bool `yaml:"enabled" env:"BR_METRICS_ENABLED" env-default:"false"`

	// PushgatewayURL — URL Prometheus Pushgateway.
	// Пример: "http://pushgateway:9091"
	PushgatewayURL string `yaml:"pushgatewayUrl" env:"BR_METRICS_PUSHGATEWAY_URL"`

	// JobName — имя job для группировки метрик.
	JobName string `yaml:"jobName" env:"BR_METRICS_JOB_NAME" env-default:"aihub-smoke"`

	// Timeout — таймаут HTTP запросов к Pushgateway.
	Timeout time.Duration `yaml:"timeout" env:"BR_METRICS_TIMEOUT" env-default:"10s"`

	// InstanceLabel — переопределение instance label.
	// Если пусто — используется hostname.
	InstanceLabel string `yaml:"instanceLabel" env:"BR_METRICS_INSTANCE"`
}

// isMetricsConfigPresent проверяет, задана ли конфигурация метрик.
func isMetricsConfigPresent(cfg *MetricsConfig) bool {
	if cfg == nil {
		return false
	}
	return cfg.Enabled || cfg.PushgatewayURL != ""
}

// getDefaultMetricsConfig возвращает конфигурацию метрик по умолчанию.
// Метрики отключены по умолчанию.
func getDefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: false,
		JobName: "aihub-smoke",
		Timeout: 10 * time.Second,
	}
}

// loadMetricsConfig загружает конфигурацию метрик. BR_METRICS_* переопределяют AppConfig.
func loadMetricsConfig(l *slog.Logger, cfg *Config) (*MetricsConfig, error) {
	var fromApp *MetricsConfig
	if cfg.AppConfig != nil {
		fromApp = &cfg.AppConfig.Metrics
	}
	mc := loadSection(l, "metrics", fromApp, isMetricsConfigPresent(fromApp), getDefaultMetricsConfig)
	if mc.Enabled {
		l.Debug("Метрики включены", slog.String("pushgateway_url", urlutil.MaskURL(mc.PushgatewayURL)))
	}
	return mc, nil
}

// validateMetricsConfig проверяет обязательные поля при включённых метриках.
func validateMetricsConfig(mc *MetricsConfig) error {
	if !mc.Enabled {
		return nil
	}
	if mc.PushgatewayURL == "" {
		return fmt.Errorf("metrics: pushgatewayUrl обязателен при enabled=true")
	}
	if mc.JobName == "" {
		return fmt.Errorf("metrics: jobName обязателен при enabled=true")
	}
	if mc.Timeout <= 0 {
		return fmt.Errorf("metrics: timeout должен быть положительным")
	}
	return nil
}
