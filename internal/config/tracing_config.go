package config

import (
	"fmt"
	"log/slog"
	"time"
)

// TracingConfig содержит настройки OpenTelemetry трейсинга.
type TracingConfig struct {
	// Enabled включает отправку трейсов в OTLP бэкенд.
	Enabled bool `yaml:"enabled" env:"BR_TRACING_ENABLED" env-default:"false"`

	// Endpoint — URL OTLP HTTP endpoint (например, http://jaeger:4318).
	Endpoint string `yaml:"endpoint" env:"BR_TRACING_ENDPOINT"`

	// ServiceName — имя сервиса для resource attributes.
	ServiceName string `yaml:"serviceName" env:"BR_TRACING_SERVICE_NAME" env-default:"aihub-smoke"`

	// Environment — окружение (production, staging, development).
	Environment string `yaml:"environment" env:"BR_TRACING_ENVIRONMENT" env-default:"development"`

	// Insecure — использовать HTTP вместо HTTPS для OTLP endpoint.
	Insecure bool `yaml:"insecure" env:"BR_TRACING_INSECURE" env-default:"true"`

	// Timeout — таймаут для экспорта трейсов.
	Timeout time.Duration `yaml:"timeout" env:"BR_TRACING_TIMEOUT" env-default:"5s"`

	// SamplingRate — доля сэмплируемых трейсов (0.0 — ни один, 1.0 — все).
	SamplingRate float64 `yaml:"samplingRate" env:"BR_TRACING_SAMPLING_RATE" env-default:"1.0"`
}

// isTracingConfigPresent проверяет, задана ли конфигурация трейсинга.
func isTracingConfigPresent(cfg *TracingConfig) bool {
	if cfg == nil {
		return false
	}
	return cfg.Enabled || cfg.Endpoint != ""
}

// getDefaultTracingConfig возвращает конфигурацию трейсинга по умолчанию.
// Трейсинг отключён по умолчанию.
func getDefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		Enabled:      false,
		ServiceName:  "aihub-smoke",
		Environment:  "development",
		Insecure:     true,
		Timeout:      5 * time.Second,
		SamplingRate: 1.0,
	}
}

// validateTracingConfig проверяет обязательные поля при включённом трейсинге.
func validateTracingConfig(tc *TracingConfig) error {
	if !tc.Enabled {
		return nil
	}
	if tc.Endpoint == "" {
		return fmt.Errorf("tracing: endpoint обязателен при enabled=true")
	}
	if tc.ServiceName == "" {
		return fmt.Errorf("tracing: service name обязателен при enabled=true")
	}
	if tc.Timeout <= 0 {
		return fmt.Errorf("tracing: timeout должен быть положительным")
	}
	if tc.SamplingRate < 0.0 || tc.SamplingRate > 1.0 {
		return fmt.Errorf("tracing: sampling rate должен быть от 0.0 до 1.0, получено: %g", tc.SamplingRate)
	}
	return nil
}

// loadTracingConfig загружает конфигурацию трейсинга. BR_TRACING_* переопределяют AppConfig.
func loadTracingConfig(l *slog.Logger, cfg *Config) (*TracingConfig, error) {
	var fromApp *TracingConfig
	if cfg.AppConfig != nil {
		fromApp = &cfg.AppConfig.Tracing
	}
	return loadSection(l, "tracing", fromApp, isTracingConfigPresent(fromApp), getDefaultTracingConfig), nil
}
