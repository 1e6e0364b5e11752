package metrics

import (
	"errors"
	"net/url"
	"time"
)

var (
	// ErrPushgatewayURLRequired — метрики включены, а URL не указан.
	ErrPushgatewayURLRequired = errors.New("pushgateway URL is required when metrics enabled")
	// ErrPushgatewayURLInvalid — URL Pushgateway некорректен.
	ErrPushgatewayURLInvalid = errors.New("pushgateway URL has invalid format")
	// ErrJobNameRequired — не указано имя job.
	ErrJobNameRequired = errors.New("job name is required")
	// ErrInvalidTimeout — таймаут не положителен.
	ErrInvalidTimeout = errors.New("timeout must be positive")
)

// Config — настройки отправки метрик.
type Config struct {
	Enabled        bool
	PushgatewayURL string
	JobName        string
	Timeout        time.Duration
	// InstanceLabel переопределяет instance. Пусто — hostname.
	InstanceLabel string
}

// DefaultConfig возвращает конфигурацию по умолчанию (метрики выключены).
func DefaultConfig() Config {
	return Config{
		JobName: "aihub-smoke",
		Timeout: 10 * time.Second,
	}
}

// Validate проверяет конфигурацию. Выключенные метрики всегда валидны.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PushgatewayURL == "" {
		return ErrPushgatewayURLRequired
	}
	u, err := url.Parse(c.PushgatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrPushgatewayURLInvalid
	}
	if c.JobName == "" {
		return ErrJobNameRequired
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
