package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/alerting"
)

// AlertingConfig содержит настройки алертинга.
type AlertingConfig struct {
	// Enabled — включён ли алертинг (по умолчанию false).
	Enabled bool `yaml:"enabled" env:"BR_ALERTING_ENABLED" env-default:"false"`

	// RateLimitWindow — минимальный интервал между алертами одного типа.
	RateLimitWindow time.Duration `yaml:"rateLimitWindow" env:"BR_ALERTING_RATE_LIMIT_WINDOW" env-default:"15m"`

	// Webhook — конфигурация webhook канала.
	Webhook WebhookChannelConfig `yaml:"webhook"`

	// Telegram — конфигурация telegram канала.
	Telegram TelegramChannelConfig `yaml:"telegram"`

	// NATS — публикация алертов в NATS subject.
	NATS NATSChannelConfig `yaml:"nats"`

	// Rules — правила фильтрации алертов.
	// Override канала полностью заменяет глобальные правила, minSeverity нужно повторять.
	Rules alerting.RulesConfig `yaml:"rules"`
}

// WebhookChannelConfig содержит настройки webhook канала.
type WebhookChannelConfig struct {
	Enabled bool     `yaml:"enabled" env:"BR_ALERTING_WEBHOOK_ENABLED" env-default:"false"`
	URLs    []string `yaml:"urls" env:"BR_ALERTING_WEBHOOK_URLS" env-separator:","`

	// Headers доступны только через YAML: cleanenv не читает map из env.
	Headers map[string]string `yaml:"headers"`

	Timeout    time.Duration `yaml:"timeout" env:"BR_ALERTING_WEBHOOK_TIMEOUT" env-default:"10s"`
	MaxRetries int           `yaml:"maxRetries" env:"BR_ALERTING_WEBHOOK_MAX_RETRIES" env-default:"3"`
}

// TelegramChannelConfig содержит настройки telegram канала.
type TelegramChannelConfig struct {
	Enabled bool `yaml:"enabled" env:"BR_ALERTING_TELEGRAM_ENABLED" env-default:"false"`

	// BotToken — токен Telegram бота (получить у @BotFather).
	BotToken string `yaml:"botToken" env:"BR_ALERTING_TELEGRAM_BOT_TOKEN"`

	// ChatIDs — числовые ID или @username публичных каналов.
	ChatIDs []string `yaml:"chatIds" env:"BR_ALERTING_TELEGRAM_CHAT_IDS" env-separator:","`

	Timeout time.Duration `yaml:"timeout" env:"BR_ALERTING_TELEGRAM_TIMEOUT" env-default:"10s"`

	// APIBaseURL — адрес Bot API, для прокси и тестов.
	APIBaseURL string `yaml:"apiBaseUrl" env:"BR_ALERTING_TELEGRAM_API_URL"`
}

// NATSChannelConfig содержит настройки NATS канала.
type NATSChannelConfig struct {
	Enabled  bool          `yaml:"enabled" env:"BR_ALERTING_NATS_ENABLED" env-default:"false"`
	URL      string        `yaml:"url" env:"BR_ALERTING_NATS_URL"`
	Subject  string        `yaml:"subject" env:"BR_ALERTING_NATS_SUBJECT" env-default:"aihub.smoke.alerts"`
	ClientID string        `yaml:"clientId" env:"BR_ALERTING_NATS_CLIENT_ID" env-default:"aihub-smoke"`
	Timeout  time.Duration `yaml:"timeout" env:"BR_ALERTING_NATS_TIMEOUT" env-default:"5s"`
}

// isAlertingConfigPresent проверяет, задана ли конфигурация алертинга.
// Структуру нельзя сравнить с zero value целиком из-за slice и map полей.
func isAlertingConfigPresent(cfg *AlertingConfig) bool {
	if cfg == nil {
		return false
	}
	return cfg.Enabled ||
		cfg.Webhook.Enabled || len(cfg.Webhook.URLs) > 0 ||
		cfg.Telegram.Enabled || cfg.Telegram.BotToken != "" ||
		cfg.NATS.Enabled || cfg.NATS.URL != ""
}

// getDefaultAlertingConfig возвращает конфигурацию алертинга по умолчанию.
// Алертинг отключён по умолчанию.
func getDefaultAlertingConfig() *AlertingConfig {
	return &AlertingConfig{
		Enabled:         false,
		RateLimitWindow: alerting.DefaultRateLimitWindow,
		Webhook: WebhookChannelConfig{
			Timeout:    alerting.DefaultWebhookTimeout,
			MaxRetries: alerting.DefaultMaxRetries,
		},
		Telegram: TelegramChannelConfig{
			Timeout: alerting.DefaultTelegramTimeout,
		},
		NATS: NATSChannelConfig{
			Subject:  alerting.DefaultNATSSubject,
			ClientID: "aihub-smoke",
			Timeout:  alerting.DefaultNATSTimeout,
		},
		Rules: alerting.RulesConfig{
			MinSeverity: "INFO",
		},
	}
}

// loadAlertingConfig загружает конфигурацию алертинга. BR_ALERTING_* переопределяют AppConfig.
func loadAlertingConfig(l *slog.Logger, cfg *Config) (*AlertingConfig, error) {
	var fromApp *AlertingConfig
	if cfg.AppConfig != nil {
		fromApp = &cfg.AppConfig.Alerting
	}
	ac := loadSection(l, "alerting", fromApp, isAlertingConfigPresent(fromApp), getDefaultAlertingConfig)
	l.Debug("Каналы алертинга",
		slog.Bool("enabled", ac.Enabled),
		slog.Bool("webhook", ac.Webhook.Enabled),
		slog.Bool("telegram", ac.Telegram.Enabled),
		slog.Bool("nats", ac.NATS.Enabled),
	)
	return ac, nil
}

// validateAlertingConfig проверяет обязательные поля включённых каналов.
// Формат URL и заголовков проверяет alerting.Config.Validate при создании Alerter.
func validateAlertingConfig(ac *AlertingConfig) error {
	if !ac.Enabled {
		return nil
	}
	if ac.Webhook.Enabled && len(ac.Webhook.URLs) == 0 {
		return fmt.Errorf("alerting.webhook: хотя бы один URL обязателен")
	}
	if ac.Telegram.Enabled {
		if ac.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram: bot_token обязателен")
		}
		if len(ac.Telegram.ChatIDs) == 0 {
			return fmt.Errorf("alerting.telegram: хотя бы один chat_id обязателен")
		}
	}
	if ac.NATS.Enabled && ac.NATS.URL == "" {
		return fmt.Errorf("alerting.nats: url обязателен")
	}
	return nil
}

// ToAlertingConfig преобразует конфигурацию в alerting.Config.
func (ac *AlertingConfig) ToAlertingConfig() alerting.Config {
	return alerting.Config{
		Enabled:         ac.Enabled,
		RateLimitWindow: ac.RateLimitWindow,
		Webhook: alerting.WebhookConfig{
			Enabled:    ac.Webhook.Enabled,
			URLs:       ac.Webhook.URLs,
			Headers:    ac.Webhook.Headers,
			Timeout:    ac.Webhook.Timeout,
			MaxRetries: ac.Webhook.MaxRetries,
		},
		Telegram: alerting.TelegramConfig{
			Enabled:    ac.Telegram.Enabled,
			BotToken:   ac.Telegram.BotToken,
			ChatIDs:    ac.Telegram.ChatIDs,
			Timeout:    ac.Telegram.Timeout,
			APIBaseURL: ac.Telegram.APIBaseURL,
		},
		NATS: alerting.NATSConfig{
			Enabled:  ac.NATS.Enabled,
			URL:      ac.NATS.URL,
			Subject:  ac.NATS.Subject,
			ClientID: ac.NATS.ClientID,
			Timeout:  ac.NATS.Timeout,
		},
	}
}
