package alerting

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	DefaultRateLimitWindow = 15 * time.Minute
	DefaultWebhookTimeout  = 10 * time.Second
	DefaultMaxRetries      = 3
	DefaultTelegramTimeout = 10 * time.Second
	DefaultNATSSubject     = "aihub.smoke.alerts"
	DefaultNATSTimeout     = 5 * time.Second
)

// Ошибки валидации конфигурации.
var (
	ErrWebhookURLRequired       = errors.New("alerting: at least one url is required when webhook channel is enabled")
	ErrWebhookURLInvalid        = errors.New("alerting: webhook url must be http(s) with host")
	ErrWebhookHeaderInvalid     = errors.New("alerting: webhook header contains control characters")
	ErrTelegramBotTokenRequired = errors.New("alerting: bot_token is required when telegram channel is enabled")
	ErrTelegramChatIDRequired   = errors.New("alerting: at least one chat_id is required when telegram channel is enabled")
	ErrTelegramChatIDInvalid    = errors.New("alerting: chat_id must be a numeric ID or @username")
	ErrNATSURLRequired          = errors.New("alerting: url is required when nats channel is enabled")
	ErrNATSSubjectInvalid       = errors.New("alerting: nats subject must not be empty or contain whitespace")
)

// Config — настройки алертинга.
type Config struct {
	Enabled         bool
	RateLimitWindow time.Duration
	Webhook         WebhookConfig
	Telegram        TelegramConfig
	NATS            NATSConfig
}

// WebhookConfig — настройки webhook канала.
type WebhookConfig struct {
	Enabled    bool
	URLs       []string
	Headers    map[string]string
	Timeout    time.Duration
	MaxRetries int
}

// TelegramConfig — настройки telegram канала.
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatIDs  []string
	Timeout  time.Duration
	// APIBaseURL переопределяет адрес Bot API. Пусто — api.telegram.org.
	APIBaseURL string
}

// NATSConfig — настройки публикации алертов в NATS.
type NATSConfig struct {
	Enabled  bool
	URL      string
	Subject  string
	ClientID string
	Timeout  time.Duration
}

// DefaultConfig возвращает конфигурацию с выключенным алертингом.
func DefaultConfig() Config {
	return Config{
		RateLimitWindow: DefaultRateLimitWindow,
		Webhook:         WebhookConfig{Timeout: DefaultWebhookTimeout, MaxRetries: DefaultMaxRetries},
		Telegram:        TelegramConfig{Timeout: DefaultTelegramTimeout},
		NATS:            NATSConfig{Subject: DefaultNATSSubject, ClientID: "aihub-smoke", Timeout: DefaultNATSTimeout},
	}
}

// Validate проверяет включённые каналы.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := c.Webhook.Validate(); err != nil {
		return err
	}
	if err := c.Telegram.Validate(); err != nil {
		return err
	}
	return c.NATS.Validate()
}

// Validate проверяет WebhookConfig.
func (w *WebhookConfig) Validate() error {
	if !w.Enabled {
		return nil
	}
	if len(w.URLs) == 0 {
		return ErrWebhookURLRequired
	}
	for _, rawURL := range w.URLs {
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return ErrWebhookURLInvalid
		}
	}
	for key, value := range w.Headers {
		if hasControlChars(key) || hasControlChars(value) {
			return ErrWebhookHeaderInvalid
		}
	}
	return nil
}

var chatIDPattern = regexp.MustCompile(`^(-?\d+|@[A-Za-z0-9_]{5,32})$`)

// Validate проверяет TelegramConfig.
func (t *TelegramConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if t.BotToken == "" {
		return ErrTelegramBotTokenRequired
	}
	if len(t.ChatIDs) == 0 {
		return ErrTelegramChatIDRequired
	}
	for _, id := range t.ChatIDs {
		if !chatIDPattern.MatchString(id) {
			return ErrTelegramChatIDInvalid
		}
	}
	return nil
}

// Validate проверяет NATSConfig.
func (n *NATSConfig) Validate() error {
	if !n.Enabled {
		return nil
	}
	if n.URL == "" {
		return ErrNATSURLRequired
	}
	if n.Subject == "" || strings.ContainsAny(n.Subject, " \t\r\n") {
		return ErrNATSSubjectInvalid
	}
	return nil
}

// hasControlChars: HTAB допустим в HTTP заголовках (RFC 7230), остальные control chars нет.
func hasControlChars(s string) bool {
	for _, r := range s {
		if r == 0x09 {
			continue
		}
		if r <= 0x1f || r == 0x7f {
			return true
		}
	}
	return false
}
