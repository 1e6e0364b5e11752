// Package alerting отправляет алерты о провалах smoke-прогонов.
// Каналы: webhook, telegram и NATS, с rate limiting и правилами фильтрации.
package alerting

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Severity — уровень критичности алерта.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// Имена каналов.
const (
	ChannelWebhook  = "webhook"
	ChannelTelegram = "telegram"
	ChannelNATS     = "nats"
)

// String возвращает строковое представление Severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity разбирает "INFO", "WARNING", "CRITICAL" без учёта регистра.
// Неизвестное значение даёт SeverityInfo.
func ParseSeverity(s string) Severity {
	switch strings.ToUpper(s) {
	case "WARNING":
		return SeverityWarning
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Alert — данные одного алерта.
type Alert struct {
	// ErrorCode — ключ rate limiting и правил, например "SMOKE.FATAL_PRECONDITION".
	ErrorCode string
	Message   string
	TraceID   string
	Timestamp time.Time
	Command   string
	Scenario  string
	// Target — адрес AI Hub без секретов.
	Target      string
	FailedSteps []string
	Severity    Severity
	// Resolved — алерт о восстановлении после серии провалов.
	Resolved bool
}

// Alerter отправляет алерты.
//
// Send всегда возвращает nil: недоступность канала алертинга не должна
// влиять на исход прогона. Ошибки доставки логируются.
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// HTTPClient — минимальный HTTP клиент, подменяется в тестах.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NopAlerter игнорирует все алерты.
type NopAlerter struct{}

// NewNopAlerter создаёт NopAlerter.
func NewNopAlerter() Alerter {
	return &NopAlerter{}
}

// Send ничего не делает.
func (n *NopAlerter) Send(context.Context, Alert) error {
	return nil
}

// title — заголовок алерта для человекочитаемых каналов.
func (a Alert) title() string {
	if a.Resolved {
		return "✅ AI Hub smoke восстановлен"
	}
	return "🚨 AI Hub smoke провален"
}
