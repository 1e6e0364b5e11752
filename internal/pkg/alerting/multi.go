package alerting

import (
	"context"
	"io"
	"sort"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
)

// MultiChannelAlerter рассылает алерт по каналам с учётом правил.
// Rate limiting проверяется один раз для всех каналов, чтобы алерт
// получили либо все каналы, либо ни один.
type MultiChannelAlerter struct {
	channels     map[string]Alerter
	channelNames []string
	rules        *RulesEngine
	rateLimiter  *RateLimiter
	logger       logging.Logger
}

// NewMultiChannelAlerter создаёт MultiChannelAlerter. Каналы обходятся
// в алфавитном порядке.
func NewMultiChannelAlerter(channels map[string]Alerter, rules *RulesEngine, rateLimiter *RateLimiter, logger logging.Logger) *MultiChannelAlerter {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	return &MultiChannelAlerter{
		channels:     channels,
		channelNames: names,
		rules:        rules,
		rateLimiter:  rateLimiter,
		logger:       logger,
	}
}

// Send рассылает алерт. Всегда возвращает nil.
func (m *MultiChannelAlerter) Send(ctx context.Context, alert Alert) error {
	if m.rateLimiter != nil {
		if alert.Resolved {
			// ErrorCode восстановления совпадает с кодом провала.
			m.rateLimiter.Reset(rateKey(alert))
		} else if !m.rateLimiter.Allow(rateKey(alert)) {
			m.logger.Debug("алерт подавлен rate limiter", "error_code", alert.ErrorCode, "scenario", alert.Scenario)
			return nil
		}
	}

	sent := 0
	for _, name := range m.channelNames {
		if ctx.Err() != nil {
			return nil
		}
		if m.rules != nil && !m.rules.Evaluate(alert, name) {
			m.logger.Debug("алерт отклонён правилами", "channel", name, "error_code", alert.ErrorCode)
			continue
		}
		_ = m.channels[name].Send(ctx, alert) //nolint:errcheck // каналы логируют ошибки сами
		sent++
	}

	m.logger.Debug("рассылка алерта завершена",
		"error_code", alert.ErrorCode,
		"channels_sent", sent,
		"channels_total", len(m.channelNames),
	)
	return nil
}

// Close закрывает каналы, держащие соединения (NATS).
func (m *MultiChannelAlerter) Close() error {
	for _, name := range m.channelNames {
		if c, ok := m.channels[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				m.logger.Warn("ошибка закрытия канала алертинга", "channel", name, "error", err.Error())
			}
		}
	}
	return nil
}
