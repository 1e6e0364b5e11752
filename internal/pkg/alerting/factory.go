package alerting

import (
	"fmt"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
)

// NewAlerter собирает Alerter по конфигурации.
// Выключенный алертинг или отсутствие каналов дают NopAlerter,
// иначе MultiChannelAlerter с общим rate limiter и правилами.
func NewAlerter(config Config, rules RulesConfig, logger logging.Logger) (Alerter, error) {
	if !config.Enabled {
		return NewNopAlerter(), nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	channels := make(map[string]Alerter)
	if config.Webhook.Enabled {
		channels[ChannelWebhook] = NewWebhookAlerter(config.Webhook, logger)
	}
	if config.Telegram.Enabled {
		channels[ChannelTelegram] = NewTelegramAlerter(config.Telegram, logger)
	}
	if config.NATS.Enabled {
		natsAlerter, err := DialNATS(config.NATS, logger)
		if err != nil {
			return nil, fmt.Errorf("создание nats alerter: %w", err)
		}
		channels[ChannelNATS] = natsAlerter
	}

	if len(channels) == 0 {
		logger.Warn("alerting включён, но нет настроенных каналов, используется NopAlerter")
		return NewNopAlerter(), nil
	}

	window := config.RateLimitWindow
	if window == 0 {
		window = DefaultRateLimitWindow
	}
	return NewMultiChannelAlerter(channels, NewRulesEngine(rules), NewRateLimiter(window), logger), nil
}
