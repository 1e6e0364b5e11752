package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
)

// TelegramAPIBaseURL — адрес Telegram Bot API по умолчанию.
const TelegramAPIBaseURL = "https://api.telegram.org"

const maxTelegramResponseSize = 1024

// markdownReplacer экранирует Markdown v1. Backslash первым.
var markdownReplacer = strings.NewReplacer(
	`\`, `\\`,
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
)

// TelegramAlerter отправляет алерты в Telegram чаты.
type TelegramAlerter struct {
	config     TelegramConfig
	logger     logging.Logger
	httpClient HTTPClient
}

// NewTelegramAlerter создаёт TelegramAlerter.
func NewTelegramAlerter(config TelegramConfig, logger logging.Logger) *TelegramAlerter {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTelegramTimeout
	}
	if config.APIBaseURL == "" {
		config.APIBaseURL = TelegramAPIBaseURL
	}
	return &TelegramAlerter{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient подменяет HTTP клиент (для тестов).
func (t *TelegramAlerter) SetHTTPClient(client HTTPClient) {
	t.httpClient = client
}

// Send отправляет алерт во все чаты.
func (t *TelegramAlerter) Send(ctx context.Context, alert Alert) error {
	message := formatTelegramMessage(alert)

	delivered := 0
	for _, chatID := range t.config.ChatIDs {
		if ctx.Err() != nil {
			return nil
		}
		if err := t.sendToChat(ctx, chatID, message); err != nil {
			t.logger.Error("ошибка отправки telegram алерта",
				"error", err.Error(),
				"chat_id", chatID,
				"error_code", alert.ErrorCode,
			)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		t.logger.Info("telegram алерт отправлен", "error_code", alert.ErrorCode, "chats_success", delivered)
	}
	return nil
}

func formatTelegramMessage(alert Alert) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n\n", escapeMarkdown(alert.title()))
	fmt.Fprintf(&sb, "*Сценарий:* %s\n", escapeMarkdown(alert.Scenario))
	fmt.Fprintf(&sb, "*AI Hub:* %s\n", escapeMarkdown(alert.Target))
	fmt.Fprintf(&sb, "*Код:* `%s`\n", escapeMarkdown(alert.ErrorCode))
	if len(alert.FailedSteps) > 0 {
		fmt.Fprintf(&sb, "*Упавшие шаги:* %s\n", escapeMarkdown(strings.Join(alert.FailedSteps, ", ")))
	}
	fmt.Fprintf(&sb, "\n%s\n\n", escapeMarkdown(alert.Message))
	fmt.Fprintf(&sb, "_Trace ID:_ `%s`\n", escapeMarkdown(alert.TraceID))
	fmt.Fprintf(&sb, "_Time:_ %s", escapeMarkdown(alert.Timestamp.Format(time.RFC3339)))
	return sb.String()
}

func escapeMarkdown(s string) string {
	return markdownReplacer.Replace(s)
}

type telegramRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func (t *TelegramAlerter) sendToChat(ctx context.Context, chatID, message string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.config.APIBaseURL, "/"), t.config.BotToken)

	body, err := json.Marshal(telegramRequest{ChatID: chatID, Text: message, ParseMode: "Markdown"})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %s", t.redact(err.Error()))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// Текст ошибки net/http содержит URL вместе с токеном бота.
		return fmt.Errorf("HTTP request failed: %s", t.redact(err.Error()))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxTelegramResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var tr telegramResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !tr.OK {
		return fmt.Errorf("telegram API error %d: %s", tr.ErrorCode, tr.Description)
	}
	return nil
}

func (t *TelegramAlerter) redact(s string) string {
	return strings.ReplaceAll(s, t.config.BotToken, "[REDACTED]")
}
