package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/urlutil"
)

// maxResponseBodySize — сколько тела ответа читать для диагностики.
const maxResponseBodySize = 1024

// maxBackoff — потолок экспоненциальной задержки между попытками.
const maxBackoff = 4 * time.Second

// WebhookPayload — JSON тело webhook.
type WebhookPayload struct {
	ErrorCode   string    `json:"error_code"`
	Message     string    `json:"message"`
	TraceID     string    `json:"trace_id"`
	Timestamp   time.Time `json:"timestamp"`
	Command     string    `json:"command"`
	Scenario    string    `json:"scenario"`
	Target      string    `json:"target"`
	FailedSteps []string  `json:"failed_steps,omitempty"`
	Severity    string    `json:"severity"`
	Resolved    bool      `json:"resolved"`
	Source      string    `json:"source"`
	Hostname    string    `json:"hostname,omitempty"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// WebhookAlerter отправляет алерты POST-запросом на каждый URL.
type WebhookAlerter struct {
	config     WebhookConfig
	logger     logging.Logger
	httpClient HTTPClient
	hostname   string
	// initialBackoff — первая задержка между попытками, в тестах уменьшается.
	initialBackoff time.Duration
}

// NewWebhookAlerter создаёт WebhookAlerter.
func NewWebhookAlerter(config WebhookConfig, logger logging.Logger) *WebhookAlerter {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultWebhookTimeout
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &WebhookAlerter{
		config:         config,
		logger:         logger,
		httpClient:     &http.Client{Timeout: timeout},
		hostname:       hostname,
		initialBackoff: time.Second,
	}
}

// SetHTTPClient подменяет HTTP клиент (для тестов).
func (w *WebhookAlerter) SetHTTPClient(client HTTPClient) {
	w.httpClient = client
}

// Send отправляет алерт на все URL. Ошибка одного URL не мешает остальным.
func (w *WebhookAlerter) Send(ctx context.Context, alert Alert) error {
	payload := WebhookPayload{
		ErrorCode:   alert.ErrorCode,
		Message:     alert.Message,
		TraceID:     alert.TraceID,
		Timestamp:   alert.Timestamp,
		Command:     alert.Command,
		Scenario:    alert.Scenario,
		Target:      alert.Target,
		FailedSteps: alert.FailedSteps,
		Severity:    alert.Severity.String(),
		Resolved:    alert.Resolved,
		Source:      "aihub-smoke",
		Hostname:    w.hostname,
	}

	delivered := 0
	for _, u := range w.config.URLs {
		if ctx.Err() != nil {
			return nil
		}
		if err := w.sendWithRetry(ctx, u, payload); err != nil {
			w.logger.Error("ошибка отправки webhook алерта",
				"error", err.Error(),
				"url", urlutil.MaskURL(u),
				"error_code", alert.ErrorCode,
			)
			continue
		}
		delivered++
	}

	if delivered == 0 && len(w.config.URLs) > 0 {
		w.logger.Warn("webhook алерт не доставлен ни на один URL", "error_code", alert.ErrorCode)
		return nil
	}
	w.logger.Info("webhook алерт отправлен",
		"error_code", alert.ErrorCode,
		"urls_success", delivered,
		"urls_total", len(w.config.URLs),
	)
	return nil
}

// sendWithRetry повторяет сетевые ошибки и 5xx с экспоненциальной задержкой.
// 4xx не повторяется: это ошибка конфигурации получателя.
func (w *WebhookAlerter) sendWithRetry(ctx context.Context, u string, payload WebhookPayload) error {
	var lastErr error
	backoff := w.initialBackoff

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			w.logger.Debug("webhook retry", "attempt", attempt, "error", lastErr.Error())
		}

		lastErr = w.sendRequest(ctx, u, payload)
		if lastErr == nil {
			return nil
		}
		var he *httpError
		if errors.As(lastErr, &he) && he.StatusCode >= 400 && he.StatusCode < 500 {
			return lastErr
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", w.config.MaxRetries+1, lastErr)
}

func (w *WebhookAlerter) sendRequest(ctx context.Context, u string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "aihub-smoke/1.0")
	for key, value := range w.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize)) //nolint:errcheck // drain для keep-alive
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize)) //nolint:errcheck // только диагностика
	return &httpError{StatusCode: resp.StatusCode, Body: string(respBody)}
}
