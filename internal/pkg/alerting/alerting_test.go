package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kargones/aihub-smoke/internal/pkg/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAlert() Alert {
	return Alert{
		ErrorCode:   "SMOKE.FATAL_PRECONDITION",
		Message:     "health: connection refused",
		TraceID:     "trace-1",
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Command:     "hub-watch",
		Scenario:    "mvp",
		Target:      "http://localhost:3000",
		FailedSteps: []string{"health"},
		Severity:    SeverityCritical,
	}
}

// recordingAlerter запоминает полученные алерты.
type recordingAlerter struct {
	mu     sync.Mutex
	alerts []Alert
	closed bool
}

func (r *recordingAlerter) Send(_ context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *recordingAlerter) Close() error {
	r.closed = true
	return nil
}

func (r *recordingAlerter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "CRITICAL", SeverityCritical.String())
	assert.Equal(t, "UNKNOWN", Severity(42).String())
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityInfo, ParseSeverity("nope"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"выключен", func(c *Config) { c.Enabled = false; c.Webhook.Enabled = true }, nil},
		{"webhook без URL", func(c *Config) { c.Webhook.Enabled = true }, ErrWebhookURLRequired},
		{"webhook file://", func(c *Config) { c.Webhook.Enabled = true; c.Webhook.URLs = []string{"file:///etc/passwd"} }, ErrWebhookURLInvalid},
		{"webhook CRLF", func(c *Config) {
			c.Webhook.Enabled = true
			c.Webhook.URLs = []string{"https://hooks.example.com/x"}
			c.Webhook.Headers = map[string]string{"X-Token": "a\r\nInjected: 1"}
		}, ErrWebhookHeaderInvalid},
		{"telegram без токена", func(c *Config) { c.Telegram.Enabled = true }, ErrTelegramBotTokenRequired},
		{"telegram кривой chat", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "1:x"
			c.Telegram.ChatIDs = []string{"chat one"}
		}, ErrTelegramChatIDInvalid},
		{"nats без URL", func(c *Config) { c.NATS.Enabled = true }, ErrNATSURLRequired},
		{"nats subject с пробелом", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.URL = "nats://localhost:4222"
			c.NATS.Subject = "aihub smoke"
		}, ErrNATSSubjectInvalid},
		{"валидно", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "1:x"
			c.Telegram.ChatIDs = []string{"-1001234567890", "@aihub_oncall"}
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Enabled = true
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAlerter(t *testing.T) {
	a, err := NewAlerter(DefaultConfig(), RulesConfig{}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &NopAlerter{}, a)

	cfg := DefaultConfig()
	cfg.Enabled = true
	a, err = NewAlerter(cfg, RulesConfig{}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &NopAlerter{}, a, "без каналов — NopAlerter")

	cfg.Webhook = WebhookConfig{Enabled: true, URLs: []string{"https://hooks.example.com/x"}}
	a, err = NewAlerter(cfg, RulesConfig{}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &MultiChannelAlerter{}, a)

	cfg.Webhook.URLs = nil
	_, err = NewAlerter(cfg, RulesConfig{}, logging.NewNopLogger())
	assert.ErrorIs(t, err, ErrWebhookURLRequired)
}

func TestRateLimiter(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(time.Minute)
	rl.SetNowFunc(func() time.Time { return now })

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("a"))

	rl.Reset("a")
	assert.True(t, rl.Allow("a"))
}

func TestRulesEngine(t *testing.T) {
	engine := NewRulesEngine(RulesConfig{
		MinSeverity:       "CRITICAL",
		ExcludeErrorCodes: []string{"SMOKE.STEPS_FAILED"},
		Channels: map[string]ChannelRulesConfig{
			ChannelNATS: {MinSeverity: "INFO", IncludeScenarios: []string{"mvp"}},
		},
	})

	critical := testAlert()
	warning := testAlert()
	warning.Severity = SeverityWarning
	excluded := testAlert()
	excluded.ErrorCode = "SMOKE.STEPS_FAILED"
	resolved := warning
	resolved.Resolved = true
	demo := warning
	demo.Scenario = "demo"

	assert.True(t, engine.Evaluate(critical, ChannelWebhook))
	assert.False(t, engine.Evaluate(warning, ChannelWebhook))
	assert.False(t, engine.Evaluate(excluded, ChannelWebhook))
	assert.True(t, engine.Evaluate(resolved, ChannelWebhook), "восстановление проходит мимо MinSeverity")

	assert.True(t, engine.Evaluate(warning, ChannelNATS))
	assert.False(t, engine.Evaluate(demo, ChannelNATS))
}

func TestMultiChannelAlerter(t *testing.T) {
	webhook := &recordingAlerter{}
	natsCh := &recordingAlerter{}
	rules := NewRulesEngine(RulesConfig{Channels: map[string]ChannelRulesConfig{
		ChannelWebhook: {MinSeverity: "CRITICAL"},
	}})
	m := NewMultiChannelAlerter(map[string]Alerter{ChannelWebhook: webhook, ChannelNATS: natsCh},
		rules, NewRateLimiter(time.Hour), logging.NewNopLogger())

	warning := testAlert()
	warning.Severity = SeverityWarning

	require.NoError(t, m.Send(context.Background(), warning))
	assert.Equal(t, 0, webhook.count())
	assert.Equal(t, 1, natsCh.count())

	// Повтор в окне подавлен целиком.
	require.NoError(t, m.Send(context.Background(), warning))
	assert.Equal(t, 1, natsCh.count())

	// Восстановление сбрасывает окно.
	resolved := warning
	resolved.Resolved = true
	require.NoError(t, m.Send(context.Background(), resolved))
	require.NoError(t, m.Send(context.Background(), warning))
	assert.Equal(t, 3, natsCh.count())

	require.NoError(t, m.Close())
	assert.True(t, webhook.closed)
	assert.True(t, natsCh.closed)
}

func TestWebhookAlerter_Send(t *testing.T) {
	var got WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "s3cr3t", r.Header.Get("X-Token"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhookAlerter(WebhookConfig{URLs: []string{srv.URL}, Headers: map[string]string{"X-Token": "s3cr3t"}}, logging.NewNopLogger())
	require.NoError(t, w.Send(context.Background(), testAlert()))

	assert.Equal(t, "SMOKE.FATAL_PRECONDITION", got.ErrorCode)
	assert.Equal(t, "mvp", got.Scenario)
	assert.Equal(t, []string{"health"}, got.FailedSteps)
	assert.Equal(t, "CRITICAL", got.Severity)
	assert.Equal(t, "aihub-smoke", got.Source)
}

func TestWebhookAlerter_Retry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhookAlerter(WebhookConfig{URLs: []string{srv.URL}, MaxRetries: 3}, logging.NewNopLogger())
	w.initialBackoff = time.Millisecond
	require.NoError(t, w.Send(context.Background(), testAlert()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookAlerter_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	w := NewWebhookAlerter(WebhookConfig{URLs: []string{srv.URL}, MaxRetries: 3}, logging.NewNopLogger())
	w.initialBackoff = time.Millisecond
	require.NoError(t, w.Send(context.Background(), testAlert()))
	assert.Equal(t, int32(1), calls.Load())
}

type fakeHTTPClient struct {
	do func(req *http.Request) (*http.Response, error)
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) { return f.do(req) }

func TestTelegramAlerter_Send(t *testing.T) {
	var chats []string
	tg := NewTelegramAlerter(TelegramConfig{BotToken: "123:ABC", ChatIDs: []string{"-100", "@oncall_team"}}, logging.NewNopLogger())
	tg.SetHTTPClient(&fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "https://api.telegram.org/bot123:ABC/sendMessage", req.URL.String())
		var body telegramRequest
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		chats = append(chats, body.ChatID)
		assert.Contains(t, body.Text, "AI Hub smoke провален")
		assert.Contains(t, body.Text, "SMOKE.FATAL\\_PRECONDITION")
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{"ok":true}`))}, nil
	}})

	require.NoError(t, tg.Send(context.Background(), testAlert()))
	assert.Equal(t, []string{"-100", "@oncall_team"}, chats)
}

func TestTelegramAlerter_RedactsToken(t *testing.T) {
	tg := NewTelegramAlerter(TelegramConfig{BotToken: "123:SECRET"}, logging.NewNopLogger())
	tg.SetHTTPClient(&fakeHTTPClient{do: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("Post " + req.URL.String() + ": dial tcp: refused")
	}})

	err := tg.sendToChat(context.Background(), "-100", "text")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
	assert.Contains(t, err.Error(), "[REDACTED]")
}

// fakePublisher — Publisher без сервера NATS.
type fakePublisher struct {
	subjects []string
	payloads [][]byte
	flushErr error
	closed   bool
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakePublisher) FlushTimeout(time.Duration) error { return f.flushErr }
func (f *fakePublisher) Close()                           { f.closed = true }

func TestNATSAlerter_Send(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSAlerter(NATSConfig{}, pub, logging.NewNopLogger())

	require.NoError(t, n.Send(context.Background(), testAlert()))
	resolved := testAlert()
	resolved.Resolved = true
	resolved.Scenario = ""
	require.NoError(t, n.Send(context.Background(), resolved))

	require.Len(t, pub.subjects, 2)
	assert.Equal(t, "aihub.smoke.alerts.mvp", pub.subjects[0])
	assert.Equal(t, "aihub.smoke.alerts", pub.subjects[1])

	var event natsEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &event))
	assert.Equal(t, "smoke.failed", event.Type)
	require.NoError(t, json.Unmarshal(pub.payloads[1], &event))
	assert.Equal(t, "smoke.recovered", event.Type)

	require.NoError(t, n.Close())
	assert.True(t, pub.closed)
}

func TestNATSAlerter_FlushErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{flushErr: errors.New("timeout")}
	n := NewNATSAlerter(NATSConfig{Subject: "x"}, pub, logging.NewNopLogger())
	assert.NoError(t, n.Send(context.Background(), testAlert()))
}
