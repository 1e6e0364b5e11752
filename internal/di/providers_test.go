package di

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/pkg/alerting"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/metrics"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/smoke"
	"github.com/Kargones/aihub-smoke/internal/smoke/history"
)

// withEnvVar устанавливает переменную окружения и возвращает функцию для восстановления.
func withEnvVar(t *testing.T, key, value string) func() {
	t.Helper()
	origValue, existed := os.LookupEnv(key)

	if value == "" {
		require.NoError(t, os.Unsetenv(key))
	} else {
		require.NoError(t, os.Setenv(key, value))
	}

	return func() {
		if existed {
			_ = os.Setenv(key, origValue) //nolint:errcheck // test cleanup
		} else {
			_ = os.Unsetenv(key) //nolint:errcheck // test cleanup
		}
	}
}

func testLogger() logging.Logger {
	return logging.NewLogger(logging.DefaultConfig())
}

// TestProvideLogger_ReturnsNonNil проверяет, что ProvideLogger возвращает non-nil Logger.
func TestProvideLogger_ReturnsNonNil(t *testing.T) {
	cfg := &config.Config{
		LoggingConfig: &config.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}

	logger := ProvideLogger(cfg)

	assert.NotNil(t, logger, "ProvideLogger должен возвращать non-nil Logger")
}

// TestProvideLogger_WithNilConfig проверяет работу провайдера при nil Config.
func TestProvideLogger_WithNilConfig(t *testing.T) {
	var cfg *config.Config

	logger := ProvideLogger(cfg)

	assert.NotNil(t, logger, "ProvideLogger должен возвращать non-nil Logger даже при nil Config")
}

func TestProvideOutputWriter_JSONFormat(t *testing.T) {
	restore := withEnvVar(t, "BR_OUTPUT_FORMAT", "json")
	defer restore()

	writer := ProvideOutputWriter()

	_, ok := writer.(*output.JSONWriter)
	assert.True(t, ok, "при BR_OUTPUT_FORMAT=json должен возвращаться JSONWriter")
}

func TestProvideOutputWriter_DefaultFormat(t *testing.T) {
	restore := withEnvVar(t, "BR_OUTPUT_FORMAT", "")
	defer restore()

	writer := ProvideOutputWriter()

	_, ok := writer.(*output.TextWriter)
	assert.True(t, ok, "без BR_OUTPUT_FORMAT должен возвращаться TextWriter")
}

// TestProvideTraceID_Uniqueness проверяет уникальность и формат trace_id.
func TestProvideTraceID_Uniqueness(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	const iterations = 100
	traceIDs := make(map[string]struct{}, iterations)

	for range iterations {
		id := ProvideTraceID()
		assert.Regexp(t, hexPattern, id)
		traceIDs[id] = struct{}{}
	}

	assert.Len(t, traceIDs, iterations, "Все trace_id должны быть уникальными")
}

func TestProvideHubClient_DefaultURL(t *testing.T) {
	client, err := ProvideHubClient(&config.Config{}, testLogger())

	require.NoError(t, err)
	httpClient, ok := client.(*hub.HTTPClient)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:3000", httpClient.BaseURL())
}

func TestProvideHubClient_FromConfig(t *testing.T) {
	cfg := &config.Config{HubConfig: &config.HubConfig{
		URL:            "https://hub.example.com",
		HealthTimeout:  time.Second,
		RequestTimeout: 2 * time.Second,
	}}

	client, err := ProvideHubClient(cfg, testLogger())

	require.NoError(t, err)
	assert.Equal(t, "https://hub.example.com", client.(*hub.HTTPClient).BaseURL())
}

// TestProvideHubClient_InvalidURL проверяет что некорректный адрес даёт ошибку конфигурации.
func TestProvideHubClient_InvalidURL(t *testing.T) {
	cfg := &config.Config{HubConfig: &config.HubConfig{URL: "ftp://hub"}}

	client, err := ProvideHubClient(cfg, testLogger())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Equal(t, apperrors.ErrConfigValidate, apperrors.CodeOf(err))
}

func TestProvideEmbedder(t *testing.T) {
	tests := []struct {
		name   string
		cfg    *config.Config
		source string
	}{
		{"nil config", nil, "constant"},
		{"nil embedding config", &config.Config{}, "constant"},
		{"constant", &config.Config{EmbeddingConfig: &config.EmbeddingConfig{Source: config.EmbeddingSourceConstant}}, "constant"},
		{"openai", &config.Config{EmbeddingConfig: &config.EmbeddingConfig{
			Source:       config.EmbeddingSourceOpenAI,
			OpenAIAPIKey: "sk-test",
		}}, "openai"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := ProvideEmbedder(tt.cfg)
			require.NotNil(t, embedder)
			assert.Equal(t, tt.source, embedder.Source())
		})
	}
}

func TestProvideHistoryStore_MemoryByDefault(t *testing.T) {
	store := ProvideHistoryStore(&config.Config{HistoryConfig: &config.HistoryConfig{}}, testLogger())

	_, ok := store.(*history.MemoryStore)
	assert.True(t, ok, "без BR_REDIS_ADDR должно использоваться хранилище в памяти")
}

func TestProvideHistoryStore_Redis(t *testing.T) {
	cfg := &config.Config{HistoryConfig: &config.HistoryConfig{
		RedisAddr: "127.0.0.1:6379",
		KeyPrefix: "test",
		TTL:       time.Hour,
	}}

	store := ProvideHistoryStore(cfg, testLogger())
	defer func() { _ = store.Close() }() //nolint:errcheck // test cleanup

	redisStore, ok := store.(*history.RedisStore)
	require.True(t, ok)
	assert.Equal(t, "test:last:mvp", redisStore.Key("mvp"))
}

// TestProvideAlerter_NilConfig проверяет что nil Config возвращает NopAlerter.
func TestProvideAlerter_NilConfig(t *testing.T) {
	result := ProvideAlerter(nil, testLogger())

	_, ok := result.(*alerting.NopAlerter)
	assert.True(t, ok, "при nil Config должен возвращаться NopAlerter")
}

// TestProvideAlerter_DisabledReturnsNop проверяет что Enabled=false возвращает NopAlerter.
func TestProvideAlerter_DisabledReturnsNop(t *testing.T) {
	cfg := &config.Config{AlertingConfig: &config.AlertingConfig{Enabled: false}}

	result := ProvideAlerter(cfg, testLogger())

	_, ok := result.(*alerting.NopAlerter)
	assert.True(t, ok, "при Enabled=false должен возвращаться NopAlerter")
}

// TestProvideAlerter_EnabledWebhookReturnsMultiChannel проверяет маппинг полей конфигурации.
func TestProvideAlerter_EnabledWebhookReturnsMultiChannel(t *testing.T) {
	cfg := &config.Config{
		AlertingConfig: &config.AlertingConfig{
			Enabled:         true,
			RateLimitWindow: 10 * time.Minute,
			Webhook: config.WebhookChannelConfig{
				Enabled:    true,
				URLs:       []string{"https://hooks.example.com/smoke"},
				Timeout:    time.Second,
				MaxRetries: 1,
			},
		},
	}

	result := ProvideAlerter(cfg, testLogger())

	_, ok := result.(*alerting.MultiChannelAlerter)
	assert.True(t, ok, "при Enabled=true с webhook каналом должен возвращаться MultiChannelAlerter")
}

// TestProvideAlerter_ValidationErrorReturnsNop проверяет что ошибка валидации возвращает NopAlerter.
func TestProvideAlerter_ValidationErrorReturnsNop(t *testing.T) {
	cfg := &config.Config{
		AlertingConfig: &config.AlertingConfig{
			Enabled: true,
			Telegram: config.TelegramChannelConfig{
				Enabled: true,
				ChatIDs: []string{"12345"},
			},
		},
	}

	result := ProvideAlerter(cfg, testLogger())

	_, ok := result.(*alerting.NopAlerter)
	assert.True(t, ok, "при ошибке валидации должен возвращаться NopAlerter")
}

// TestProvideMetricsCollector_DisabledReturnsNop проверяет что Enabled=false возвращает NopCollector.
func TestProvideMetricsCollector_DisabledReturnsNop(t *testing.T) {
	cfg := &config.Config{MetricsConfig: &config.MetricsConfig{Enabled: false}}

	result := ProvideMetricsCollector(cfg, testLogger())

	_, ok := result.(*metrics.NopCollector)
	assert.True(t, ok, "при Enabled=false должен возвращаться NopCollector")
}

func TestProvideMetricsCollector_Enabled(t *testing.T) {
	cfg := &config.Config{MetricsConfig: &config.MetricsConfig{
		Enabled:        true,
		PushgatewayURL: "http://pushgateway:9091",
		JobName:        "aihub-smoke",
		Timeout:        time.Second,
	}}

	result := ProvideMetricsCollector(cfg, testLogger())

	_, ok := result.(*metrics.PrometheusCollector)
	assert.True(t, ok, "при Enabled=true должен возвращаться PrometheusCollector")
}

func TestProvideTracerProvider_DisabledIsNop(t *testing.T) {
	shutdown := ProvideTracerProvider(&config.Config{TracingConfig: &config.TracingConfig{Enabled: false}}, testLogger())

	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

// TestProvideEmbedder_ImplementsInterface фиксирует, что оба embedder'а удовлетворяют smoke.Embedder.
func TestProvideEmbedder_ImplementsInterface(t *testing.T) {
	var _ smoke.Embedder = smoke.NewConstantEmbedder()
	var _ smoke.Embedder = smoke.NewOpenAIEmbedder("sk-test", "", "")
}
