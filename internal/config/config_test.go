package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestMustLoad_Defaults(t *testing.T) {
	t.Setenv("BR_COMMAND", "hub-smoke")
	t.Setenv("BR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := MustLoad()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "hub-smoke", cfg.Command)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.NotNil(t, cfg.Logger)
	assert.Nil(t, cfg.AppConfig)

	assert.Equal(t, "http://localhost:3000", cfg.HubConfig.URL)
	assert.Equal(t, 5*time.Second, cfg.HubConfig.HealthTimeout)
	assert.Equal(t, 30*time.Second, cfg.HubConfig.RequestTimeout)

	assert.True(t, cfg.SmokeConfig.Strict)
	assert.False(t, cfg.SmokeConfig.Cleanup)
	assert.False(t, cfg.SmokeConfig.FreshUser)

	assert.Equal(t, EmbeddingSourceConstant, cfg.EmbeddingConfig.Source)
	assert.Equal(t, "@every 5m", cfg.WatchConfig.Schedule)
	assert.Equal(t, "aihub-smoke", cfg.HistoryConfig.KeyPrefix)
	assert.Empty(t, cfg.HistoryConfig.RedisAddr)

	assert.Equal(t, "info", cfg.LoggingConfig.Level)
	assert.False(t, cfg.MetricsConfig.Enabled)
	assert.False(t, cfg.TracingConfig.Enabled)
	assert.False(t, cfg.AlertingConfig.Enabled)
	assert.Equal(t, "INFO", cfg.AlertingConfig.Rules.MinSeverity)
}

func TestMustLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("BR_HUB_URL", "https://hub.example.com")
	t.Setenv("BR_HUB_HEALTH_TIMEOUT", "2s")
	t.Setenv("BR_SMOKE_STRICT", "false")
	t.Setenv("BR_SMOKE_CLEANUP", "true")
	t.Setenv("BR_SMOKE_FRESH_USER", "true")
	t.Setenv("BR_REDIS_ADDR", "localhost:6379")

	cfg, err := MustLoad()
	require.NoError(t, err)

	assert.Equal(t, "https://hub.example.com", cfg.HubConfig.URL)
	assert.Equal(t, 2*time.Second, cfg.HubConfig.HealthTimeout)
	assert.False(t, cfg.SmokeConfig.Strict)
	assert.True(t, cfg.SmokeConfig.Cleanup)
	assert.True(t, cfg.SmokeConfig.FreshUser)
	assert.Equal(t, "localhost:6379", cfg.HistoryConfig.RedisAddr)
}

func TestMustLoad_EnvFile(t *testing.T) {
	envPath := writeFile(t, ".env", "BR_WATCH_SCHEDULE=@every 1m\n")
	t.Setenv("BR_ENV_FILE", envPath)
	// godotenv выставляет переменную через os.Setenv, t.Setenv её не откатит.
	t.Cleanup(func() { _ = os.Unsetenv("BR_WATCH_SCHEDULE") })

	cfg, err := MustLoad()
	require.NoError(t, err)
	assert.Equal(t, "@every 1m", cfg.WatchConfig.Schedule)
}

func TestMustLoad_AppConfigFile(t *testing.T) {
	yamlPath := writeFile(t, "app.yaml", `
hub:
  url: http://hub.internal:3000
  healthTimeout: 3s
smoke:
  strict: false
  cleanup: true
logging:
  level: debug
  format: json
alerting:
  enabled: true
  webhook:
    enabled: true
    urls: ["https://hooks.example.com/smoke"]
  rules:
    minSeverity: CRITICAL
`)
	t.Setenv("BR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("BR_CONFIG_FILE", yamlPath)
	t.Setenv("BR_LOG_FORMAT", "text")

	cfg, err := MustLoad()
	require.NoError(t, err)
	require.NotNil(t, cfg.AppConfig)

	assert.Equal(t, "http://hub.internal:3000", cfg.HubConfig.URL)
	assert.Equal(t, 3*time.Second, cfg.HubConfig.HealthTimeout)
	assert.Equal(t, 30*time.Second, cfg.HubConfig.RequestTimeout, "незаданное поле получает default")

	assert.False(t, cfg.SmokeConfig.Strict)
	assert.True(t, cfg.SmokeConfig.Cleanup)

	assert.Equal(t, "debug", cfg.LoggingConfig.Level)
	assert.Equal(t, "text", cfg.LoggingConfig.Format, "env перекрывает YAML")

	assert.True(t, cfg.AlertingConfig.Enabled)
	assert.Equal(t, []string{"https://hooks.example.com/smoke"}, cfg.AlertingConfig.Webhook.URLs)
	assert.Equal(t, 3, cfg.AlertingConfig.Webhook.MaxRetries)
	assert.Equal(t, "CRITICAL", cfg.AlertingConfig.Rules.MinSeverity)
}

func TestMustLoad_StrictEnvBeatsYAML(t *testing.T) {
	yamlPath := writeFile(t, "app.yaml", "smoke:\n  strict: false\n")
	t.Setenv("BR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("BR_CONFIG_FILE", yamlPath)
	t.Setenv("BR_SMOKE_STRICT", "true")

	cfg, err := MustLoad()
	require.NoError(t, err)
	assert.True(t, cfg.SmokeConfig.Strict)
}

func TestMustLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		yaml    string
		wantErr error
	}{
		{
			name:    "hub url без схемы",
			env:     map[string]string{"BR_HUB_URL": "localhost:3000"},
			wantErr: ErrHubURLInvalid,
		},
		{
			name:    "нулевой таймаут",
			env:     map[string]string{"BR_HUB_TIMEOUT": "0s"},
			wantErr: ErrHubTimeoutInvalid,
		},
		{
			name:    "openai без ключа",
			env:     map[string]string{"BR_EMBEDDING_SOURCE": "openai"},
			wantErr: ErrOpenAIKeyRequired,
		},
		{
			name:    "неизвестный источник эмбеддингов",
			env:     map[string]string{"BR_EMBEDDING_SOURCE": "random"},
			wantErr: ErrEmbeddingSource,
		},
		{
			name:    "отрицательный maxRuns",
			env:     map[string]string{"BR_WATCH_MAX_RUNS": "-1"},
			wantErr: ErrWatchMaxRunsInvalid,
		},
		{
			name:    "strict не bool",
			yaml:    "smoke:\n  strict: maybe\n",
			wantErr: ErrStrictModeInvalid,
		},
		{
			name: "неизвестный ключ YAML",
			yaml: "hub:\n  adress: http://x\n",
		},
		{
			name: "трейсинг без endpoint",
			env:  map[string]string{"BR_TRACING_ENABLED": "true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.yaml != "" {
				t.Setenv("BR_CONFIG_FILE", writeFile(t, "app.yaml", tt.yaml))
			}

			cfg, err := MustLoad()
			require.Error(t, err)
			assert.Nil(t, cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMustLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("BR_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("BR_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := MustLoad()
	require.Error(t, err)
}

func TestParseAppConfig_Empty(t *testing.T) {
	appConfig, err := parseAppConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, HubConfig{}, appConfig.Hub)
}

func TestValidateTracingConfig(t *testing.T) {
	valid := getDefaultTracingConfig()
	valid.Enabled = true
	valid.Endpoint = "http://jaeger:4318"
	require.NoError(t, validateTracingConfig(valid))

	badRate := *valid
	badRate.SamplingRate = 1.5
	assert.Error(t, validateTracingConfig(&badRate))

	noName := *valid
	noName.ServiceName = ""
	assert.Error(t, validateTracingConfig(&noName))

	assert.NoError(t, validateTracingConfig(getDefaultTracingConfig()))
}

func TestValidateMetricsConfig(t *testing.T) {
	mc := getDefaultMetricsConfig()
	assert.NoError(t, validateMetricsConfig(mc))

	mc.Enabled = true
	assert.Error(t, validateMetricsConfig(mc))

	mc.PushgatewayURL = "http://pushgateway:9091"
	assert.NoError(t, validateMetricsConfig(mc))
}

func TestAlertingConfig_ToAlertingConfig(t *testing.T) {
	ac := getDefaultAlertingConfig()
	ac.Enabled = true
	ac.Telegram.Enabled = true
	ac.Telegram.BotToken = "123:abc"
	ac.Telegram.ChatIDs = []string{"-100200"}
	ac.NATS.Enabled = true
	ac.NATS.URL = "nats://localhost:4222"

	require.NoError(t, validateAlertingConfig(ac))

	converted := ac.ToAlertingConfig()
	assert.True(t, converted.Enabled)
	assert.Equal(t, "123:abc", converted.Telegram.BotToken)
	assert.Equal(t, []string{"-100200"}, converted.Telegram.ChatIDs)
	assert.Equal(t, "nats://localhost:4222", converted.NATS.URL)
	assert.Equal(t, "aihub.smoke.alerts", converted.NATS.Subject)
	assert.NoError(t, converted.Validate())
}

func TestValidateAlertingConfig_MissingFields(t *testing.T) {
	ac := getDefaultAlertingConfig()
	ac.Enabled = true
	ac.NATS.Enabled = true
	assert.Error(t, validateAlertingConfig(ac))

	ac.NATS.Enabled = false
	ac.Webhook.Enabled = true
	assert.Error(t, validateAlertingConfig(ac))
}
