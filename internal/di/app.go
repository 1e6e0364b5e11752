package di

import (
	"context"
	"errors"
	"io"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/pkg/alerting"
	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/metrics"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/smoke"
	"github.com/Kargones/aihub-smoke/internal/smoke/history"
)

// App содержит инициализированные зависимости приложения.
// Создаётся через Wire DI в InitializeApp().
//
// При добавлении новых зависимостей:
// 1. Добавить поле в App struct
// 2. Создать провайдер в providers.go
// 3. Добавить провайдер в ProviderSet в wire.go
// 4. Перегенерировать wire_gen.go: go generate ./internal/di/...
type App struct {
	// Config содержит конфигурацию приложения.
	// Передаётся извне через InitializeApp().
	Config *config.Config

	// Logger предоставляет структурированное логирование.
	// Создаётся через ProvideLogger на основе LoggingConfig.
	Logger logging.Logger

	// OutputWriter форматирует результаты команд.
	// Создаётся через ProvideOutputWriter на основе BR_OUTPUT_FORMAT.
	OutputWriter output.Writer

	// TraceID содержит уникальный идентификатор для корреляции логов.
	TraceID string

	// HubClient выполняет HTTP вызовы к AI Hub.
	HubClient hub.Client

	// Embedder строит вектор для шага add_embedding.
	// ConstantEmbedder или OpenAIEmbedder в зависимости от EmbeddingConfig.Source.
	Embedder smoke.Embedder

	// HistoryStore хранит исход последнего прогона для hub-watch.
	// Redis при заданном BR_REDIS_ADDR, иначе память процесса.
	HistoryStore history.Store

	// Alerter отправляет алерты о провалах прогонов.
	// Если алертинг отключён — используется NopAlerter.
	Alerter alerting.Alerter

	// MetricsCollector собирает и отправляет метрики в Prometheus Pushgateway.
	// Если метрики отключены — используется NopCollector.
	MetricsCollector metrics.Collector

	// TracerShutdown завершает OTel TracerProvider и отправляет буферизированные span-ы.
	// Если трейсинг отключён — nop function.
	TracerShutdown func(context.Context) error
}

// Close освобождает ресурсы App: хранилище истории, соединения алертинга
// и TracerProvider. Повторный вызов безопасен для всех реализаций.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.HistoryStore != nil {
		errs = append(errs, a.HistoryStore.Close())
	}
	if c, ok := a.Alerter.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if a.TracerShutdown != nil {
		errs = append(errs, a.TracerShutdown(ctx))
	}
	return errors.Join(errs...)
}

type appKey struct{}

// WithApp кладёт App в контекст. main передаёт так зависимости в handlers,
// сигнатура command.Handler при этом не меняется.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// AppFromContext возвращает App из контекста или nil.
func AppFromContext(ctx context.Context) *App {
	app, _ := ctx.Value(appKey{}).(*App) //nolint:errcheck // type assertion
	return app
}
