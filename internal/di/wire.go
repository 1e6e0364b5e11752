//go:build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Kargones/aihub-smoke/internal/config"
)

//go:generate wire

// ProviderSet объединяет все провайдеры приложения.
// После изменения набора: go generate ./internal/di/...
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideOutputWriter,
	ProvideTraceID,
	ProvideHubClient,
	ProvideEmbedder,
	ProvideHistoryStore,
	ProvideAlerter,
	ProvideMetricsCollector,
	ProvideTracerProvider,
	wire.Struct(new(App), "*"),
)

// InitializeApp собирает App из Config. main кладёт результат в context
// через WithApp, обработчики команд достают его оттуда.
//
//	app, err := di.InitializeApp(cfg)
//	if err != nil {
//	    return command.ExitCode(err)
//	}
//	defer app.Close(ctx)
//	ctx = di.WithApp(ctx, app)
func InitializeApp(cfg *config.Config) (*App, error) {
	wire.Build(ProviderSet)
	return nil, nil // Wire заменит это на реальную реализацию
}
