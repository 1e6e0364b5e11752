package shared

import (
	"context"
	"fmt"

	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/di"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

// ResolveApp возвращает App из контекста, а если main его не положил
// (тесты, прямой вызов Execute) — собирает новый через di.InitializeApp.
// release закрывает только собранный здесь App.
func ResolveApp(ctx context.Context, cfg *config.Config) (app *di.App, release func(), err error) {
	if app = di.AppFromContext(ctx); app != nil {
		return app, func() {}, nil
	}
	if cfg == nil {
		return nil, nil, apperrors.NewAppError(ErrConfigMissing, "конфигурация не может быть nil", nil)
	}
	app, err = di.InitializeApp(cfg)
	if err != nil {
		if apperrors.CodeOf(err) == "" {
			err = apperrors.NewAppError(ErrAppInit, fmt.Sprintf("инициализация зависимостей: %v", err), err)
		}
		return nil, nil, err
	}
	return app, func() { _ = app.Close(context.WithoutCancel(ctx)) }, nil //nolint:errcheck // best effort
}
