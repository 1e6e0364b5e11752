// Package hubtest предоставляет тестовые утилиты для пакета hub.
//
// # MockClient
//
// MockClient реализует hub.Client через функциональные поля. Незаданное поле
// возвращает успешный ответ с тестовыми данными.
//
//	mock := hubtest.NewMockClient()
//	mock.HealthFunc = func(ctx context.Context) (*hub.Health, error) {
//	    return nil, hub.NewHubError(hub.ErrHubUnreachable, "down", nil)
//	}
//
// # Server
//
// Server — поддельный AI Hub на gin, запущенный через httptest. Хранит
// пользователей, промпты и векторные хранилища в памяти и повторяет форму
// ответов настоящего сервера. Поддерживает внедрение сбоев:
//   - SetHealthy(false) — /api/health отвечает 503
//   - ForceStatus(method, path, status) — маршрут отвечает заданным статусом
//
//	srv := hubtest.NewServer(t)
//	client, _ := hub.NewClient(hub.Options{BaseURL: srv.URL()})
package hubtest
