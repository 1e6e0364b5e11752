// Package smoketest содержит тесты системной целостности aihub-smoke.
//
// Проверяется:
//   - регистрация всех команд в глобальном реестре
//   - устаревшие имена test-mvp и demo-mvp (DeprecatedBridge)
//   - JSON вывод каждой команды в dry-run режиме
//
// Это НЕ unit-тесты отдельных handlers. Unit-тесты находятся в пакетах handlers.
//
// Запуск: go test ./internal/smoketest/...
package smoketest
