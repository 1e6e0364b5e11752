// Package shared содержит общие компоненты для всех command handlers.
package shared

// Коды ошибок уровня команд, не покрытые apperrors.
const (
	// ErrConfigMissing — отсутствует необходимая конфигурация.
	ErrConfigMissing = "CONFIG.MISSING"
	// ErrWatchSchedule — cron выражение hub-watch не разбирается.
	ErrWatchSchedule = "CONFIG.WATCH_SCHEDULE_INVALID"
	// ErrAppInit — не удалось собрать зависимости приложения.
	ErrAppInit = "CONFIG.APP_INIT_FAILED"
)
