package config

import (
	"log/slog"

	"github.com/ilyakaznacheev/cleanenv"
)

// loadSection накладывает переменные окружения на секцию AppConfig, если она
// задана (present), иначе на значения по умолчанию. Ошибка чтения окружения
// только логируется: секции observability не должны мешать запуску.
func loadSection[T any](l *slog.Logger, name string, fromApp *T, present bool, defaults func() *T) *T {
	section, source := defaults(), "defaults"
	if present && fromApp != nil {
		section, source = fromApp, "AppConfig"
	}
	if err := cleanenv.ReadEnv(section); err != nil {
		l.Warn("Ошибка чтения конфигурации из переменных окружения",
			slog.String("section", name),
			slog.String("error", err.Error()),
		)
	}
	l.Debug("Конфигурация загружена",
		slog.String("section", name),
		slog.String("source", source),
	)
	return section
}
