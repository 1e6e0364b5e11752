// Package command содержит интерфейс обработчика команды и реестр команд aihub-smoke.
// Обработчики регистрируются через RegisterCmd() своих пакетов,
// вызываемые из handlers.RegisterAll().
package command

import (
	"context"

	"github.com/Kargones/aihub-smoke/internal/config"
)

// Handler определяет интерфейс обработчика команды.
type Handler interface {
	// Name возвращает имя команды, совпадающее с константой из internal/constants
	// (например, "hub-smoke").
	Name() string

	// Description возвращает описание команды для вывода в help.
	Description() string

	// Execute выполняет команду. Ошибка с кодом apperrors определяет exit code процесса.
	Execute(ctx context.Context, cfg *config.Config) error
}
