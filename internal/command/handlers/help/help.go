// Package help реализует команду help: список команд, сценариев и опций.
package help

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Kargones/aihub-smoke/internal/command"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/shared"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/dryrun"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/smoke"
)

// RegisterCmd регистрирует команду help.
func RegisterCmd() error {
	return command.TryRegister(&Handler{}, "")
}

// Data содержит информацию обо всех доступных командах.
type Data struct {
	Commands []CommandInfo `json:"commands"`
	// Scenarios — имена встроенных сценариев для BR_SCENARIO.
	Scenarios []string `json:"scenarios"`
}

// CommandInfo описывает одну команду.
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	// DeprecatedAlias — старое имя команды, если есть.
	DeprecatedAlias string `json:"deprecated_alias,omitempty"`
}

// Handler обрабатывает команду help.
type Handler struct{}

// Name возвращает имя команды.
func (h *Handler) Name() string {
	return constants.ActHelp
}

// Description возвращает описание команды для вывода в help.
func (h *Handler) Description() string {
	return "Вывод списка доступных команд"
}

// Execute собирает список команд и выводит результат.
func (h *Handler) Execute(ctx context.Context, _ *config.Config) error {
	// dry-run имеет приоритет над plan-only.
	if !dryrun.IsDryRun() && dryrun.IsPlanOnly() {
		return dryrun.WritePlanOnlyUnsupported(os.Stdout, constants.ActHelp)
	}

	start := time.Now()
	helpData := buildData()
	format := shared.Format()

	// Текстовый формат — специализированный вывод без metadata.
	if format != output.FormatJSON {
		return helpData.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActHelp,
		Data:    helpData,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    shared.TraceID(ctx),
			APIVersion: output.APIVersion,
		},
	}
	return output.NewWriter(format).Write(os.Stdout, result)
}

func buildData() *Data {
	data := &Data{Scenarios: smoke.BuiltinScenarios()}
	for _, info := range command.ListAllWithAliases() {
		data.Commands = append(data.Commands, CommandInfo{
			Name:            info.Name,
			Description:     info.Description,
			DeprecatedAlias: info.DeprecatedAlias,
		})
	}
	return data
}

// writeText выводит информацию о командах в человекочитаемом формате.
func (d *Data) writeText(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("aihub-smoke — smoke-тесты REST API AI Hub\n")
	sb.WriteString("\nКоманды (BR_COMMAND):\n")

	maxLen := 0
	for _, cmd := range d.Commands {
		maxLen = max(maxLen, len(cmd.Name))
	}
	for _, cmd := range d.Commands {
		desc := cmd.Description
		if cmd.DeprecatedAlias != "" {
			desc = fmt.Sprintf("%s [устаревшее имя: %s]", desc, cmd.DeprecatedAlias)
		}
		fmt.Fprintf(&sb, "  %-*s  %s\n", maxLen, cmd.Name, desc)
	}

	if len(d.Scenarios) > 0 {
		fmt.Fprintf(&sb, "\nСценарии (BR_SCENARIO): %s\n", strings.Join(d.Scenarios, ", "))
	}

	sb.WriteString("\nОпции:\n")
	sb.WriteString("  BR_HUB_URL=http://...     Адрес AI Hub (по умолчанию http://localhost:3000)\n")
	sb.WriteString("  BR_SCENARIO_FILE=path     YAML сценарий вместо встроенного\n")
	sb.WriteString("  BR_SMOKE_STRICT=false     Провал шага не меняет код завершения\n")
	sb.WriteString("  BR_SMOKE_CLEANUP=true     Удалить созданные ресурсы в конце прогона\n")
	sb.WriteString("  BR_OUTPUT_FORMAT=json     Машиночитаемый вывод\n")
	sb.WriteString("  BR_DRY_RUN=true           План HTTP-вызовов без выполнения\n")
	sb.WriteString("  BR_PLAN_ONLY=true         Только план операций\n")
	sb.WriteString("  BR_VERBOSE=true           План перед выполнением\n")

	sb.WriteString("\nКоды завершения: 0 успех, 1 провал health/auth, 2 неизвестная команда, 5 ошибка конфигурации, 8 провал шагов\n")

	_, err := fmt.Fprint(w, sb.String())
	return err
}
