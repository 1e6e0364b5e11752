// Package smokehandler реализует команды hub-smoke и hub-demo:
// однократный прогон сценария против AI Hub.
package smokehandler

import (
	"context"
	"time"

	"github.com/Kargones/aihub-smoke/internal/command"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/shared"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/progress"
)

// RegisterCmd регистрирует hub-smoke и hub-demo вместе с именами исходных скриптов.
func RegisterCmd() error {
	if err := command.TryRegister(NewSmoke(), constants.ActTestMVP); err != nil {
		return err
	}
	return command.TryRegister(NewDemo(), constants.ActDemoMVP)
}

// SmokeHandler выполняет один прогон сценария.
type SmokeHandler struct {
	name        string
	scenario    string
	description string
}

// NewSmoke создаёт обработчик hub-smoke: полный сценарий mvp.
func NewSmoke() *SmokeHandler {
	return &SmokeHandler{
		name:        constants.ActHubSmoke,
		scenario:    constants.ScenarioMVP,
		description: "Полный smoke-прогон AI Hub: health, auth, промпты, векторное хранилище",
	}
}

// NewDemo создаёт обработчик hub-demo: короткий сценарий demo.
func NewDemo() *SmokeHandler {
	return &SmokeHandler{
		name:        constants.ActHubDemo,
		scenario:    constants.ScenarioDemo,
		description: "Быстрая демонстрация AI Hub: health, auth, промпты и их список",
	}
}

// Name возвращает имя команды.
func (h *SmokeHandler) Name() string {
	return h.name
}

// Description возвращает описание команды для вывода в help.
func (h *SmokeHandler) Description() string {
	return h.description
}

// Execute загружает сценарий, выполняет его и выводит отчёт.
// Ошибка несёт код, по которому main выбирает exit code.
func (h *SmokeHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	traceID := shared.TraceID(ctx)
	format := shared.Format()

	scn, err := shared.LoadScenario(cfg, h.scenario)
	if err != nil {
		return shared.WriteError(format, h.name, traceID, start, err)
	}

	app, release, err := shared.ResolveApp(ctx, cfg)
	if err != nil {
		return shared.WriteError(format, h.name, traceID, start, err)
	}
	defer release()

	log := app.Logger.With("command", h.name, "trace_id", traceID)
	runner := shared.NewRunner(app, cfg, progress.New(progress.Options{Format: format}))

	if handled, err := shared.WritePlan(format, h.name, traceID, start, shared.HubTarget(app), runner.Plan(scn)); handled || err != nil {
		return err
	}

	report := runner.Run(ctx, scn)
	app.MetricsCollector.RecordCommandEnd(h.name, report.Scenario, time.Since(start), report.Success)

	if report.FatalStep != "" {
		_ = app.Alerter.Send(ctx, shared.ReportAlert(h.name, traceID, report.BaseURL, report)) //nolint:errcheck // Send всегда nil
	}

	if err := shared.WriteReport(format, h.name, traceID, start, report); err != nil {
		log.Error("Не удалось вывести отчёт", "error", err)
		return apperrors.NewAppError(apperrors.ErrOutputFormat, "не удалось вывести отчёт", err)
	}
	return report.Err()
}
