package shared

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/di"
	"github.com/Kargones/aihub-smoke/internal/pkg/alerting"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/dryrun"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/pkg/progress"
	"github.com/Kargones/aihub-smoke/internal/pkg/tracing"
	"github.com/Kargones/aihub-smoke/internal/smoke"
)

// TraceID возвращает trace_id из контекста или генерирует новый.
func TraceID(ctx context.Context) string {
	if id := tracing.TraceIDFromContext(ctx); id != "" {
		return id
	}
	return tracing.GenerateTraceID()
}

// Format возвращает BR_OUTPUT_FORMAT.
func Format() string {
	return os.Getenv("BR_OUTPUT_FORMAT")
}

// ScenarioName возвращает имя сценария: BR_SCENARIO или сценарий команды.
func ScenarioName(cfg *config.Config, def string) string {
	if cfg != nil && cfg.SmokeConfig != nil && cfg.SmokeConfig.Scenario != "" {
		return cfg.SmokeConfig.Scenario
	}
	return def
}

// LoadScenario загружает сценарий из BR_SCENARIO_FILE или встроенный.
func LoadScenario(cfg *config.Config, def string) (*smoke.Scenario, error) {
	var path string
	if cfg != nil && cfg.SmokeConfig != nil {
		path = cfg.SmokeConfig.ScenarioFile
	}
	return smoke.LoadScenario(ScenarioName(cfg, def), path)
}

// RunnerOptions переносит SmokeConfig в параметры прогона.
// Без SmokeConfig прогон строгий, как при BR_SMOKE_STRICT по умолчанию.
func RunnerOptions(cfg *config.Config) smoke.Options {
	if cfg == nil || cfg.SmokeConfig == nil {
		return smoke.Options{Strict: true}
	}
	sc := cfg.SmokeConfig
	return smoke.Options{
		Strict:       sc.Strict,
		Cleanup:      sc.Cleanup,
		FreshUser:    sc.FreshUser,
		NegativeAuth: sc.NegativeAuth,
		Email:        sc.Email,
		Password:     sc.Password,
	}
}

// NewRunner собирает Runner из зависимостей App.
func NewRunner(app *di.App, cfg *config.Config, prog progress.Progress) *smoke.Runner {
	return smoke.NewRunner(app.HubClient, app.Embedder, app.MetricsCollector, app.Logger, prog, RunnerOptions(cfg))
}

// HubTarget — адрес AI Hub для плана и алертов, без учётных данных.
func HubTarget(app *di.App) string {
	if b, ok := app.HubClient.(interface{ BaseURL() string }); ok {
		return b.BaseURL()
	}
	return ""
}

// WritePlan выводит план HTTP-вызовов в dry-run и plan-only режимах и
// возвращает handled=true. В verbose режиме план печатается перед
// выполнением, handled=false. dry-run имеет приоритет над plan-only.
func WritePlan(format, command, traceID string, start time.Time, target string, steps []output.PlanStep) (handled bool, err error) {
	plan := dryrun.BuildPlan(command, target, steps)
	switch dryrun.EffectiveMode() {
	case dryrun.ModeDryRun:
		return true, output.WriteDryRunResult(os.Stdout, format, traceID, start, plan)
	case dryrun.ModePlanOnly:
		return true, output.WritePlanOnlyResult(os.Stdout, format, traceID, start, plan)
	case dryrun.ModeVerbose:
		if format != output.FormatJSON {
			return false, plan.WritePlanText(os.Stdout)
		}
	}
	return false, nil
}

// WriteError выводит ошибку команды и возвращает err без изменений,
// чтобы main вычислил по нему exit code.
func WriteError(format, command, traceID string, start time.Time, err error) error {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = apperrors.ErrCommandExec
	}
	message := errorMessage(err)

	if format != output.FormatJSON {
		_ = writeTextError(os.Stdout, message, code) //nolint:errcheck // err возвращается ниже
		return err
	}

	result := &output.Result{
		Status:  output.StatusError,
		Command: command,
		Error: &output.ErrorInfo{
			Code:    code,
			Message: message,
		},
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: output.APIVersion,
		},
	}
	_ = output.NewWriter(format).Write(os.Stdout, result) //nolint:errcheck // err возвращается ниже
	return err
}

// WriteReport выводит отчёт прогона как output.Result.
// Status "error", если прогон завершается ненулевым кодом.
func WriteReport(format, command, traceID string, start time.Time, report *smoke.Report) error {
	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: command,
		Data:    report,
		Summary: report.Summary(),
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: output.APIVersion,
		},
	}
	if err := report.Err(); err != nil {
		result.Status = output.StatusError
		result.Error = &output.ErrorInfo{Code: apperrors.CodeOf(err), Message: errorMessage(err)}
	}
	return output.NewWriter(format).Write(os.Stdout, result)
}

// ReportAlert строит алерт о провале прогона.
// Провал предусловия критичен, провал отдельных шагов — предупреждение.
func ReportAlert(command, traceID, target string, report *smoke.Report) alerting.Alert {
	alert := alerting.Alert{
		ErrorCode:   apperrors.ErrSmokeFailed,
		Severity:    alerting.SeverityWarning,
		TraceID:     traceID,
		Timestamp:   time.Now(),
		Command:     command,
		Scenario:    report.Scenario,
		Target:      target,
		FailedSteps: report.FailedSteps(),
	}
	if report.FatalStep != "" {
		alert.ErrorCode = apperrors.ErrSmokeFatal
		alert.Severity = alerting.SeverityCritical
	}
	if err := report.Err(); err != nil {
		alert.Message = errorMessage(err)
	}
	if alert.Message == "" {
		alert.Message = "провалены шаги: " + strings.Join(alert.FailedSteps, ", ")
	}
	return alert
}

// errorMessage возвращает сообщение AppError без кода и причины.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
