// Package watchhandler реализует команду hub-watch: smoke-прогон по
// cron-расписанию с оповещением о переходах pass→fail и fail→pass.
package watchhandler

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Kargones/aihub-smoke/internal/command"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/shared"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/di"
	"github.com/Kargones/aihub-smoke/internal/pkg/alerting"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/logging"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/pkg/progress"
	"github.com/Kargones/aihub-smoke/internal/smoke"
	"github.com/Kargones/aihub-smoke/internal/smoke/history"
)

// RegisterCmd регистрирует hub-watch.
func RegisterCmd() error {
	return command.TryRegister(&WatchHandler{}, "")
}

// Data — итог работы hub-watch.
type Data struct {
	Scenario     string   `json:"scenario"`
	Schedule     string   `json:"schedule"`
	Runs         int      `json:"runs"`
	Failures     int      `json:"failures"`
	LastExitCode int      `json:"last_exit_code"`
	Transitions  []string `json:"transitions,omitempty"`
	// StoppedBy — "signal" или "max_runs".
	StoppedBy string `json:"stopped_by"`
}

// WriteText выводит итог в человекочитаемом виде.
func (d *Data) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Сценарий: %s\nРасписание: %s\nПрогонов: %d, из них с провалами: %d\n",
		d.Scenario, d.Schedule, d.Runs, d.Failures)
	for _, t := range d.Transitions {
		fmt.Fprintf(&b, "  • %s\n", t)
	}
	fmt.Fprintf(&b, "Остановлен: %s\n", d.StoppedBy)
	_, err := io.WriteString(w, b.String())
	return err
}

// WatchHandler обрабатывает команду hub-watch.
type WatchHandler struct{}

// Name возвращает имя команды.
func (h *WatchHandler) Name() string {
	return constants.ActHubWatch
}

// Description возвращает описание команды для вывода в help.
func (h *WatchHandler) Description() string {
	return "Smoke-прогон по расписанию с алертами при смене состояния"
}

// Execute запускает планировщик и блокируется до сигнала или BR_WATCH_MAX_RUNS прогонов.
// Остановка по сигналу — штатное завершение. При достижении MaxRuns
// возвращается ошибка последнего прогона.
func (h *WatchHandler) Execute(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	traceID := shared.TraceID(ctx)
	format := shared.Format()

	watchCfg := &config.WatchConfig{Schedule: "@every 5m"}
	if cfg != nil && cfg.WatchConfig != nil {
		watchCfg = cfg.WatchConfig
	}

	schedule, err := cron.ParseStandard(watchCfg.Schedule)
	if err != nil {
		return shared.WriteError(format, h.Name(), traceID, start,
			apperrors.NewAppError(shared.ErrWatchSchedule,
				fmt.Sprintf("некорректное расписание %q: %v", watchCfg.Schedule, err), err))
	}

	scn, err := shared.LoadScenario(cfg, constants.ScenarioMVP)
	if err != nil {
		return shared.WriteError(format, h.Name(), traceID, start, err)
	}

	app, release, err := shared.ResolveApp(ctx, cfg)
	if err != nil {
		return shared.WriteError(format, h.Name(), traceID, start, err)
	}
	defer release()

	runner := shared.NewRunner(app, cfg, progress.New(progress.Options{Format: format}))
	if handled, err := shared.WritePlan(format, h.Name(), traceID, start, shared.HubTarget(app), runner.Plan(scn)); handled || err != nil {
		return err
	}

	w := newWatcher(app, runner, scn, traceID, watchCfg.MaxRuns)
	log := app.Logger.With("command", h.Name(), "trace_id", traceID, "scenario", scn.Name)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})))
	c.Schedule(schedule, cron.FuncJob(func() { w.runOnce(ctx) }))

	log.Info("Запуск наблюдения", "schedule", watchCfg.Schedule, "max_runs", watchCfg.MaxRuns)
	if watchCfg.RunOnStart {
		w.runOnce(ctx)
	}
	c.Start()

	stoppedBy := "max_runs"
	select {
	case <-ctx.Done():
		stoppedBy = "signal"
	case <-w.done:
	}
	<-c.Stop().Done()
	data := w.data(watchCfg.Schedule, stoppedBy)
	log.Info("Наблюдение остановлено", "stopped_by", stoppedBy, "runs", data.Runs)

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: h.Name(),
		Data:    data,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: output.APIVersion,
		},
	}
	if err := output.NewWriter(format).Write(os.Stdout, result); err != nil {
		return apperrors.NewAppError(apperrors.ErrOutputFormat, "не удалось вывести результат", err)
	}

	if last := w.lastReport(); stoppedBy == "max_runs" && last != nil {
		return last.Err()
	}
	return nil
}

// watcher выполняет прогоны и хранит их итоги.
// runOnce может вызываться из планировщика и из Execute, поэтому состояние под mu.
type watcher struct {
	app      *di.App
	runner   *smoke.Runner
	scn      *smoke.Scenario
	traceID  string
	maxRuns  int
	done     chan struct{}
	doneOnce sync.Once

	mu          sync.Mutex
	runs        int
	failures    int
	last        *smoke.Report
	transitions []string
}

func newWatcher(app *di.App, runner *smoke.Runner, scn *smoke.Scenario, traceID string, maxRuns int) *watcher {
	return &watcher{
		app:     app,
		runner:  runner,
		scn:     scn,
		traceID: traceID,
		maxRuns: maxRuns,
		done:    make(chan struct{}),
	}
}

func (w *watcher) finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// runOnce выполняет прогон, сравнивает исход с предыдущим и алертит о переходе.
func (w *watcher) runOnce(ctx context.Context) {
	if w.finished() || ctx.Err() != nil {
		return
	}
	log := w.app.Logger.With("command", constants.ActHubWatch, "trace_id", w.traceID, "scenario", w.scn.Name)

	start := time.Now()
	report := w.runner.Run(ctx, w.scn)
	w.app.MetricsCollector.RecordCommandEnd(constants.ActHubWatch, report.Scenario, time.Since(start), report.Success)
	if err := w.app.MetricsCollector.Push(ctx); err != nil {
		log.Warn("Не удалось отправить метрики", "error", err)
	}
	if report.Cancelled {
		log.Info("Прогон прерван остановкой, исход не сохраняется")
		return
	}

	outcome := history.Outcome{
		Scenario:    report.Scenario,
		Success:     report.Success,
		ExitCode:    report.ExitCode,
		Failed:      report.Failed,
		FailedSteps: report.FailedSteps(),
		FinishedAt:  time.Now(),
	}
	prev, err := w.app.HistoryStore.Last(ctx, report.Scenario)
	if err != nil {
		log.Warn("Не удалось прочитать предыдущий исход", "error", err)
	}
	transition := history.Compare(prev, outcome)
	if err := w.app.HistoryStore.Save(ctx, outcome); err != nil {
		log.Warn("Не удалось сохранить исход", "error", err)
	}

	target := report.BaseURL
	switch transition {
	case history.TransitionFailed:
		_ = w.app.Alerter.Send(ctx, shared.ReportAlert(constants.ActHubWatch, w.traceID, target, report)) //nolint:errcheck // Send всегда nil
	case history.TransitionRecovered:
		_ = w.app.Alerter.Send(ctx, alerting.Alert{ //nolint:errcheck // Send всегда nil
			ErrorCode: apperrors.ErrSmokeFailed,
			Message:   "все шаги сценария снова проходят",
			TraceID:   w.traceID,
			Timestamp: time.Now(),
			Command:   constants.ActHubWatch,
			Scenario:  report.Scenario,
			Target:    target,
			Severity:  alerting.SeverityInfo,
			Resolved:  true,
		})
	}

	w.mu.Lock()
	w.runs++
	if !report.Success {
		w.failures++
	}
	w.last = report
	if transition != history.TransitionNone {
		w.transitions = append(w.transitions, fmt.Sprintf("прогон %d: %s", w.runs, transition))
	}
	runs := w.runs
	w.mu.Unlock()

	log.Info("Прогон завершён",
		"run", runs,
		"success", report.Success,
		"exit_code", report.ExitCode,
		"transition", transition.String())

	if w.maxRuns > 0 && runs >= w.maxRuns {
		w.doneOnce.Do(func() { close(w.done) })
	}
}

func (w *watcher) lastReport() *smoke.Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func (w *watcher) data(schedule, stoppedBy string) *Data {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := &Data{
		Scenario:    w.scn.Name,
		Schedule:    schedule,
		Runs:        w.runs,
		Failures:    w.failures,
		Transitions: w.transitions,
		StoppedBy:   stoppedBy,
	}
	if w.last != nil {
		d.LastExitCode = w.last.ExitCode
	}
	return d
}

// cronLogger направляет сообщения планировщика в Logger приложения.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
