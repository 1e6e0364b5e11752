// Package main содержит точку входа aihub-smoke: smoke-тесты REST API AI Hub.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Kargones/aihub-smoke/internal/command"
	"github.com/Kargones/aihub-smoke/internal/command/handlers"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/di"
	"github.com/Kargones/aihub-smoke/internal/pkg/tracing"
)

// shutdownTimeout ограничивает закрытие App: flush трейсов и history store.
const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

// run содержит основную логику приложения и возвращает exit code.
// os.Exit вызывается в main, чтобы отработали все defer (span.End, app.Close).
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.MustLoad()
	if err != nil || cfg == nil {
		fmt.Fprintf(os.Stderr, "Не удалось загрузить конфигурацию приложения: %v\n", err)
		return constants.ExitConfig
	}
	cfg.Logger.Debug("Информация о сборке",
		slog.String("version", constants.Version),
		slog.String("commit", constants.Commit),
	)

	if err := handlers.RegisterAll(); err != nil {
		cfg.Logger.Error("ошибка регистрации команд", slog.String("error", err.Error()))
		return constants.ExitStepsFailed
	}
	return execute(ctx, cfg)
}

// execute выполняет команду cfg.Command. Команды должны быть зарегистрированы.
func execute(ctx context.Context, cfg *config.Config) int {
	// Пустая команда → help
	if cfg.Command == "" {
		cfg.Command = constants.ActHelp
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Не удалось инициализировать приложение: %v\n", err)
		return command.ExitCode(err)
	}
	l := app.Logger.With(slog.String("trace_id", app.TraceID), slog.String("command", cfg.Command))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := app.Close(shutdownCtx); err != nil {
			l.Error("ошибка завершения приложения", slog.String("error", err.Error()))
		}
	}()

	ctx = di.WithApp(ctx, app)
	ctx = tracing.WithTraceID(ctx, app.TraceID)
	ctx = tracing.ContextWithOTelTraceID(ctx, app.TraceID)

	ctx, span := otel.Tracer("aihub-smoke").Start(ctx, cfg.Command,
		trace.WithAttributes(
			attribute.String("command", cfg.Command),
			attribute.String("trace_id", app.TraceID),
		),
	)
	defer span.End()

	handler, ok := command.Get(cfg.Command)
	if !ok {
		l.Error("неизвестная команда",
			slog.String("BR_COMMAND", cfg.Command),
			slog.String(constants.MsgErrProcessing, constants.MsgAppExit),
		)
		fmt.Fprintf(os.Stderr, "Неизвестная команда %q, список команд: help\n", cfg.Command)
		return constants.ExitUnknownCommand
	}

	l.Debug("Выполнение команды")
	execErr := handler.Execute(ctx, cfg)

	// Ошибки push логируются внутри коллектора.
	_ = app.MetricsCollector.Push(context.WithoutCancel(ctx)) //nolint:errcheck // см. выше

	if execErr != nil {
		span.RecordError(execErr)
		l.Error("Ошибка выполнения команды",
			slog.String("error", execErr.Error()),
			slog.String(constants.MsgErrProcessing, constants.MsgAppExit),
		)
		return command.ExitCode(execErr)
	}
	return constants.ExitOK
}
