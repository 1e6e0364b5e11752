// Package version реализует команду version: версия сборки и таблица
// соответствия команд именам исходных скриптов.
package version

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/Kargones/aihub-smoke/internal/command"
	"github.com/Kargones/aihub-smoke/internal/command/handlers/shared"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/dryrun"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
)

// RegisterCmd регистрирует команду version.
func RegisterCmd() error {
	return command.TryRegister(&VersionHandler{}, "")
}

// VersionData содержит информацию о версии приложения.
type VersionData struct {
	// Version — полная версия приложения.
	Version string `json:"version"`

	// GoVersion — версия Go, использованная при сборке.
	GoVersion string `json:"go_version"`

	// Commit — хеш коммита на момент сборки.
	Commit string `json:"commit"`

	// AliasMapping — команды, у которых есть устаревшие имена.
	AliasMapping []AliasEntry `json:"alias_mapping"`
}

// AliasEntry связывает команду с её устаревшим именем.
type AliasEntry struct {
	Command string `json:"command"`
	Alias   string `json:"alias"`
}

// writeText выводит информацию о версии в человекочитаемом формате.
func (d *VersionData) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "aihub-smoke version %s\n  Go:     %s\n  Commit: %s\n",
		d.Version, d.GoVersion, d.Commit)
	if err != nil {
		return err
	}

	if len(d.AliasMapping) == 0 {
		return nil
	}
	if _, err = fmt.Fprintln(w, "\nУстаревшие имена:"); err != nil {
		return err
	}
	for _, entry := range d.AliasMapping {
		if _, err = fmt.Fprintf(w, "  %-12s → %s\n", entry.Alias, entry.Command); err != nil {
			return err
		}
	}
	return nil
}

// buildVersionData создаёт VersionData с fallback значениями.
// Если version пустой — используется "dev", если commit пустой — "unknown".
func buildVersionData(version, commit string) *VersionData {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	return &VersionData{
		Version:      version,
		GoVersion:    runtime.Version(),
		Commit:       commit,
		AliasMapping: buildAliasMapping(),
	}
}

func buildAliasMapping() []AliasEntry {
	entries := make([]AliasEntry, 0)
	for _, cmd := range command.ListAllWithAliases() {
		if cmd.DeprecatedAlias == "" {
			continue
		}
		entries = append(entries, AliasEntry{Command: cmd.Name, Alias: cmd.DeprecatedAlias})
	}
	return entries
}

// VersionHandler обрабатывает команду version.
type VersionHandler struct{}

// Name возвращает имя команды.
func (h *VersionHandler) Name() string {
	return constants.ActVersion
}

// Description возвращает описание команды для вывода в help.
func (h *VersionHandler) Description() string {
	return "Вывод информации о версии приложения"
}

// Execute собирает данные о версии и выводит результат.
func (h *VersionHandler) Execute(ctx context.Context, _ *config.Config) error {
	start := time.Now()

	if !dryrun.IsDryRun() && dryrun.IsPlanOnly() {
		return dryrun.WritePlanOnlyUnsupported(os.Stdout, constants.ActVersion)
	}

	versionData := buildVersionData(constants.Version, constants.Commit)
	format := shared.Format()

	// Текстовый вывод версии компактный, metadata только в JSON.
	if format != output.FormatJSON {
		return versionData.writeText(os.Stdout)
	}

	result := &output.Result{
		Status:  output.StatusSuccess,
		Command: constants.ActVersion,
		Data:    versionData,
		Metadata: &output.Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    shared.TraceID(ctx),
			APIVersion: output.APIVersion,
		},
	}
	return output.NewWriter(format).Write(os.Stdout, result)
}
