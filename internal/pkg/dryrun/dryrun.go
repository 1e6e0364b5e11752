// Package dryrun — режимы выполнения без реальных HTTP-вызовов.
// В dry-run и plan-only режимах команды выводят план запросов к AI Hub.
package dryrun

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
)

// Режимы выполнения в порядке приоритета.
const (
	ModeDryRun   = "dry-run"
	ModePlanOnly = "plan-only"
	ModeVerbose  = "verbose"
	ModeNormal   = "normal"
)

// secretParams — параметры плана, значения которых маскируются.
var secretParams = map[string]struct{}{
	"password":      {},
	"token":         {},
	"authorization": {},
	"api_key":       {},
}

// IsDryRun — BR_DRY_RUN равен "true" или "1".
func IsDryRun() bool { return envFlag(constants.EnvDryRun) }

// IsPlanOnly — BR_PLAN_ONLY равен "true" или "1".
func IsPlanOnly() bool { return envFlag(constants.EnvPlanOnly) }

// IsVerbose — BR_VERBOSE равен "true" или "1". В verbose режиме план
// выводится перед реальным выполнением.
func IsVerbose() bool { return envFlag(constants.EnvVerbose) }

// EffectiveMode возвращает режим с наибольшим приоритетом:
// dry-run > plan-only > verbose > normal.
func EffectiveMode() string {
	switch {
	case IsDryRun():
		return ModeDryRun
	case IsPlanOnly():
		return ModePlanOnly
	case IsVerbose():
		return ModeVerbose
	default:
		return ModeNormal
	}
}

func envFlag(name string) bool {
	val := os.Getenv(name)
	return strings.EqualFold(val, "true") || val == "1"
}

// WritePlanOnlyUnsupported сообщает, что команда не выполняет HTTP-вызовов
// и плана у неё нет.
func WritePlanOnlyUnsupported(w io.Writer, command string) error {
	_, err := fmt.Fprintf(w, "Команда %s не поддерживает отображение плана операций\n", command)
	return err
}

// BuildPlan собирает план, маскируя секреты в параметрах шагов.
func BuildPlan(command, target string, steps []output.PlanStep) *output.PlanInfo {
	active := 0
	for i := range steps {
		steps[i].Parameters = MaskParameters(steps[i].Parameters)
		if !steps[i].Skipped {
			active++
		}
	}
	return &output.PlanInfo{
		Command: command,
		Target:  target,
		Steps:   steps,
		Summary: fmt.Sprintf("%d HTTP-вызовов, пропущено %d", active, len(steps)-active),
	}
}

// MaskParameters возвращает копию params с замаскированными секретами.
func MaskParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if _, ok := secretParams[strings.ToLower(k)]; ok {
			out[k] = MaskSecret(fmt.Sprint(v))
			continue
		}
		out[k] = v
	}
	return out
}

// MaskSecret заменяет непустое значение на "***".
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
