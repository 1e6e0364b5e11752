// Package progress показывает ход smoke-прогона по шагам.
// Режимы: построчный вывод, TTY со строкой состояния и JSON-lines поток.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Статусы шага, совпадают со статусами отчёта smoke.
const (
	StatusPass = "pass"
	StatusFail = "fail"
	StatusSkip = "skip"
)

// Step — завершённый шаг прогона.
type Step struct {
	Name       string
	Detail     string
	Status     string
	HTTPStatus int
	Code       string
	Message    string
	Duration   time.Duration
}

// Progress получает события прогона. Реализации не потокобезопасны:
// шаги одного прогона выполняются последовательно.
type Progress interface {
	// Start вызывается перед первым шагом. total — число шагов плана.
	Start(scenario string, total int)
	// StepStarted вызывается перед выполнением шага index (с 1).
	StepStarted(index int, name, detail string)
	// StepFinished вызывается после шага, в том числе пропущенного.
	StepFinished(index int, step Step)
	// Finish вызывается после последнего шага.
	Finish()
}

// Options конфигурирует вывод прогресса.
type Options struct {
	// Output — куда выводить. nil — os.Stdout для текста, os.Stderr для JSON.
	Output io.Writer
	// Format — BR_OUTPUT_FORMAT.
	Format string
}

// IsTTY проверяет, является ли writer терминалом.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// statusIcon — значок статуса для текстового вывода.
func statusIcon(status string) string {
	switch status {
	case StatusPass:
		return "✅"
	case StatusFail:
		return "❌"
	default:
		return "⏭️ "
	}
}

// formatLine форматирует итоговую строку шага:
// "[3/9] ✅ create_prompt «Code Review Assistant» HTTP 201 (12ms)".
func formatLine(index, total int, s Step) string {
	line := fmt.Sprintf("[%d/%d] %s %s", index, total, statusIcon(s.Status), s.Name)
	if s.Detail != "" {
		line += " «" + s.Detail + "»"
	}
	if s.HTTPStatus > 0 {
		line += fmt.Sprintf(" HTTP %d", s.HTTPStatus)
	}
	if s.Status != StatusSkip {
		line += fmt.Sprintf(" (%s)", FormatDuration(s.Duration))
	}
	switch {
	case s.Code != "" && s.Message != "":
		line += fmt.Sprintf(": [%s] %s", s.Code, s.Message)
	case s.Message != "":
		line += ": " + s.Message
	}
	return line
}

// FormatDuration форматирует длительность шага: "850ms", "2.5s", "1m 5s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
