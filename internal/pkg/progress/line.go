package progress

import (
	"fmt"
	"io"
)

// LineProgress печатает одну строку на завершённый шаг. Подходит для CI и pipe.
type LineProgress struct {
	out   io.Writer
	total int
}

// NewLineProgress создаёт LineProgress.
func NewLineProgress(out io.Writer) *LineProgress {
	return &LineProgress{out: out}
}

// Start печатает заголовок прогона.
func (p *LineProgress) Start(scenario string, total int) {
	p.total = total
	_, _ = fmt.Fprintf(p.out, "▶ Сценарий %s: %d шагов\n", scenario, total)
}

// StepStarted ничего не печатает: строка появляется по завершении шага.
func (p *LineProgress) StepStarted(int, string, string) {}

// StepFinished печатает строку шага.
func (p *LineProgress) StepFinished(index int, step Step) {
	_, _ = fmt.Fprintln(p.out, formatLine(index, p.total, step))
}

// Finish ничего не делает.
func (p *LineProgress) Finish() {}
