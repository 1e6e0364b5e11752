package progress

import (
	"fmt"
	"io"
	"strings"
)

// barWidth — ширина полосы в символах.
const barWidth = 20

// TTYProgress печатает строки шагов и держит под ними строку состояния
// с полосой и текущим шагом. Строка состояния перерисовывается через \r.
type TTYProgress struct {
	out   io.Writer
	total int
	done  int
}

// NewTTYProgress создаёт TTYProgress.
func NewTTYProgress(out io.Writer) *TTYProgress {
	return &TTYProgress{out: out}
}

// Start печатает заголовок прогона.
func (p *TTYProgress) Start(scenario string, total int) {
	p.total = total
	p.done = 0
	_, _ = fmt.Fprintf(p.out, "▶ Сценарий %s: %d шагов\n", scenario, total)
}

// StepStarted рисует строку состояния для выполняемого шага.
func (p *TTYProgress) StepStarted(index int, name, detail string) {
	label := name
	if detail != "" {
		label += " «" + detail + "»"
	}
	_, _ = fmt.Fprintf(p.out, "\r%s %d/%d %s…\033[K", renderBar(p.done, p.total), index, p.total, label)
}

// StepFinished стирает строку состояния и печатает итог шага.
func (p *TTYProgress) StepFinished(index int, step Step) {
	p.done = index
	_, _ = fmt.Fprintf(p.out, "\r\033[K%s\n", formatLine(index, p.total, step))
}

// Finish стирает строку состояния.
func (p *TTYProgress) Finish() {
	_, _ = fmt.Fprint(p.out, "\r\033[K")
}

// renderBar рисует полосу "[=====>    ]". При done=0 стрелки нет.
func renderBar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = min(done*barWidth/total, barWidth)
	}
	var b strings.Builder
	b.WriteByte('[')
	for i := range barWidth {
		switch {
		case i < filled:
			b.WriteByte('=')
		case i == filled && filled > 0:
			b.WriteByte('>')
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(']')
	return b.String()
}
