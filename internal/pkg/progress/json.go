package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Event — JSON-lines событие прогресса.
type Event struct {
	// Type — "run_start", "step_start", "step_end" или "run_end".
	Type       string `json:"type"`
	Scenario   string `json:"scenario,omitempty"`
	Index      int    `json:"index,omitempty"`
	Total      int    `json:"total,omitempty"`
	Step       string `json:"step,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Status     string `json:"status,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// JSONProgress пишет события в формате JSON-lines для автоматизации.
type JSONProgress struct {
	encoder *json.Encoder
	start   time.Time
	total   int
}

// NewJSONProgress создаёт JSONProgress.
func NewJSONProgress(out io.Writer) *JSONProgress {
	return &JSONProgress{encoder: json.NewEncoder(out)}
}

// Start пишет событие run_start.
func (p *JSONProgress) Start(scenario string, total int) {
	p.start = time.Now()
	p.total = total
	p.emit(Event{Type: "run_start", Scenario: scenario, Total: total})
}

// StepStarted пишет событие step_start.
func (p *JSONProgress) StepStarted(index int, name, detail string) {
	p.emit(Event{Type: "step_start", Index: index, Total: p.total, Step: name, Detail: detail})
}

// StepFinished пишет событие step_end.
func (p *JSONProgress) StepFinished(index int, step Step) {
	p.emit(Event{
		Type:       "step_end",
		Index:      index,
		Total:      p.total,
		Step:       step.Name,
		Detail:     step.Detail,
		Status:     step.Status,
		HTTPStatus: step.HTTPStatus,
		Code:       step.Code,
		Message:    step.Message,
		DurationMs: step.Duration.Milliseconds(),
	})
}

// Finish пишет событие run_end с общей длительностью.
func (p *JSONProgress) Finish() {
	p.emit(Event{Type: "run_end", DurationMs: time.Since(p.start).Milliseconds()})
}

func (p *JSONProgress) emit(e Event) {
	if err := p.encoder.Encode(e); err != nil {
		fmt.Fprintf(os.Stderr, "progress: encode error: %v\n", err) //nolint:errcheck // writing to stderr
	}
}
