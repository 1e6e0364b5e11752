// Package output форматирует результаты команд в JSON и текст.
package output

// Возможные значения Result.Status.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// APIVersion — версия формата вывода.
const APIVersion = "v1"

// Result — структурированный результат выполнения команды.
// При BR_OUTPUT_FORMAT=json сериализуется целиком, при text
// выводится построчно через TextWriter.
type Result struct {
	Status  string `json:"status"`
	Command string `json:"command"`

	// Data — payload конкретной команды. Если Data реализует TextRenderer,
	// TextWriter выводит его сам вместо JSON-дампа.
	Data any `json:"data,omitempty"`

	Error    *ErrorInfo `json:"error,omitempty"`
	Metadata *Metadata  `json:"metadata,omitempty"`

	DryRun   bool      `json:"dry_run,omitempty"`
	PlanOnly bool      `json:"plan_only,omitempty"`
	Plan     *PlanInfo `json:"plan,omitempty"`

	// Summary в JSON попадает через Metadata.Summary (см. JSONWriter).
	Summary *SummaryInfo `json:"-"`
}

// ErrorInfo — ошибка в машиночитаемом виде.
// Message НЕ ДОЛЖЕН содержать секреты.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Metadata — метаданные выполнения.
type Metadata struct {
	DurationMs int64        `json:"duration_ms"`
	TraceID    string       `json:"trace_id,omitempty"`
	APIVersion string       `json:"api_version"`
	Summary    *SummaryInfo `json:"summary,omitempty"`
}

// SummaryInfo — сводка для блока "Сводка" в тексте и metadata.summary в JSON.
type SummaryInfo struct {
	KeyMetrics    []KeyMetric `json:"key_metrics,omitempty"`
	WarningsCount int         `json:"warnings_count"`
	Warnings      []string    `json:"warnings,omitempty"`
}

// KeyMetric — одна ключевая метрика ("Шагов пройдено": "7 из 9").
type KeyMetric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// NewSummaryInfo создаёт пустую сводку.
func NewSummaryInfo() *SummaryInfo {
	return &SummaryInfo{
		KeyMetrics: make([]KeyMetric, 0),
		Warnings:   make([]string, 0),
	}
}

// AddMetric добавляет метрику.
func (s *SummaryInfo) AddMetric(name, value, unit string) {
	s.KeyMetrics = append(s.KeyMetrics, KeyMetric{Name: name, Value: value, Unit: unit})
}

// AddWarning добавляет предупреждение.
func (s *SummaryInfo) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
	s.WarningsCount++
}
