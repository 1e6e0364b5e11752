package smoke

import (
	"fmt"
	"io"
	"strings"

	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
)

// StepStatus — исход шага.
type StepStatus string

const (
	StatusPass StepStatus = "pass"
	StatusFail StepStatus = "fail"
	StatusSkip StepStatus = "skip"
)

// StepResult — результат одного HTTP шага.
type StepResult struct {
	// Name — идентификатор шага (health, auth, create_prompt, ...).
	Name string `json:"name"`
	// Detail — уточнение: заголовок промпта, вид негативной проверки.
	Detail     string     `json:"detail,omitempty"`
	Status     StepStatus `json:"status"`
	HTTPStatus int        `json:"http_status,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	Message    string     `json:"message,omitempty"`
	ErrorCode  string     `json:"error_code,omitempty"`
	// Fatal — провал health, после которого дальнейшие шаги бессмысленны.
	Fatal bool `json:"fatal,omitempty"`
}

// Report — итог прогона сценария. Реализует output.TextRenderer.
type Report struct {
	Scenario string `json:"scenario"`
	// BaseURL — адрес AI Hub без учётных данных.
	BaseURL string       `json:"base_url"`
	User    string       `json:"user"`
	Strict  bool         `json:"strict"`
	Steps   []StepResult `json:"steps"`

	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`

	// CreatedPrompts — id созданных промптов.
	CreatedPrompts []string `json:"created_prompts,omitempty"`
	// VectorStoreID — id созданного хранилища.
	VectorStoreID string `json:"vector_store_id,omitempty"`
	// PromptCount — число промптов в GET /api/prompts, -1 если шаг не выполнен.
	PromptCount  int      `json:"prompt_count"`
	PromptTitles []string `json:"prompt_titles,omitempty"`

	// FatalStep — имя шага, провал которого остановил прогон.
	FatalStep string `json:"fatal_step,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Success   bool   `json:"success"`
	ExitCode  int    `json:"exit_code"`

	DurationMs int64 `json:"duration_ms"`
}

func (r *Report) add(res StepResult) {
	r.Steps = append(r.Steps, res)
	switch res.Status {
	case StatusPass:
		r.Passed++
	case StatusFail:
		r.Failed++
		if res.Fatal && r.FatalStep == "" {
			r.FatalStep = res.Name
		}
	case StatusSkip:
		r.Skipped++
	}
}

// finalize вычисляет Success и ExitCode.
// Провал health даёт 1 независимо от strict. Остальные провалы, включая auth,
// дают 8 только в strict режиме.
func (r *Report) finalize() {
	switch {
	case r.FatalStep != "":
		r.Success = false
		r.ExitCode = constants.ExitFatal
	case r.Cancelled:
		r.Success = false
		r.ExitCode = constants.ExitStepsFailed
	case r.Failed > 0:
		r.Success = false
		if r.Strict {
			r.ExitCode = constants.ExitStepsFailed
		} else {
			r.ExitCode = constants.ExitOK
		}
	default:
		r.Success = true
		r.ExitCode = constants.ExitOK
	}
}

// FailedSteps возвращает имена проваленных шагов с уточнением.
func (r *Report) FailedSteps() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Status != StatusFail {
			continue
		}
		name := s.Name
		if s.Detail != "" {
			name += " (" + s.Detail + ")"
		}
		out = append(out, name)
	}
	return out
}

// Err возвращает ошибку, соответствующую ExitCode, или nil.
func (r *Report) Err() error {
	switch {
	case r.FatalStep != "":
		return apperrors.NewAppError(apperrors.ErrSmokeFatal,
			fmt.Sprintf("провалено предусловие %s: %s", r.FatalStep, r.stepMessage(r.FatalStep)), nil)
	case r.Cancelled:
		return apperrors.NewAppError(apperrors.ErrCommandExec, "прогон прерван", nil)
	case r.Failed > 0 && r.Strict:
		return apperrors.NewAppError(apperrors.ErrSmokeFailed,
			fmt.Sprintf("провалено шагов: %d (%s)", r.Failed, strings.Join(r.FailedSteps(), ", ")), nil)
	default:
		return nil
	}
}

func (r *Report) stepMessage(name string) string {
	for _, s := range r.Steps {
		if s.Name == name && s.Status == StatusFail {
			if s.ErrorCode != "" {
				return fmt.Sprintf("[%s] %s", s.ErrorCode, s.Message)
			}
			return s.Message
		}
	}
	return ""
}

// Summary строит блок сводки для output.Result.
func (r *Report) Summary() *output.SummaryInfo {
	s := output.NewSummaryInfo()
	s.AddMetric("Шагов пройдено", fmt.Sprintf("%d из %d", r.Passed, len(r.Steps)), "")
	if r.Failed > 0 {
		s.AddMetric("Шагов провалено", fmt.Sprintf("%d", r.Failed), "")
	}
	if r.Skipped > 0 {
		s.AddMetric("Шагов пропущено", fmt.Sprintf("%d", r.Skipped), "")
	}
	s.AddMetric("Промптов создано", fmt.Sprintf("%d", len(r.CreatedPrompts)), "")
	if r.PromptCount >= 0 {
		s.AddMetric("Промптов в AI Hub", fmt.Sprintf("%d", r.PromptCount), "")
	}
	if !r.Strict && r.FatalStep == "" {
		for _, name := range r.FailedSteps() {
			s.AddWarning("шаг провален без влияния на код завершения: " + name)
		}
	}
	return s
}

// WriteText выводит итог прогона. Построчный ход шагов печатает progress.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nСценарий: %s\nAI Hub: %s\n", r.Scenario, r.BaseURL)
	if r.User != "" {
		fmt.Fprintf(&b, "Пользователь: %s\n", r.User)
	}

	if r.PromptCount >= 0 {
		fmt.Fprintf(&b, "Промптов в AI Hub: %d\n", r.PromptCount)
		for _, t := range r.PromptTitles {
			fmt.Fprintf(&b, "  • %s\n", t)
		}
	}
	if r.VectorStoreID != "" {
		fmt.Fprintf(&b, "Векторное хранилище: %s\n", r.VectorStoreID)
	}

	failed := false
	for _, s := range r.Steps {
		if s.Status != StatusFail {
			continue
		}
		if !failed {
			b.WriteString("\nПроваленные шаги:\n")
			failed = true
		}
		name := s.Name
		if s.Detail != "" {
			name += " «" + s.Detail + "»"
		}
		fmt.Fprintf(&b, "  ❌ %s", name)
		if s.ErrorCode != "" {
			fmt.Fprintf(&b, " [%s]", s.ErrorCode)
		}
		if s.Message != "" {
			fmt.Fprintf(&b, ": %s", s.Message)
		}
		b.WriteString("\n")
	}

	verdict := "✅ AI Hub работает"
	switch {
	case r.FatalStep != "":
		verdict = "❌ Провалено предусловие: " + r.FatalStep
	case r.Cancelled:
		verdict = "⚠️  Прогон прерван"
	case r.Failed > 0:
		verdict = fmt.Sprintf("❌ Провалено шагов: %d", r.Failed)
	}
	fmt.Fprintf(&b, "\n%s (пройдено %d, провалено %d, пропущено %d)\n", verdict, r.Passed, r.Failed, r.Skipped)

	_, err := io.WriteString(w, b.String())
	return err
}
