package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// PlanInfo — план HTTP-вызовов для dry-run и plan-only режимов.
type PlanInfo struct {
	Command string     `json:"command"`
	Target  string     `json:"target"`
	Steps   []PlanStep `json:"steps"`
	Summary string     `json:"summary,omitempty"`
}

// PlanStep — один запланированный вызов.
type PlanStep struct {
	Order      int            `json:"order"`
	Operation  string         `json:"operation"`
	Method     string         `json:"method,omitempty"`
	Path       string         `json:"path,omitempty"`
	Auth       bool           `json:"auth,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Skipped    bool           `json:"skipped,omitempty"`
	SkipReason string         `json:"skip_reason,omitempty"`
}

// WriteText выводит план с заголовком "=== DRY RUN ===".
func (p *PlanInfo) WriteText(w io.Writer) error {
	return p.writeText(w, "=== DRY RUN ===", "=== END DRY RUN ===")
}

// WritePlanText выводит план с заголовком "=== OPERATION PLAN ===".
func (p *PlanInfo) WritePlanText(w io.Writer) error {
	return p.writeText(w, "=== OPERATION PLAN ===", "=== END OPERATION PLAN ===")
}

func (p *PlanInfo) writeText(w io.Writer, header, footer string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nКоманда: %s\nAI Hub: %s\n\nПлан выполнения:\n", header, p.Command, p.Target)

	for _, step := range p.Steps {
		if step.Skipped {
			fmt.Fprintf(&b, "  %d. [SKIP] %s: %s\n", step.Order, step.Operation, step.SkipReason)
			continue
		}
		auth := ""
		if step.Auth {
			auth = " 🔑"
		}
		fmt.Fprintf(&b, "  %d. %s %s %s%s\n", step.Order, step.Operation, step.Method, step.Path, auth)

		keys := make([]string, 0, len(step.Parameters))
		for k := range step.Parameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "      %s: %s\n", k, sanitizeValue(step.Parameters[k]))
		}
	}

	if p.Summary != "" {
		fmt.Fprintf(&b, "\nИтого: %s\n", p.Summary)
	}
	b.WriteString(footer + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDryRunResult пишет результат dry-run режима.
func WriteDryRunResult(w io.Writer, format, traceID string, start time.Time, plan *PlanInfo) error {
	return writePlanResult(w, format, traceID, start, plan, false)
}

// WritePlanOnlyResult пишет результат plan-only режима.
func WritePlanOnlyResult(w io.Writer, format, traceID string, start time.Time, plan *PlanInfo) error {
	return writePlanResult(w, format, traceID, start, plan, true)
}

func writePlanResult(w io.Writer, format, traceID string, start time.Time, plan *PlanInfo, planOnly bool) error {
	if !strings.EqualFold(format, FormatJSON) {
		if planOnly {
			return plan.WritePlanText(w)
		}
		return plan.WriteText(w)
	}

	result := &Result{
		Status:   StatusSuccess,
		Command:  plan.Command,
		Plan:     plan,
		DryRun:   !planOnly,
		PlanOnly: planOnly,
		Metadata: &Metadata{
			DurationMs: time.Since(start).Milliseconds(),
			TraceID:    traceID,
			APIVersion: APIVersion,
		},
	}
	return NewJSONWriter().Write(w, result)
}

// sanitizeValue убирает ANSI escape-последовательности и управляющие
// символы, чтобы значения из сценария не ломали терминал.
func sanitizeValue(v any) string {
	s := fmt.Sprintf("%v", v)
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEscape = false
			}
			continue
		}
		switch {
		case r == '\n' || r == '\t':
			out.WriteRune(' ')
		case r < 32 || r == 127:
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
