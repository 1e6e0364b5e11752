// Package history хранит исход последнего прогона сценария.
// hub-watch сравнивает текущий исход с предыдущим и оповещает о переходах.
package history

import (
	"context"
	"time"
)

// Outcome — краткий исход прогона.
type Outcome struct {
	Scenario    string    `json:"scenario"`
	Success     bool      `json:"success"`
	ExitCode    int       `json:"exit_code"`
	Failed      int       `json:"failed"`
	FailedSteps []string  `json:"failed_steps,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Store — хранилище последнего исхода по имени сценария.
// Реализации безопасны для конкурентного использования.
type Store interface {
	// Last возвращает предыдущий исход или nil, если его нет.
	Last(ctx context.Context, scenario string) (*Outcome, error)
	// Save заменяет исход сценария.
	Save(ctx context.Context, o Outcome) error
	// Close освобождает ресурсы.
	Close() error
}

// Transition — смена состояния между двумя прогонами.
type Transition int

const (
	// TransitionNone — состояние не изменилось.
	TransitionNone Transition = iota
	// TransitionFailed — прогон перешёл из успешного в проваленный.
	TransitionFailed
	// TransitionRecovered — прогон перешёл из проваленного в успешный.
	TransitionRecovered
)

// String возвращает имя перехода для логов.
func (t Transition) String() string {
	switch t {
	case TransitionFailed:
		return "pass->fail"
	case TransitionRecovered:
		return "fail->pass"
	default:
		return "none"
	}
}

// Compare определяет переход. Отсутствие предыдущего исхода считается успехом,
// поэтому первый проваленный прогон тоже даёт TransitionFailed.
func Compare(prev *Outcome, cur Outcome) Transition {
	prevOK := prev == nil || prev.Success
	switch {
	case prevOK && !cur.Success:
		return TransitionFailed
	case !prevOK && cur.Success:
		return TransitionRecovered
	default:
		return TransitionNone
	}
}
