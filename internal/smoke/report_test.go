package smoke

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

func reportWith(strict bool, steps ...StepResult) *Report {
	r := &Report{Scenario: "mvp", BaseURL: "http://localhost:3000", Strict: strict, PromptCount: -1}
	for _, s := range steps {
		r.add(s)
	}
	r.finalize()
	return r
}

func TestReport_ExitCodes(t *testing.T) {
	pass := StepResult{Name: StepHealth, Status: StatusPass}
	fail := StepResult{Name: StepCreatePrompt, Detail: "A", Status: StatusFail, ErrorCode: "HUB.UNEXPECTED_STATUS"}
	fatal := StepResult{Name: StepHealth, Status: StatusFail, Fatal: true, ErrorCode: "HUB.UNREACHABLE", Message: "connection refused"}
	authFail := StepResult{Name: StepAuth, Status: StatusFail, ErrorCode: "AUTH.REJECTED", Message: "HTTP 401"}

	tests := []struct {
		name     string
		report   *Report
		wantExit int
		wantCode string
	}{
		{name: "all pass", report: reportWith(true, pass), wantExit: constants.ExitOK},
		{name: "strict failure", report: reportWith(true, pass, fail), wantExit: constants.ExitStepsFailed, wantCode: apperrors.ErrSmokeFailed},
		{name: "lenient failure", report: reportWith(false, pass, fail), wantExit: constants.ExitOK},
		{name: "fatal strict", report: reportWith(true, pass, fatal), wantExit: constants.ExitFatal, wantCode: apperrors.ErrSmokeFatal},
		{name: "fatal lenient", report: reportWith(false, pass, fatal), wantExit: constants.ExitFatal, wantCode: apperrors.ErrSmokeFatal},
		{name: "auth strict", report: reportWith(true, pass, authFail), wantExit: constants.ExitStepsFailed, wantCode: apperrors.ErrSmokeFailed},
		{name: "auth lenient", report: reportWith(false, pass, authFail), wantExit: constants.ExitOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExit, tt.report.ExitCode)
			assert.Equal(t, tt.wantCode, apperrors.CodeOf(tt.report.Err()))
		})
	}
}

func TestReport_FatalErrorMessage(t *testing.T) {
	r := reportWith(true, StepResult{Name: StepHealth, Status: StatusFail, Fatal: true, ErrorCode: "HUB.UNREACHABLE", Message: "connection refused"})
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "[HUB.UNREACHABLE] connection refused")
	assert.Equal(t, StepHealth, r.FatalStep)
}

func TestReport_Counts(t *testing.T) {
	r := reportWith(true,
		StepResult{Name: "a", Status: StatusPass},
		StepResult{Name: "b", Status: StatusFail},
		StepResult{Name: "c", Status: StatusSkip},
		StepResult{Name: "d", Status: StatusSkip},
	)
	assert.Equal(t, 1, r.Passed)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 2, r.Skipped)
	assert.Equal(t, []string{"b"}, r.FailedSteps())
}

func TestReport_WriteText(t *testing.T) {
	r := reportWith(true,
		StepResult{Name: StepHealth, Status: StatusPass},
		StepResult{Name: StepCreatePrompt, Detail: "Data Analysis Helper", Status: StatusFail,
			ErrorCode: "HUB.UNEXPECTED_STATUS", Message: "HTTP 500"},
	)
	r.PromptCount = 2
	r.PromptTitles = []string{"Code Review Assistant", "Creative Writing Prompt"}
	r.VectorStoreID = "vs-1"

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "Сценарий: mvp")
	assert.Contains(t, out, "Промптов в AI Hub: 2")
	assert.Contains(t, out, "• Code Review Assistant")
	assert.Contains(t, out, "Векторное хранилище: vs-1")
	assert.Contains(t, out, "❌ create_prompt «Data Analysis Helper» [HUB.UNEXPECTED_STATUS]: HTTP 500")
	assert.Contains(t, out, "Провалено шагов: 1")
}

func TestReport_WriteTextSuccess(t *testing.T) {
	r := reportWith(true, StepResult{Name: StepHealth, Status: StatusPass})
	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), "✅ AI Hub работает")
	assert.NotContains(t, buf.String(), "Проваленные шаги")
	assert.NotContains(t, buf.String(), "Промптов в AI Hub")
}

func TestReport_Summary(t *testing.T) {
	r := reportWith(false,
		StepResult{Name: StepHealth, Status: StatusPass},
		StepResult{Name: StepListPrompts, Status: StatusFail},
	)
	s := r.Summary()
	assert.Equal(t, "Шагов пройдено", s.KeyMetrics[0].Name)
	assert.Equal(t, "1 из 2", s.KeyMetrics[0].Value)
	assert.Equal(t, 1, s.WarningsCount)
	assert.Contains(t, s.Warnings[0], StepListPrompts)
}

func TestReport_JSONShape(t *testing.T) {
	r := reportWith(true, StepResult{Name: StepHealth, Status: StatusPass, HTTPStatus: 200, DurationMs: 3})
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "mvp", m["scenario"])
	assert.Equal(t, true, m["success"])
	assert.EqualValues(t, 0, m["exit_code"])
	steps := m["steps"].([]any)
	require.Len(t, steps, 1)
	step := steps[0].(map[string]any)
	assert.Equal(t, "pass", step["status"])
	assert.EqualValues(t, 200, step["http_status"])
	assert.NotContains(t, step, "fatal")
}
