package help

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/aihub-smoke/internal/command"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/output"
	"github.com/Kargones/aihub-smoke/internal/pkg/testutil"
)

type fakeHandler struct{ name string }

func (h *fakeHandler) Name() string                                      { return h.name }
func (h *fakeHandler) Description() string                               { return "fake " + h.name }
func (h *fakeHandler) Execute(_ context.Context, _ *config.Config) error { return nil }

func TestMain(m *testing.M) {
	if err := RegisterCmd(); err != nil {
		panic(err)
	}
	command.RegisterWithAlias(&fakeHandler{name: "hub-fake"}, "fake-mvp")
	os.Exit(m.Run())
}

func TestHelpHandler_Name(t *testing.T) {
	h := &Handler{}
	assert.Equal(t, constants.ActHelp, h.Name())
	assert.Equal(t, "Вывод списка доступных команд", h.Description())
}

func TestHelpHandler_Registration(t *testing.T) {
	h, ok := command.Get(constants.ActHelp)
	require.True(t, ok)
	assert.IsType(t, &Handler{}, h)
}

func TestHelpHandler_Execute_TextOutput(t *testing.T) {
	t.Setenv("BR_OUTPUT_FORMAT", "text")

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = (&Handler{}).Execute(context.Background(), nil)
	})

	require.NoError(t, execErr)
	assert.Contains(t, out, "aihub-smoke — smoke-тесты REST API AI Hub")
	assert.Contains(t, out, "Вывод списка доступных команд")
	assert.Contains(t, out, "hub-fake")
	assert.Contains(t, out, "[устаревшее имя: fake-mvp]")
	assert.Contains(t, out, "Сценарии (BR_SCENARIO): demo, mvp")
	assert.Contains(t, out, "BR_OUTPUT_FORMAT=json")
	assert.Contains(t, out, "BR_DRY_RUN=true")
}

func TestHelpHandler_Execute_JSONOutput(t *testing.T) {
	t.Setenv("BR_OUTPUT_FORMAT", "json")

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = (&Handler{}).Execute(context.Background(), nil)
	})
	require.NoError(t, execErr)

	var result struct {
		output.Result
		Data Data `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), "stdout должен содержать валидный JSON")

	assert.Equal(t, output.StatusSuccess, result.Status)
	assert.Equal(t, constants.ActHelp, result.Command)
	require.NotNil(t, result.Metadata)
	assert.Equal(t, output.APIVersion, result.Metadata.APIVersion)
	assert.Len(t, result.Metadata.TraceID, 32)
	assert.Equal(t, []string{"demo", "mvp"}, result.Data.Scenarios)
}

// TestBuildData проверяет, что алиасы не выводятся отдельными командами.
func TestBuildData(t *testing.T) {
	data := buildData()

	names := make([]string, 0, len(data.Commands))
	for _, c := range data.Commands {
		names = append(names, c.Name)
		if c.Name == "hub-fake" {
			assert.Equal(t, "fake-mvp", c.DeprecatedAlias)
		}
	}
	assert.Contains(t, names, constants.ActHelp)
	assert.NotContains(t, names, "fake-mvp")
	assert.IsNonDecreasing(t, names)
}

func TestData_WriteText_Alignment(t *testing.T) {
	d := &Data{Commands: []CommandInfo{
		{Name: "help", Description: "a"},
		{Name: "hub-smoke", Description: "b", DeprecatedAlias: "test-mvp"},
	}}

	var buf bytes.Buffer
	require.NoError(t, d.writeText(&buf))

	assert.Contains(t, buf.String(), "  help       a\n")
	assert.Contains(t, buf.String(), "  hub-smoke  b [устаревшее имя: test-mvp]\n")
	assert.NotContains(t, buf.String(), "Сценарии", "пустой список сценариев не выводится")
}

func TestHelpHandler_PlanOnly(t *testing.T) {
	t.Setenv(constants.EnvPlanOnly, "true")

	var execErr error
	out := testutil.CaptureStdout(t, func() {
		execErr = (&Handler{}).Execute(context.Background(), nil)
	})

	require.NoError(t, execErr)
	assert.Equal(t, "Команда help не поддерживает отображение плана операций\n", out)
}
