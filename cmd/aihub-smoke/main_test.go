package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/aihub-smoke/internal/adapter/hub/hubtest"
	"github.com/Kargones/aihub-smoke/internal/command/handlers"
	"github.com/Kargones/aihub-smoke/internal/config"
	"github.com/Kargones/aihub-smoke/internal/constants"
	"github.com/Kargones/aihub-smoke/internal/pkg/testutil"
)

func TestMain(m *testing.M) {
	if err := handlers.RegisterAll(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func smokeConfig(command, url string, strict bool) *config.Config {
	return &config.Config{
		Command:     command,
		HubConfig:   &config.HubConfig{URL: url},
		SmokeConfig: &config.SmokeConfig{Strict: strict},
	}
}

func executeJSON(t *testing.T, cfg *config.Config) (int, map[string]any) {
	t.Helper()
	t.Setenv("BR_OUTPUT_FORMAT", "json")

	var code int
	out := testutil.CaptureStdout(t, func() {
		code = execute(context.Background(), cfg)
	})

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result), "stdout должен содержать только JSON: %s", out)
	return code, result
}

func TestExecute_EmptyCommandShowsHelp(t *testing.T) {
	t.Setenv("BR_OUTPUT_FORMAT", "text")
	cfg := &config.Config{}

	var code int
	out := testutil.CaptureStdout(t, func() {
		code = execute(context.Background(), cfg)
	})

	assert.Equal(t, constants.ExitOK, code)
	assert.Equal(t, constants.ActHelp, cfg.Command)
	assert.Contains(t, out, constants.ActHubSmoke)
}

func TestExecute_UnknownCommand(t *testing.T) {
	var code int
	stderr := testutil.CaptureStderr(t, func() {
		code = execute(context.Background(), &config.Config{Command: "no-such-command"})
	})

	assert.Equal(t, constants.ExitUnknownCommand, code)
	assert.Contains(t, stderr, "no-such-command")
}

func TestExecute_InvalidHubURL(t *testing.T) {
	var code int
	testutil.CaptureStderr(t, func() {
		code = execute(context.Background(), smokeConfig(constants.ActHubSmoke, "not a url", true))
	})

	assert.Equal(t, constants.ExitConfig, code)
}

func TestExecute_HubSmokeSuccess(t *testing.T) {
	srv := hubtest.NewServer(t)

	code, result := executeJSON(t, smokeConfig(constants.ActHubSmoke, srv.URL(), true))

	assert.Equal(t, constants.ExitOK, code)
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, constants.ActHubSmoke, result["command"])
}

func TestExecute_HubDown(t *testing.T) {
	srv := hubtest.NewServer(t)
	srv.SetHealthy(false)

	code, result := executeJSON(t, smokeConfig(constants.ActHubSmoke, srv.URL(), true))

	assert.Equal(t, constants.ExitFatal, code)
	assert.Equal(t, "error", result["status"])
}

func TestExecute_StrictFailure(t *testing.T) {
	srv := hubtest.NewServer(t)
	srv.ForceStatus(http.MethodPost, hubtest.RoutePrompts, http.StatusInternalServerError)

	code, _ := executeJSON(t, smokeConfig(constants.ActHubSmoke, srv.URL(), true))
	assert.Equal(t, constants.ExitStepsFailed, code)
}

func TestExecute_LenientFailure(t *testing.T) {
	srv := hubtest.NewServer(t)
	srv.ForceStatus(http.MethodPost, hubtest.RoutePrompts, http.StatusInternalServerError)

	code, _ := executeJSON(t, smokeConfig(constants.ActHubSmoke, srv.URL(), false))
	assert.Equal(t, constants.ExitOK, code)
}

func TestExecute_DeprecatedAlias(t *testing.T) {
	srv := hubtest.NewServer(t)

	var code int
	stderr := testutil.CaptureStderr(t, func() {
		code, _ = executeJSON(t, smokeConfig(constants.ActTestMVP, srv.URL(), true))
	})

	assert.Equal(t, constants.ExitOK, code)
	assert.Contains(t, stderr, "deprecated")
	assert.Contains(t, stderr, constants.ActHubSmoke)
}

func TestExecute_UnknownScenario(t *testing.T) {
	srv := hubtest.NewServer(t)
	cfg := smokeConfig(constants.ActHubSmoke, srv.URL(), true)
	cfg.SmokeConfig.Scenario = "nope"

	code, _ := executeJSON(t, cfg)
	assert.Equal(t, constants.ExitConfig, code)
}
