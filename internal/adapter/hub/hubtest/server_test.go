package hubtest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestServer_RegisterConflict(t *testing.T) {
	s := NewServer(t)
	body := map[string]string{"email": "a@example.com", "password": "pw"}

	status, out := post(t, s.URL()+RouteRegister, body)
	require.Equal(t, http.StatusCreated, status)
	tokens := out["data"].(map[string]any)["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["accessToken"])

	status, out = post(t, s.URL()+RouteRegister, body)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "USER_ALREADY_EXISTS", out["error"])

	status, _ = post(t, s.URL()+RouteLogin, map[string]string{"email": "a@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestServer_AuthErrorCodes(t *testing.T) {
	s := NewServer(t)

	tests := []struct {
		header string
		code   string
	}{
		{"", "MISSING_TOKEN"},
		{"Token abc", "INVALID_TOKEN_FORMAT"},
		{"Bearer unknown", "TOKEN_VERIFICATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, s.URL()+RouteProfile, nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			var out map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tt.code, out["error"])
		})
	}
}

func TestServer_FaultsAndJournal(t *testing.T) {
	s := NewServer(t)
	s.SetHealthy(false)
	s.ForceStatus(http.MethodPost, RouteLogin, http.StatusBadGateway)

	resp, err := http.Get(s.URL() + RouteHealth)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	status, out := post(t, s.URL()+RouteLogin, map[string]string{"email": "a@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "FORCED_FAILURE", out["error"])

	s.ClearForced()
	status, _ = post(t, s.URL()+RouteLogin, map[string]string{"email": "a@example.com", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, status)

	assert.Equal(t, []string{
		"GET " + RouteHealth,
		"POST " + RouteLogin,
		"POST " + RouteLogin,
	}, s.Requests())
}
