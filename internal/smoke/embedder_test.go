package smoke

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kargones/aihub-smoke/internal/pkg/apperrors"
)

func TestConstantEmbedder(t *testing.T) {
	e := NewConstantEmbedder()
	vec, err := e.Embed(context.Background(), "text", 1536, "text-embedding-ada-002")
	require.NoError(t, err)
	assert.Len(t, vec, 1536)
	for _, v := range vec {
		assert.InDelta(t, 0.1, v, 1e-9)
	}
	assert.Equal(t, "constant", e.Source())
}

func TestConstantEmbedder_InvalidDimension(t *testing.T) {
	_, err := NewConstantEmbedder().Embed(context.Background(), "text", 0, "")
	require.Error(t, err)
	assert.Equal(t, ErrEmbedDimension, apperrors.CodeOf(err))
}

// fakeOpenAI отвечает на POST /embeddings вектором длины dim.
func fakeOpenAI(t *testing.T, dim int, gotModel *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if gotModel != nil {
			*gotModel = req.Model
		}
		vec := make([]float64, dim)
		for i := range vec {
			vec[i] = float64(i) / 10
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]any{"prompt_tokens": 3, "total_tokens": 3},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIEmbedder(t *testing.T) {
	var model string
	srv := fakeOpenAI(t, 4, &model)
	e := NewOpenAIEmbedder("sk-test", srv.URL+"/v1/", "")

	vec, err := e.Embed(context.Background(), "hello", 4, "text-embedding-3-small")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "text-embedding-3-small", model)
	assert.Equal(t, "openai", e.Source())
}

func TestOpenAIEmbedder_ModelOverride(t *testing.T) {
	var model string
	srv := fakeOpenAI(t, 2, &model)
	e := NewOpenAIEmbedder("sk-test", srv.URL+"/v1/", "custom-model")

	_, err := e.Embed(context.Background(), "hello", 2, "text-embedding-ada-002")
	require.NoError(t, err)
	assert.Equal(t, "custom-model", model)
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	srv := fakeOpenAI(t, 3, nil)
	e := NewOpenAIEmbedder("sk-test", srv.URL+"/v1/", "")

	_, err := e.Embed(context.Background(), "hello", 1536, "m")
	require.Error(t, err)
	assert.Equal(t, ErrEmbedDimension, apperrors.CodeOf(err))
}

func TestOpenAIEmbedder_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)
	e := NewOpenAIEmbedder("sk-test", srv.URL+"/v1/", "")

	_, err := e.Embed(context.Background(), "hello", 4, "m")
	require.Error(t, err)
	assert.Equal(t, ErrEmbedFailed, apperrors.CodeOf(err))
}
