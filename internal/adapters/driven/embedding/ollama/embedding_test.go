package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ollamaapi"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, 384, s.Dimensions())
	assert.Equal(t, DefaultBaseURL, s.api.BaseURL())
}

func TestEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaapi.EmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "custom-model", req.Model)

		resp := ollamaapi.EmbedResponse{}
		for i := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{float64(i), 1, 2})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL + "/", Model: "custom-model"})
	assert.Equal(t, 0, s.Dimensions())

	out, err := s.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{1, 1, 2}, out[1])
	assert.Equal(t, 3, s.Dimensions())
}

func TestEmbed_Single(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.5,0.25]]}`))
	}))
	defer server.Close()

	vec, err := NewEmbeddingService(Config{BaseURL: server.URL}).Embed(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vec)
}

func TestEmbedBatch_Empty(t *testing.T) {
	out, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"}).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEmbedBatch_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusNotFound, `model not found`, "status 404"},
		{"api error", http.StatusOK, `{"error":"boom"}`, "boom"},
		{"count mismatch", http.StatusOK, `{"embeddings":[]}`, "0 embeddings for 1 inputs"},
		{"bad json", http.StatusOK, `{`, "decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewEmbeddingService(Config{BaseURL: server.URL}).EmbedBatch(context.Background(), []string{"x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))
	assert.Error(t, NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"}).Ping(context.Background()))
}
