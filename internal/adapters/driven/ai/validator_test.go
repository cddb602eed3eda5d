package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

func TestConfigValidator_NilConfig(t *testing.T) {
	validator := NewConfigValidator()

	assert.NoError(t, validator.ValidateEmbedding(nil))
	assert.NoError(t, validator.ValidateLLM(nil))
}

func TestConfigValidator_ValidateEmbedding_Local(t *testing.T) {
	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{Provider: domain.AIProviderLocal})
	assert.NoError(t, err)
}

func TestConfigValidator_ValidateEmbedding_BadKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key"}}`))
	}))
	defer server.Close()

	err := NewConfigValidator().ValidateEmbedding(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-wrong",
		BaseURL:  server.URL,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `openai embedding "text-embedding-3-small"`)
	assert.Contains(t, err.Error(), "status 401")
}

func TestConfigValidator_ValidateLLM_Unreachable(t *testing.T) {
	err := NewConfigValidator().ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		Model:    "llama3:8b",
		BaseURL:  "http://127.0.0.1:1",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `ollama LLM "llama3:8b"`)
}

func TestConfigValidator_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewConfigValidatorContext(ctx).ValidateLLM(&domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	assert.Error(t, err)
}
