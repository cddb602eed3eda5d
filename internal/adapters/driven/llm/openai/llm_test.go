package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/openaiapi"
	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

var fastLimit = &ratelimit.Config{RequestsPerSecond: 1000, BurstSize: 100}

func newTestService(t *testing.T, url string) *LLMService {
	t.Helper()
	s, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: url, RateLimit: fastLimit})
	require.NoError(t, err)
	return s
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.ErrorIs(t, err, openaiapi.ErrNoAPIKey)

	s, err := NewLLMService(LLMConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, s.ModelName())
	assert.Equal(t, DefaultBaseURL, s.api.BaseURL())
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openaiapi.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[0].Content, "banking documents")
		assert.Equal(t, openaiapi.Message{Role: "user", Content: "What is the IFSC?"}, req.Messages[1])
		assert.Equal(t, 200, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"HDFC0001234"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	out, err := newTestService(t, server.URL+"/").Generate(context.Background(), "What is the IFSC?", driven.GenerateOptions{MaxTokens: 200})

	require.NoError(t, err)
	assert.Equal(t, "HDFC0001234", out)
}

func TestGenerate_Errors(t *testing.T) {
	for name, tt := range map[string]struct {
		status int
		body   string
		want   string
	}{
		"api error":    {http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, "bad key"},
		"server error": {http.StatusInternalServerError, `upstream down`, "status 500"},
		"no choices":   {http.StatusOK, `{"choices":[]}`, "no response choices"},
		"bad json":     {http.StatusOK, `<html>`, "decode response"},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestService(t, server.URL).Generate(context.Background(), "p", driven.GenerateOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGenerate_RetriesOnceAfterRateLimit(t *testing.T) {
	for name, tt := range map[string]struct {
		limited int32
		wantErr bool
	}{
		"recovers": {limited: 1},
		"gives up":  {limited: 2, wantErr: true},
	} {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) <= tt.limited {
					w.Header().Set("Retry-After", "1")
					w.WriteHeader(http.StatusTooManyRequests)
					_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
					return
				}
				_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Rs. 12,500"},"finish_reason":"stop"}]}`))
			}))
			defer server.Close()

			out, err := newTestService(t, server.URL).Generate(context.Background(), "EMI?", driven.GenerateOptions{})

			assert.Equal(t, int32(2), calls.Load())
			if tt.wantErr {
				var apiErr *openaiapi.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Rs. 12,500", out)
		})
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	assert.NoError(t, newTestService(t, server.URL).Ping(context.Background()))

	bad, err := NewLLMService(LLMConfig{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Error(t, bad.Ping(context.Background()))
}

func TestFirstChoice_NoChoices(t *testing.T) {
	_, err := firstChoice(&openaiapi.ChatResponse{})
	assert.ErrorIs(t, err, errNoChoices)
}
