package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"HerShield/pkg/llm"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestLLMHandler_Query(t *testing.T) {
	var got map[string]any
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("Stay in well-lit areas."))
	})

	h, err := llm.NewLLMHandler(llm.Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/v1/",
		Model:       "test-model",
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   2048,
	}, "", testLogger())
	require.NoError(t, err)

	answer, err := h.Query(context.Background(), "How do I stay safe at night?")
	require.NoError(t, err)
	assert.Equal(t, "Stay in well-lit areas.", answer)

	assert.Equal(t, "test-model", got["model"])
	assert.EqualValues(t, 2048, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestLLMHandler_EmptyAnswer(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("  "))
	})
	h, err := llm.NewLLMHandler(llm.Config{APIKey: "k", BaseURL: srv.URL}, "system", testLogger())
	require.NoError(t, err)

	_, err = h.Query(context.Background(), "hi")
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestLLMHandler_ServerError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	})
	h, err := llm.NewLLMHandler(llm.Config{APIKey: "k", BaseURL: srv.URL}, "", testLogger())
	require.NoError(t, err)

	_, err = h.Query(context.Background(), "hi")
	assert.Error(t, err)
}

func TestLLMHandler_Timeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	h, err := llm.NewLLMHandler(llm.Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, "", testLogger())
	require.NoError(t, err)

	_, err = h.Query(context.Background(), "hi")
	assert.Error(t, err)
}

func TestNewLLMHandler_RequiresKey(t *testing.T) {
	_, err := llm.NewLLMHandler(llm.Config{}, "", nil)
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}
