package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zhibeky/quran-ai/api/schemas"
	"github.com/zhibeky/quran-ai/internal/config"
)

func newOpenAITestClient(t *testing.T, endpoint string) *OpenAIClient {
	t.Helper()
	client, err := NewOpenAIClient(config.LLMModelConfig{
		Provider:   config.ProviderOpenAI,
		Model:      "gpt-test",
		APIKey:     "test-key",
		Endpoint:   endpoint,
		APITimeout: 5 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestOpenAIGenerate_Success(t *testing.T) {
	var captured chatRequestPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "an answer"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	client := newOpenAITestClient(t, server.URL)
	got, err := client.Generate(context.Background(), schemas.GenerationRequest{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	})

	require.NoError(t, err)
	assert.Equal(t, "an answer", got)

	assert.Equal(t, "gpt-test", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, captured.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user"}, captured.Messages[1])
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestOpenAIGenerate_RetriesBadGateway(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	}))
	defer server.Close()

	client := newOpenAITestClient(t, server.URL)
	got, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIGenerate_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newOpenAITestClient(t, server.URL)
	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "p"})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIGenerate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newOpenAITestClient(t, server.URL)
	_, err := client.Generate(context.Background(), schemas.GenerationRequest{UserPrompt: "p"})

	assert.ErrorContains(t, err, "no choices")
}
