package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/yoda-bot/backend/internal/config"
)

func TestOpenAICompleterSendsSamplingParameters(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/completions" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "text_completion",
			"created": 1700000000,
			"model": "/models/yoda",
			"choices": [{"index": 0, "text": " Strong you are.<|endoftext|>", "finish_reason": "stop", "logprobs": null}]
		}`))
	}))
	defer srv.Close()

	completer := newOpenAICompleter(
		config.ModelConfig{BaseURL: srv.URL + "/v1/"},
		&Checkpoint{Dir: "/models/yoda"},
		Sampling{Temperature: 0.7, MaxNewTokens: 80, Stop: "<|endoftext|>"},
	)

	text, err := completer.Complete(context.Background(), "<|startoftext|>Human: hi<|sep|>Yoda:")
	require.NoError(t, err)
	assert.Equal(t, " Strong you are.<|endoftext|>", text)

	assert.Equal(t, "/models/yoda", body["model"])
	assert.Equal(t, "<|startoftext|>Human: hi<|sep|>Yoda:", body["prompt"])
	assert.Equal(t, 0.7, body["temperature"])
	assert.Equal(t, float64(80), body["max_tokens"])
	assert.Equal(t, "<|endoftext|>", body["stop"])
}

func TestOpenAICompleterNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "cmpl-2", "object": "text_completion", "created": 1, "model": "m", "choices": []}`))
	}))
	defer srv.Close()

	completer := newOpenAICompleter(config.ModelConfig{BaseURL: srv.URL + "/v1/"}, &Checkpoint{Dir: "m"}, Sampling{MaxNewTokens: 8})

	_, err := completer.Complete(context.Background(), "prompt")
	assert.Error(t, err)
}
