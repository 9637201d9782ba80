package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_SchemaRequest(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"n\":2}]"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	var delays []time.Duration
	c, err := New(Config{Provider: ProviderOpenAI, APIKey: "sk-test", BaseURL: srv.URL, Model: "local-model"},
		WithHTTPClient(srv.Client()),
		WithSleeper(RecordingSleeper(&delays)),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	var raw json.RawMessage
	require.NoError(t, c.CallJSON(context.Background(), GenerationRequest{
		SystemInstruction: "sys",
		UserInstruction:   "user",
		Schema:            pairSchema,
	}, &raw))
	assert.JSONEq(t, `[{"n":2}]`, string(raw))

	assert.Equal(t, "local-model", body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])

	rf := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "test_pairs", js["name"])
	assert.Equal(t, "array", js["schema"].(map[string]any)["type"])
}

func TestOpenAI_StatusErrorsAreTransient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	var delays []time.Duration
	c, err := New(Config{Provider: ProviderOpenAI, APIKey: "sk-test", BaseURL: srv.URL, Model: "m", MaxAttempts: 3},
		WithHTTPClient(srv.Client()),
		WithSleeper(RecordingSleeper(&delays)),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	_, err = c.Call(context.Background(), GenerationRequest{UserInstruction: "x"})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrRetriesExhausted)

	var transient *TransientError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, http.StatusServiceUnavailable, transient.StatusCode)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, delays)
}
