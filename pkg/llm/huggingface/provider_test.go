package huggingface

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ikms-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHuggingFaceProvider_DecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "retrieve", req.Tools[0].Function.Name)

		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"",`+
			`"tool_calls":[{"id":"c1","type":"function","function":{"name":"retrieve","arguments":"{\"query\":\"pgvector\"}"}}]}}]}`)
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("token", srv.URL, "test-model")
	msg, err := p.ChatWithTools(context.Background(),
		[]llm.Message{llm.UserMessage("what is pgvector?")},
		[]llm.ToolDefinition{{Name: "retrieve"}})
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "c1", msg.ToolCalls[0].ID)
	assert.Equal(t, "pgvector", msg.ToolCalls[0].Arguments["query"])
}

func TestHuggingFaceProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model is loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("", srv.URL, "m").Chat(context.Background(), []llm.Message{llm.UserMessage("hi")})
	assert.ErrorContains(t, err, "status 503")
	assert.ErrorContains(t, err, "model is loading")
}

func TestHuggingFaceProvider_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// promise more bytes than are sent so the client read ends early
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"choices":[`)
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("", srv.URL, "m").Chat(context.Background(), []llm.Message{llm.UserMessage("hi")})
	require.Error(t, err)
	assert.ErrorContains(t, err, "read response")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
