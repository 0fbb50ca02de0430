package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikiran76/SwipeAI/internal/llm"
	"github.com/saikiran76/SwipeAI/internal/llm/openai"
)

func TestGenerate_SendsPromptAndReturnsContent(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"Invoice number\":\"INV-1\"}  "}}]}`))
	}))
	defer srv.Close()

	c := openai.NewClient(openai.Config{APIKey: "test-key", BaseURL: srv.URL, Model: "m"}, nil)
	out, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: llm.BuildPrompt(), Text: "INVOICE NO: INV-1"})
	require.NoError(t, err)
	assert.Equal(t, `{"Invoice number":"INV-1"}`, out)

	assert.Equal(t, "m", payload["model"])
	msgs, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	assert.Contains(t, user["content"], "INVOICE NO: INV-1")
}

func TestGenerate_AttachesImages(t *testing.T) {
	var payload struct {
		Messages []struct {
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	c := openai.NewClient(openai.Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Document: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"})
	require.NoError(t, err)

	require.Len(t, payload.Messages, 2)
	assert.Contains(t, string(payload.Messages[1].Content), "data:image/png;base64,")
}

func TestGenerate_StatusErrorIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := openai.NewClient(openai.Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Text: "t"})
	require.Error(t, err)

	var statusErr *llm.HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "slow down")
	assert.True(t, llm.Classify(err).Retryable)
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := openai.NewClient(openai.Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Text: "t"})
	assert.ErrorContains(t, err, "no choices")
}

func TestGenerate_OrganizationAndLimits(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "org-1", r.Header.Get("OpenAI-Organization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer srv.Close()

	c := openai.NewClient(openai.Config{APIKey: "k", BaseURL: srv.URL, Organization: "org-1", Temperature: 7}, nil)
	_, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "p", Text: "t"})
	require.NoError(t, err)

	assert.EqualValues(t, 2, payload["temperature"])
	assert.EqualValues(t, 4096, payload["max_tokens"])
	assert.Equal(t, "gpt-4o-mini", payload["model"])
}
