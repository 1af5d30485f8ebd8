package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "AIzaSyTest0123456789abcdefghijklmnop"

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewGeminiClient(testAPIKey, "gemini-2.5-flash",
		WithGeminiBaseURL(srv.URL),
		WithGeminiHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestNewGeminiClientRejectsEmptyKey(t *testing.T) {
	_, err := NewGeminiClient("", "gemini-2.5-flash")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGeminiClient("   ", "gemini-2.5-flash")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewGeminiClientRejectsPlaceholderKey(t *testing.T) {
	_, err := NewGeminiClient("your_api_key_here", "gemini-2.5-flash")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewGeminiClientRejectsShortKey(t *testing.T) {
	_, err := NewGeminiClient("short-key", "gemini-2.5-flash")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestGeminiComplete(t *testing.T) {
	var gotReq geminiRequest
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "models/gemini-2.5-flash:generateContent")
		assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": []map[string]string{{"text": "Bonjour"}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]int{
				"promptTokenCount":     12,
				"candidatesTokenCount": 3,
				"totalTokenCount":      15,
			},
		})
	})

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		SystemInstruction: "Translate the user's input to French.",
		Messages: []ChatMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
			{Role: "user", Content: "good morning"},
		},
		MaxTokens: 4096,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", resp.Content)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)
	assert.Equal(t, "stop", resp.FinishReason)

	// The system instruction rides in its own field, not in contents.
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "Translate the user's input to French.", gotReq.SystemInstruction.Parts[0].Text)
	require.Len(t, gotReq.Contents, 3)
	assert.Equal(t, "model", gotReq.Contents[1].Role, "assistant role must map to model")
	require.NotNil(t, gotReq.GenerationConfig)
	assert.Equal(t, 4096, *gotReq.GenerationConfig.MaxOutputTokens)
}

func TestGeminiCompleteEmptyCandidates(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGeminiCompleteAPIKeyInvalidDetail(t *testing.T) {
	// Bad keys come back as 400 INVALID_ARGUMENT with an
	// API_KEY_INVALID detail rather than a 401.
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`)
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestGeminiCompleteUnauthorized(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestGeminiCompleteForbidden(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGeminiCompleteServerError(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "backend unavailable")
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "status 500")
}

func sseChunk(text, finishReason string) string {
	payload := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{"role": "model", "parts": []map[string]string{{"text": text}}},
		}},
	}
	if finishReason != "" {
		payload["candidates"].([]map[string]any)[0]["finishReason"] = finishReason
		payload["usageMetadata"] = map[string]int{
			"promptTokenCount":     8,
			"candidatesTokenCount": 4,
			"totalTokenCount":      12,
		}
	}
	b, _ := json.Marshal(payload)
	return "data: " + string(b) + "\n\n"
}

func TestGeminiCompleteStream(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{sseChunk("Hel", ""), sseChunk("lo ", ""), sseChunk("world", "STOP")} {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	})

	var chunks []string
	var indexes []int
	resp, err := c.CompleteStream(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}, func(chunk string, index int) error {
		chunks = append(chunks, chunk)
		indexes = append(indexes, index)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Hel", "lo ", "world"}, chunks)
	assert.Equal(t, []int{0, 1, 2}, indexes)
	assert.Equal(t, "Hello world", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 8, resp.TokensIn)
	assert.Equal(t, 4, resp.TokensOut)
}

func TestGeminiCompleteStreamCallbackError(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sseChunk("Hel", "")+sseChunk("lo", "STOP"))
	})

	boom := fmt.Errorf("client went away")
	_, err := c.CompleteStream(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}, func(chunk string, index int) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGeminiCompleteStreamSkipsMalformedLines(t *testing.T) {
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: ping\n\n")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, sseChunk("ok", "STOP"))
	})

	resp, err := c.CompleteStream(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}, func(string, int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestGeminiModelOverride(t *testing.T) {
	var gotPath string
	c := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`)
	})

	_, err := c.Complete(context.Background(), &CompletionRequest{
		Model:    "models/gemini-2.5-pro",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(gotPath, "models/gemini-2.5-pro:generateContent"), "path %s", gotPath)
}
