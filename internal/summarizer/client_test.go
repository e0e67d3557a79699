package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *Config {
	return &Config{
		APIKey:  "test-key",
		APIURL:  url,
		Model:   "gemini-2.0-flash-exp",
		Timeout: 5,
	}
}

func TestClient_Summarize(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "S"}}}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	summary, err := client.Summarize(context.Background(), "a\nb\nc\n")
	require.NoError(t, err)
	assert.Equal(t, "S", summary)
	assert.Equal(t, "/models/gemini-2.0-flash-exp:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "200-300 words")
	assert.Contains(t, gotReq.Contents[0].Parts[0].Text, "a\nb\nc\n")
}

func TestClient_Summarize_JoinsMultipleParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "part one "}, {"text": "part two"}}}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	summary, err := client.Summarize(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", summary)
}

func TestClient_Summarize_HTTPErrorIncludesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.Summarize(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 429")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestClient_Summarize_EmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = client.Summarize(context.Background(), "text")
	assert.ErrorContains(t, err, "empty summary")
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{APIURL: "https://api.example", Model: "m", Timeout: 5})
	assert.ErrorContains(t, err, "API key is required")
}
