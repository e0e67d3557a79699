package transcriber

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantClock struct {
	sleeps atomic.Int64
}

func (c *instantClock) Sleep(ctx context.Context, _ time.Duration) error {
	c.sleeps.Add(1)
	return ctx.Err()
}

func testConfig(url string) *Config {
	return &Config{
		APIKey:          "test-key",
		APIURL:          url,
		Timeout:         5,
		PollInterval:    3,
		MaxPollAttempts: 5,
	}
}

func newTestClient(t *testing.T, url string) (*Client, *instantClock) {
	t.Helper()
	client, err := NewClient(testConfig(url))
	require.NoError(t, err)
	clock := &instantClock{}
	client.clock = clock
	return client, clock
}

func writeChunk(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunk.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio-bytes"), 0644))
	return path
}

// providerStub simulates the upload/submit/poll provider API.
type providerStub struct {
	pollsUntilDone int
	finished       Transcript
	polls          atomic.Int64
}

func (p *providerStub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(uploadResponse{UploadURL: "https://cdn.example/upload/1"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req submitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://cdn.example/upload/1", req.AudioURL)
		assert.True(t, req.SpeakerLabels)
		_ = json.NewEncoder(w).Encode(Transcript{ID: "tr-1", Status: TranscriptQueued})
	})
	mux.HandleFunc("/transcript/tr-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		n := p.polls.Add(1)
		if int(n) < p.pollsUntilDone {
			_ = json.NewEncoder(w).Encode(Transcript{ID: "tr-1", Status: TranscriptProcessing})
			return
		}
		_ = json.NewEncoder(w).Encode(p.finished)
	})
	return mux
}

func TestClient_Transcribe_PlainText(t *testing.T) {
	stub := &providerStub{
		pollsUntilDone: 3,
		finished:       Transcript{ID: "tr-1", Status: TranscriptCompleted, Text: "hello world"},
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client, clock := newTestClient(t, srv.URL)

	text, err := client.Transcribe(context.Background(), writeChunk(t))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, int64(3), clock.sleeps.Load(), "one wait before every poll")
}

func TestClient_Transcribe_SpeakerLabels(t *testing.T) {
	stub := &providerStub{
		pollsUntilDone: 1,
		finished: Transcript{
			ID:     "tr-1",
			Status: TranscriptCompleted,
			Text:   "plain fallback",
			Utterances: []Utterance{
				{Speaker: "A", Text: "Hi there."},
				{Speaker: "B", Text: "Hello."},
			},
		},
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	text, err := client.Transcribe(context.Background(), writeChunk(t))
	require.NoError(t, err)
	assert.Equal(t, "Speaker A: Hi there.\nSpeaker B: Hello.", text)
}

func TestClient_Transcribe_ProviderError(t *testing.T) {
	stub := &providerStub{
		pollsUntilDone: 1,
		finished:       Transcript{ID: "tr-1", Status: TranscriptError, Error: "audio too noisy"},
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	_, err := client.Transcribe(context.Background(), writeChunk(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "audio too noisy")
}

func TestClient_Transcribe_PollDeadline(t *testing.T) {
	stub := &providerStub{pollsUntilDone: 100}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	_, err := client.Transcribe(context.Background(), writeChunk(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPollDeadline)
	assert.Equal(t, int64(5), stub.polls.Load())
}

func TestClient_Upload_HTTPErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad api key"}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)

	_, err := client.Upload(context.Background(), writeChunk(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 401")
	assert.ErrorContains(t, err, "bad api key")
}

func TestClient_Upload_MissingFile(t *testing.T) {
	client, _ := newTestClient(t, "http://127.0.0.1:0")

	_, err := client.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	assert.ErrorContains(t, err, "read chunk file")
}

func TestNewClient_RejectsInvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{APIURL: "https://api.example"})
	assert.ErrorContains(t, err, "API key is required")
}
