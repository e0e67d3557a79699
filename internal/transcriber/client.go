package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/scribeflow/scribeflow/pkg/log"
)

// ErrPollDeadline marks a provider job that did not reach a terminal state
// within the configured number of poll attempts.
var ErrPollDeadline = errors.New("transcription polling deadline exceeded")

// Client talks to the external transcription provider: file upload,
// transcript submission and status polling.
// Thread-safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
	clock      Clock
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		config:  config,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
		clock: realClock{},
	}, nil
}

// Transcribe runs the full provider round trip for one chunk file: upload,
// submit with speaker labels enabled, then poll at the configured interval
// until the provider reports a terminal state. When utterances are present
// the transcript is rendered as "Speaker <id>: <text>" lines.
func (c *Client) Transcribe(ctx context.Context, path string) (string, error) {
	uploadURL, err := c.Upload(ctx, path)
	if err != nil {
		return "", err
	}

	id, err := c.Submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	interval := time.Duration(c.config.PollInterval * float64(time.Second))
	for attempt := 0; attempt < c.config.MaxPollAttempts; attempt++ {
		if err := c.clock.Sleep(ctx, interval); err != nil {
			return "", err
		}

		transcript, err := c.Poll(ctx, id)
		if err != nil {
			return "", err
		}

		switch transcript.Status {
		case TranscriptCompleted:
			return renderTranscript(transcript), nil
		case TranscriptError:
			return "", fmt.Errorf("provider transcription failed: %s", transcript.Error)
		default:
			log.Debug("Transcript %s still %s (attempt %d)", id, transcript.Status, attempt+1)
		}
	}

	return "", fmt.Errorf("%w after %d attempts for transcript %s", ErrPollDeadline, c.config.MaxPollAttempts, id)
}

// Upload sends the file bytes to the provider and returns the upload URL.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read chunk file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.config.APIKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return "", fmt.Errorf("failed to parse upload response: %w", err)
	}
	if uploaded.UploadURL == "" {
		return "", fmt.Errorf("no upload_url in provider response")
	}
	return uploaded.UploadURL, nil
}

// Submit starts a transcription for an uploaded file and returns the
// provider transcript ID.
func (c *Client) Submit(ctx context.Context, audioURL string) (string, error) {
	payload, err := json.Marshal(submitRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var transcript Transcript
	if err := json.Unmarshal(body, &transcript); err != nil {
		return "", fmt.Errorf("failed to parse submit response: %w", err)
	}
	if transcript.ID == "" {
		return "", fmt.Errorf("no transcript id in provider response")
	}
	return transcript.ID, nil
}

// Poll fetches the current provider state for a transcript.
func (c *Client) Poll(ctx context.Context, id string) (*Transcript, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.config.GetHeaders() {
		req.Header.Set(key, value)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var transcript Transcript
	if err := json.Unmarshal(body, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse poll response: %w", err)
	}
	return &transcript, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transcription API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func renderTranscript(t *Transcript) string {
	if len(t.Utterances) == 0 {
		return t.Text
	}
	lines := make([]string, 0, len(t.Utterances))
	for _, u := range t.Utterances {
		lines = append(lines, fmt.Sprintf("Speaker %s: %s", u.Speaker, u.Text))
	}
	return strings.Join(lines, "\n")
}
