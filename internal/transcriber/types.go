package transcriber

import (
	"context"
	"fmt"
	"time"
)

// Config holds the configuration for the transcription provider client.
//
// Environment Variables:
// - TRANSCRIBE_API_KEY: API key for the provider (required)
// - TRANSCRIBE_API_URL: API endpoint URL (default: https://api.assemblyai.com/v2)
// - TRANSCRIBE_TIMEOUT: per-request timeout in seconds (default: 60)
// - TRANSCRIBE_POLL_INTERVAL: seconds between status polls (default: 3)
// - TRANSCRIBE_MAX_POLL_ATTEMPTS: poll attempts before giving up (default: 200)
type Config struct {
	APIKey          string  `json:"api_key" yaml:"api_key"`
	APIURL          string  `json:"api_url" yaml:"api_url"`
	Timeout         int     `json:"timeout" yaml:"timeout"`
	PollInterval    float64 `json:"poll_interval" yaml:"poll_interval"`
	MaxPollAttempts int     `json:"max_poll_attempts" yaml:"max_poll_attempts"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if c.MaxPollAttempts < 1 {
		return fmt.Errorf("max poll attempts must be greater than 0")
	}
	return nil
}

// GetHeaders returns the headers for provider API requests.
func (c *Config) GetHeaders() map[string]string {
	return map[string]string{
		"Authorization": c.APIKey,
		"Content-Type":  "application/json",
	}
}

type TranscriptStatus string

const (
	TranscriptQueued     TranscriptStatus = "queued"
	TranscriptProcessing TranscriptStatus = "processing"
	TranscriptCompleted  TranscriptStatus = "completed"
	TranscriptError      TranscriptStatus = "error"
)

// Utterance is one speaker-attributed segment of a transcript.
type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Transcript is the provider's view of one transcription request.
type Transcript struct {
	ID         string           `json:"id"`
	Status     TranscriptStatus `json:"status"`
	Text       string           `json:"text"`
	Utterances []Utterance      `json:"utterances"`
	Error      string           `json:"error"`
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type submitRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
}

// Clock abstracts waiting between polls so tests can simulate time.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
