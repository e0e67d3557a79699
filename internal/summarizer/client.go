package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const summaryPrompt = "Summarize the following transcript in 200-300 words, capturing the main topics, key points, and conclusions.\n\n%s"

// Config holds the configuration for the summarization provider client.
//
// Environment Variables:
// - SUMMARIZE_API_KEY: API key for the provider (required)
// - SUMMARIZE_API_URL: API endpoint URL (default: https://generativelanguage.googleapis.com/v1beta)
// - SUMMARIZE_MODEL: model name (default: gemini-2.0-flash-exp)
// - SUMMARIZE_TIMEOUT: request timeout in seconds (default: 120)
type Config struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	APIURL  string `json:"api_url" yaml:"api_url"`
	Model   string `json:"model" yaml:"model"`
	Timeout int    `json:"timeout" yaml:"timeout"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("API URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}
	return nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Client produces a prose summary of a transcript in a single provider
// round trip. The provider accepts the full transcript; no chunking here.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
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
	}, nil
}

// Summarize returns a bounded-length prose summary of the transcript.
// Failures carry the HTTP status and provider error body so operators can
// diagnose without retrying here; retry policy belongs to the caller.
func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{{Text: fmt.Sprintf(summaryPrompt, transcript)}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.config.Model, c.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarization request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("summarization API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var generated generateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	summary := extractText(&generated)
	if summary == "" {
		return "", fmt.Errorf("empty summary in provider response")
	}
	return summary, nil
}

func extractText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String()
}
