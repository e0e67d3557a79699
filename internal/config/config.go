package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/scribeflow/scribeflow/internal/summarizer"
	"github.com/scribeflow/scribeflow/internal/transcriber"
	"github.com/scribeflow/scribeflow/pkg/log"
)

// Config holds all application configuration.
// Built from environment variables with sensible defaults; an optional YAML
// file (SCRIBEFLOW_CONFIG) overrides the environment.
//
// Environment Variables:
// Transcription provider:
// - TRANSCRIBE_API_KEY: API key (required)
// - TRANSCRIBE_API_URL: endpoint URL (default: https://api.assemblyai.com/v2)
// - TRANSCRIBE_TIMEOUT: per-request timeout in seconds (default: 60)
// - TRANSCRIBE_POLL_INTERVAL: seconds between status polls (default: 3)
// - TRANSCRIBE_MAX_POLL_ATTEMPTS: poll attempts before giving up (default: 200)
//
// Summarization provider:
// - SUMMARIZE_API_KEY: API key (required)
// - SUMMARIZE_API_URL: endpoint URL (default: https://generativelanguage.googleapis.com/v1beta)
// - SUMMARIZE_MODEL: model name (default: gemini-2.0-flash-exp)
// - SUMMARIZE_TIMEOUT: request timeout in seconds (default: 120)
//
// Processing:
// - QUEUE_WORKERS: worker pool size (default: 2)
// - CHUNK_CEILING_MB: per-chunk size ceiling in MB (default: 20)
//
// Intake:
// - HTTP_ADDR: listen address (default: :8080)
// - UPLOAD_DIR: directory for uploads and chunk files (default: data/uploads)
// - INBOX_DIR: watched drop directory, empty disables the watcher (default: "")
//
// Housekeeping:
// - DB_PATH: SQLite job store path (default: data/scribeflow.db)
// - SWEEP_CRON: orphan chunk sweep schedule (default: "0 * * * *")
// - SWEEP_MAX_AGE_HOURS: chunk age before sweeping (default: 6)
// - LOG_LEVEL: debug|info|warn|error (default: info)
// - LOG_FILE: log file path, empty logs to stdout (default: "")
type Config struct {
	Transcriber transcriber.Config `yaml:"transcriber"`
	Summarizer  summarizer.Config  `yaml:"summarizer"`
	Queue       QueueConfig        `yaml:"queue"`
	Chunk       ChunkConfig        `yaml:"chunk"`
	HTTP        HTTPConfig         `yaml:"http"`
	Watch       WatchConfig        `yaml:"watch"`
	Sweep       SweepConfig        `yaml:"sweep"`
	DB          DBConfig           `yaml:"db"`
	Log         LogConfig          `yaml:"log"`
}

type QueueConfig struct {
	Workers int `yaml:"workers"`
}

type ChunkConfig struct {
	CeilingMB int `yaml:"ceiling_mb"`
}

type HTTPConfig struct {
	Addr      string `yaml:"addr"`
	UploadDir string `yaml:"upload_dir"`
}

type WatchConfig struct {
	InboxDir string `yaml:"inbox_dir"`
}

type SweepConfig struct {
	CronExpr    string `yaml:"cron_expr"`
	MaxAgeHours int    `yaml:"max_age_hours"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables, the optional YAML overlay and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Transcriber: transcriber.Config{
			APIKey:          getEnvString("TRANSCRIBE_API_KEY", ""),
			APIURL:          getEnvString("TRANSCRIBE_API_URL", "https://api.assemblyai.com/v2"),
			Timeout:         getEnvInt("TRANSCRIBE_TIMEOUT", 60),
			PollInterval:    getEnvFloat("TRANSCRIBE_POLL_INTERVAL", 3),
			MaxPollAttempts: getEnvInt("TRANSCRIBE_MAX_POLL_ATTEMPTS", 200),
		},
		Summarizer: summarizer.Config{
			APIKey:  getEnvString("SUMMARIZE_API_KEY", ""),
			APIURL:  getEnvString("SUMMARIZE_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
			Model:   getEnvString("SUMMARIZE_MODEL", "gemini-2.0-flash-exp"),
			Timeout: getEnvInt("SUMMARIZE_TIMEOUT", 120),
		},
		Queue: QueueConfig{
			Workers: getEnvInt("QUEUE_WORKERS", 2),
		},
		Chunk: ChunkConfig{
			CeilingMB: getEnvInt("CHUNK_CEILING_MB", 20),
		},
		HTTP: HTTPConfig{
			Addr:      getEnvString("HTTP_ADDR", ":8080"),
			UploadDir: getEnvString("UPLOAD_DIR", "data/uploads"),
		},
		Watch: WatchConfig{
			InboxDir: getEnvString("INBOX_DIR", ""),
		},
		Sweep: SweepConfig{
			CronExpr:    getEnvString("SWEEP_CRON", "0 * * * *"),
			MaxAgeHours: getEnvInt("SWEEP_MAX_AGE_HOURS", 6),
		},
		DB: DBConfig{
			Path: getEnvString("DB_PATH", "data/scribeflow.db"),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
			File:  getEnvString("LOG_FILE", ""),
		},
	}

	if path := os.Getenv("SCRIBEFLOW_CONFIG"); path != "" {
		if err := applyFile(config, path); err != nil {
			return nil, err
		}
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Info("Config loaded: workers=%d ceiling=%dMB upload_dir=%s", config.Queue.Workers, config.Chunk.CeilingMB, config.HTTP.UploadDir)
	return config, nil
}

func applyFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Transcriber.APIKey == "" {
		return fmt.Errorf("TRANSCRIBE_API_KEY is required")
	}
	if c.Summarizer.APIKey == "" {
		return fmt.Errorf("SUMMARIZE_API_KEY is required")
	}
	if c.Queue.Workers < 1 {
		return fmt.Errorf("QUEUE_WORKERS must be greater than 0")
	}
	if c.Chunk.CeilingMB < 1 {
		return fmt.Errorf("CHUNK_CEILING_MB must be greater than 0")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
