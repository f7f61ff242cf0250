package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/voiceloop-ai/voiceloop/pkg/audio"
)

// OpenAIConfig stores OpenAI Realtime specific configuration.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
}

// SessionConfig stores session lifecycle configuration.
type SessionConfig struct {
	// SystemPromptPreamble is prepended to the caller-supplied context when
	// composing the session's system instruction.
	SystemPromptPreamble string `yaml:"system_prompt_preamble"`

	// MaxSessionLength limits session duration in minutes. 0 disables.
	MaxSessionLength int `yaml:"max_session_length"`

	// InactivityTimeout closes the session after this many seconds without
	// audio in either direction. 0 disables.
	InactivityTimeout int `yaml:"inactivity_timeout"`

	// RecentSessionCacheSize bounds the in-memory registry of ended
	// session summaries.
	RecentSessionCacheSize int `yaml:"recent_session_cache_size"`
}

// AudioConfig stores sample format configuration. Rates are fixed by the
// remote service contract; overrides exist for testing only.
type AudioConfig struct {
	CaptureSampleRate  int `yaml:"capture_sample_rate"`
	CaptureBlockSize   int `yaml:"capture_block_size"`
	PlaybackSampleRate int `yaml:"playback_sample_rate"`
}

// Config stores the application configuration.
type Config struct {
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Session  SessionConfig `yaml:"session"`
	Audio    AudioConfig   `yaml:"audio"`
	LogLevel string        `yaml:"log_level"`
}

// LoadConfig loads the configuration from the given file path and applies
// defaults for anything left unset.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-realtime-preview"
	}
	if c.OpenAI.Voice == "" {
		c.OpenAI.Voice = "shimmer"
	}
	if c.Session.MaxSessionLength == 0 {
		c.Session.MaxSessionLength = 10
	}
	if c.Session.InactivityTimeout == 0 {
		c.Session.InactivityTimeout = 120
	}
	if c.Session.RecentSessionCacheSize == 0 {
		c.Session.RecentSessionCacheSize = 32
	}
	if c.Audio.CaptureSampleRate == 0 {
		c.Audio.CaptureSampleRate = audio.CaptureSampleRate
	}
	if c.Audio.CaptureBlockSize == 0 {
		c.Audio.CaptureBlockSize = audio.CaptureBlockSize
	}
	if c.Audio.PlaybackSampleRate == 0 {
		c.Audio.PlaybackSampleRate = audio.PlaybackSampleRate
	}
}
