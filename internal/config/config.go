package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	AssemblyAI struct {
		APIKey              string `yaml:"api_key"`
		BaseURL             string `yaml:"base_url"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		MaxPollAttempts     int    `yaml:"max_poll_attempts"`
	} `yaml:"assemblyai"`

	Audio struct {
		Format              string `yaml:"format"`
		NormalizeWAV        bool   `yaml:"normalize_wav"`
		SegmentGapMs        int64  `yaml:"segment_gap_ms"`
		IncludeSegmentFiles bool   `yaml:"include_segment_files"`
	} `yaml:"audio"`

	Storage struct {
		TempDir string `yaml:"temp_dir"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxBodySizeMB int `yaml:"max_body_size_mb"`
	} `yaml:"limits"`
}

// EnvAPIKey is the environment variable that overrides the yaml api_key,
// so the secret never has to live in a checked-in file.
const EnvAPIKey = "ASSEMBLY_AI_API_KEY"

// Default returns the configuration used when the yaml file leaves a
// field unset.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.AssemblyAI.BaseURL = "https://api.assemblyai.com/v2"
	cfg.AssemblyAI.PollIntervalSeconds = 5
	cfg.AssemblyAI.MaxPollAttempts = 60
	cfg.Audio.Format = "mp3"
	cfg.Storage.TempDir = "temp"
	cfg.Cleanup.IntervalMinutes = 60
	cfg.Cleanup.MaxAgeHours = 24
	cfg.Limits.MaxBodySizeMB = 1
	return cfg
}

// Load reads the yaml configuration file on top of the defaults and
// applies environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, err
	}

	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.AssemblyAI.APIKey = key
	}

	return cfg, nil
}

// Validate checks that every value the pipeline depends on is usable.
func (c *Config) Validate() error {
	if c.AssemblyAI.APIKey == "" {
		return fmt.Errorf("assemblyai api_key is required (set %s or assemblyai.api_key)", EnvAPIKey)
	}
	if c.AssemblyAI.BaseURL == "" {
		return fmt.Errorf("assemblyai.base_url must not be empty")
	}
	if c.AssemblyAI.PollIntervalSeconds <= 0 {
		return fmt.Errorf("assemblyai.poll_interval_seconds must be positive, got %d", c.AssemblyAI.PollIntervalSeconds)
	}
	if c.AssemblyAI.MaxPollAttempts <= 0 {
		return fmt.Errorf("assemblyai.max_poll_attempts must be positive, got %d", c.AssemblyAI.MaxPollAttempts)
	}
	if c.Audio.Format != "mp3" && c.Audio.Format != "wav" {
		return fmt.Errorf("audio.format must be mp3 or wav, got %q", c.Audio.Format)
	}
	if c.Audio.SegmentGapMs < 0 {
		return fmt.Errorf("audio.segment_gap_ms must not be negative, got %d", c.Audio.SegmentGapMs)
	}
	if c.Storage.TempDir == "" {
		return fmt.Errorf("storage.temp_dir must not be empty")
	}
	if c.Cleanup.IntervalMinutes <= 0 {
		return fmt.Errorf("cleanup.interval_minutes must be positive, got %d", c.Cleanup.IntervalMinutes)
	}
	if c.Cleanup.MaxAgeHours <= 0 {
		return fmt.Errorf("cleanup.max_age_hours must be positive, got %d", c.Cleanup.MaxAgeHours)
	}
	return nil
}

// PollInterval returns the provider polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.AssemblyAI.PollIntervalSeconds) * time.Second
}
