package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Summary     SummaryConfig     `yaml:"summary"`
	Answer      AnswerConfig      `yaml:"answer"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RecognitionConfig struct {
	URL              string `yaml:"url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	Language         string `yaml:"language"`
	UtteranceEndMS   int    `yaml:"utterance_end_ms"`
	KeepAliveSeconds int    `yaml:"keep_alive_seconds"`
}

type SummaryConfig struct {
	Model            string `yaml:"model"`
	WindowLines      int    `yaml:"window_lines"`
	ContextSummaries int    `yaml:"context_summaries"`
	APIKey           string `yaml:"api_key"`
}

type AnswerConfig struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type DatabaseConfig struct {
	URI string `yaml:"uri"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return fmt.Errorf("database.uri is required")
	}

	// API keys may come from the environment instead of the file
	if c.Recognition.APIKey == "" {
		c.Recognition.APIKey = os.Getenv("DEEPGRAM_API_KEY")
	}
	if c.Summary.APIKey == "" {
		c.Summary.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Answer.APIKey == "" {
		c.Answer.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Recognition.URL == "" {
		c.Recognition.URL = "wss://api.deepgram.com/v1/listen"
	}
	if c.Recognition.Model == "" {
		c.Recognition.Model = "nova-2"
	}
	if c.Recognition.UtteranceEndMS == 0 {
		c.Recognition.UtteranceEndMS = 3000
	}
	if c.Recognition.KeepAliveSeconds == 0 {
		c.Recognition.KeepAliveSeconds = 10
	}
	if c.Summary.Model == "" {
		c.Summary.Model = "gpt-4"
	}
	if c.Summary.WindowLines == 0 {
		c.Summary.WindowLines = 20
	}
	if c.Summary.ContextSummaries == 0 {
		c.Summary.ContextSummaries = 3
	}
	if c.Answer.Model == "" {
		c.Answer.Model = "gpt-4-turbo"
	}
	if c.Answer.BaseURL == "" {
		c.Answer.BaseURL = "https://api.openai.com/v1"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}
