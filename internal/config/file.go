package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileOverlay is the optional YAML document layered over the environment.
// Only fields present in the file override loaded values.
type fileOverlay struct {
	Debug *bool `yaml:"debug"`
	AI    struct {
		Model          *string        `yaml:"model"`
		BaseURL        *string        `yaml:"baseURL"`
		MaxTokens      *int           `yaml:"maxTokens"`
		Temperature    *float64       `yaml:"temperature"`
		Timeout        *time.Duration `yaml:"timeout"`
		RequestsPerSec *float64       `yaml:"requestsPerSecond"`
		Burst          *int           `yaml:"burst"`
	} `yaml:"ai"`
	Behavior struct {
		MaxHistory   *int    `yaml:"maxHistory"`
		SystemPrompt *string `yaml:"systemPrompt"`
		PersonaID    *string `yaml:"persona"`
	} `yaml:"behavior"`
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var overlay fileOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if overlay.Debug != nil {
		cfg.Debug = *overlay.Debug
	}

	ai := overlay.AI
	if ai.Model != nil {
		cfg.AI.Model = *ai.Model
	}
	if ai.BaseURL != nil {
		cfg.AI.BaseURL = *ai.BaseURL
	}
	if ai.MaxTokens != nil {
		cfg.AI.MaxTokens = *ai.MaxTokens
	}
	if ai.Temperature != nil {
		cfg.AI.Temperature = *ai.Temperature
	}
	if ai.Timeout != nil {
		cfg.AI.Timeout = *ai.Timeout
	}
	if ai.RequestsPerSec != nil {
		cfg.AI.RequestsPerSec = *ai.RequestsPerSec
	}
	if ai.Burst != nil && *ai.Burst > 0 {
		cfg.AI.Burst = *ai.Burst
	}

	behavior := overlay.Behavior
	if behavior.MaxHistory != nil {
		if *behavior.MaxHistory <= 0 {
			return fmt.Errorf("config file %s: behavior.maxHistory must be positive, got %d", path, *behavior.MaxHistory)
		}
		cfg.Behavior.MaxHistory = *behavior.MaxHistory
	}
	if behavior.SystemPrompt != nil {
		cfg.Behavior.SystemPrompt = *behavior.SystemPrompt
	}
	if behavior.PersonaID != nil {
		cfg.Behavior.PersonaID = *behavior.PersonaID
	}
	return nil
}
