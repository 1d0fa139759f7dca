// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mnemo Contributors

package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	mnemoerr "github.com/mnemo-dev/mnemo/pkg/errors"
)

// Config is the top-level mnemo configuration.
type Config struct {
	DataDir   string          `mapstructure:"data_dir"`
	Source    SourceConfig    `mapstructure:"source"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Summaries SummariesConfig `mapstructure:"summaries"`
	Labels    LabelsConfig    `mapstructure:"labels"`
	Filter    FilterConfig    `mapstructure:"filter"`
}

// SourceConfig selects where raw messages come from.
type SourceConfig struct {
	Type   string `mapstructure:"type"`    // "imessage"
	DBPath string `mapstructure:"db_path"` // empty means the platform default
}

// DirectoryConfig controls contact-name resolution.
type DirectoryConfig struct {
	Type          string            `mapstructure:"type"` // "addressbook", "static", "none"
	DefaultRegion string            `mapstructure:"default_region"`
	Entries       map[string]string `mapstructure:"entries"` // static directory contents
}

// EngineConfig selects and configures the language model.
type EngineConfig struct {
	Provider  string `mapstructure:"provider"` // "anthropic" or "openai"
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	Endpoint  string `mapstructure:"endpoint"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// SummariesConfig bounds generated summary lengths in words.
type SummariesConfig struct {
	WeeklyMaxWords   int `mapstructure:"weekly_max_words"`
	WeeklyMinWords   int `mapstructure:"weekly_min_words"`
	IdentityMaxWords int `mapstructure:"identity_max_words"`
	IdentityMinWords int `mapstructure:"identity_min_words"`
}

// LabelsConfig holds the candidate label sets for identity classification.
type LabelsConfig struct {
	Traits        []string `mapstructure:"traits"`
	Relationships []string `mapstructure:"relationships"`
	Topics        []string `mapstructure:"topics"`
}

// FilterConfig controls which raw messages are dropped at ingestion.
type FilterConfig struct {
	NoisePatterns []string `mapstructure:"noise_patterns"`
	MinWords      int      `mapstructure:"min_words"`
}

// SetDefaults registers every default on v. Candidate label sets and noise
// patterns default to the sets the pipeline was originally tuned with.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("source.type", "imessage")
	v.SetDefault("source.db_path", "")
	v.SetDefault("directory.type", "addressbook")
	v.SetDefault("directory.default_region", "1")
	v.SetDefault("engine.provider", "anthropic")
	v.SetDefault("engine.model", "claude-haiku-4-5")
	v.SetDefault("engine.max_tokens", 2048)
	v.SetDefault("summaries.weekly_max_words", 500)
	v.SetDefault("summaries.weekly_min_words", 200)
	v.SetDefault("summaries.identity_max_words", 300)
	v.SetDefault("summaries.identity_min_words", 100)
	v.SetDefault("labels.traits", []string{
		"friendly", "professional", "formal", "casual", "emotional",
		"analytical", "supportive", "demanding", "humorous", "serious",
	})
	v.SetDefault("labels.relationships", []string{
		"close friend", "family member", "professional contact",
		"acquaintance", "romantic interest", "mentor/mentee",
	})
	v.SetDefault("labels.topics", []string{
		"work", "family", "hobbies", "travel", "food",
		"entertainment", "sports", "technology", "education",
		"personal life", "future plans", "shared memories",
	})
	v.SetDefault("filter.noise_patterns", []string{
		"liked", "emphasized", "sent you $", "usps", "tracking",
		"duolingo", "bofa:", "u.s. post",
	})
	v.SetDefault("filter.min_words", 2)
}

// SetupEnv wires MNEMO_* environment overrides (dots become underscores,
// e.g. MNEMO_ENGINE_API_KEY).
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("MNEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, mnemoerr.Errorf(mnemoerr.CodeConfigLoadReadFailure, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns every
// problem found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateSource()...)
	errs = append(errs, c.validateDirectory()...)
	errs = append(errs, c.validateEngine()...)
	errs = append(errs, c.validateSummaries()...)
	errs = append(errs, c.validateLabels()...)

	return errs
}

func (c *Config) validateSource() []error {
	var errs []error
	if c.Source.Type != "imessage" {
		errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
			"config: source.type must be \"imessage\", got %q", c.Source.Type))
	}
	return errs
}

func (c *Config) validateDirectory() []error {
	var errs []error
	switch c.Directory.Type {
	case "addressbook", "static", "none":
	default:
		errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
			"config: directory.type must be one of [addressbook, static, none], got %q", c.Directory.Type))
	}
	return errs
}

func (c *Config) validateEngine() []error {
	var errs []error
	switch c.Engine.Provider {
	case "anthropic", "openai":
	default:
		errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
			"config: engine.provider must be one of [anthropic, openai], got %q", c.Engine.Provider))
	}
	if c.Engine.Model == "" {
		errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
			"config: engine.model must not be empty"))
	}
	if c.Engine.MaxTokens <= 0 {
		errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
			"config: engine.max_tokens must be positive, got %d", c.Engine.MaxTokens))
	}
	return errs
}

func (c *Config) validateSummaries() []error {
	var errs []error
	pairs := []struct {
		name     string
		min, max int
	}{
		{"weekly", c.Summaries.WeeklyMinWords, c.Summaries.WeeklyMaxWords},
		{"identity", c.Summaries.IdentityMinWords, c.Summaries.IdentityMaxWords},
	}
	for _, p := range pairs {
		if p.min <= 0 || p.max <= 0 {
			errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
				"config: summaries.%s word bounds must be positive, got min=%d max=%d", p.name, p.min, p.max))
			continue
		}
		if p.min > p.max {
			errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
				"config: summaries.%s_min_words (%d) exceeds max_words (%d)", p.name, p.min, p.max))
		}
	}
	return errs
}

func (c *Config) validateLabels() []error {
	var errs []error
	sets := []struct {
		name   string
		labels []string
	}{
		{"traits", c.Labels.Traits},
		{"relationships", c.Labels.Relationships},
		{"topics", c.Labels.Topics},
	}
	for _, s := range sets {
		if len(s.labels) == 0 {
			errs = append(errs, mnemoerr.Errorf(mnemoerr.CodeConfigValidateInvalidValue,
				"config: labels.%s must not be empty", s.name))
		}
	}
	return errs
}
