package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AIConfig struct {
	APIKey               string        `mapstructure:"api_key"`
	TextModel            string        `mapstructure:"text_model"`
	EmbeddingModel       string        `mapstructure:"embedding_model"`
	EmbeddingDimension   int           `mapstructure:"embedding_dimension"`
	MaxRequestsPerMinute float32       `mapstructure:"max_requests_per_minute"`
	MaxRequestsPerDay    float32       `mapstructure:"max_requests_per_day"`
	RetryBackoff         time.Duration `mapstructure:"retry_backoff"`
}

func (config *AIConfig) setDefaults() {
	if config.TextModel == "" {
		config.TextModel = "gemini-1.5-flash"
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = "text-embedding-004"
	}
	if config.EmbeddingDimension == 0 {
		config.EmbeddingDimension = 768
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 5 * time.Second
	}
}

func (config AIConfig) validate() error {

	var missingFields []string

	if config.APIKey == "" {
		missingFields = append(missingFields, "api_key")
	}

	if len(missingFields) > 0 {
		return fmt.Errorf("missing required variables: %s", strings.Join(missingFields, ", "))
	}

	if config.EmbeddingDimension < 0 {
		return fmt.Errorf("embedding_dimension must be positive")
	}

	return nil
}

func (config AIConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("ai.api_key", "AI_KEY"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("ai.text_model", "AI_TEXT_MODEL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("ai.embedding_model", "AI_EMBEDDING_MODEL"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
