package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type IngestConfig struct {
	Queries                 []string      `mapstructure:"queries"`
	Location                string        `mapstructure:"location"`
	Interval                time.Duration `mapstructure:"interval"`
	MaxPagesPerQuery        int           `mapstructure:"max_pages_per_query"`
	PageSize                int           `mapstructure:"page_size"`
	MaxRequestsPerSecond    float32       `mapstructure:"max_requests_per_second"`
	SearchAPIKey            string        `mapstructure:"search_api_key"`
	SearchAPIHost           string        `mapstructure:"search_api_host"`
	RewriteFallbackMaxChars int           `mapstructure:"rewrite_fallback_max_chars"`
}

func (config *IngestConfig) setDefaults() {
	if config.Interval == 0 {
		config.Interval = 6 * time.Hour
	}
	if config.MaxPagesPerQuery == 0 {
		config.MaxPagesPerQuery = 5
	}
	if config.PageSize == 0 {
		config.PageSize = 20
	}
	if config.RewriteFallbackMaxChars == 0 {
		config.RewriteFallbackMaxChars = 1500
	}
}

func (config IngestConfig) validate() error {

	if config.MaxPagesPerQuery < 1 {
		return fmt.Errorf("max_pages_per_query must be at least 1")
	}

	if config.PageSize < 1 || config.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}

	return nil
}

func (config IngestConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("ingest.search_api_key", "SEARCH_API_KEY"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("ingest.search_api_host", "SEARCH_API_HOST"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
