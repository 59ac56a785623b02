package config

import "fmt"

type MatchConfig struct {
	MaxMatchesPerUser  int     `mapstructure:"max_matches_per_user"`
	MinSimilarityScore float64 `mapstructure:"min_similarity_score"`
	DedupThreshold     float64 `mapstructure:"dedup_threshold"`
	DedupWindowDays    int     `mapstructure:"dedup_window_days"`
}

func (config *MatchConfig) setDefaults() {
	if config.MaxMatchesPerUser == 0 {
		config.MaxMatchesPerUser = 50
	}
	if config.MinSimilarityScore == 0 {
		config.MinSimilarityScore = 0.3
	}
	if config.DedupThreshold == 0 {
		config.DedupThreshold = 0.85
	}
	if config.DedupWindowDays == 0 {
		config.DedupWindowDays = 30
	}
}

func (config MatchConfig) validate() error {

	if config.MaxMatchesPerUser < 1 {
		return fmt.Errorf("max_matches_per_user must be at least 1")
	}

	if config.MinSimilarityScore < -1 || config.MinSimilarityScore > 1 {
		return fmt.Errorf("min_similarity_score must be within [-1, 1]")
	}

	if config.DedupWindowDays < 1 {
		return fmt.Errorf("dedup_window_days must be at least 1")
	}

	return nil
}
