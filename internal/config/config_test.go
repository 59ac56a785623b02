package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {

	os.Setenv("CONFIG_PATH", "../../configs/config.yaml")

	os.Setenv("AI_KEY", "overrideKey")
	os.Setenv("AI_TEXT_MODEL", "super_duper_model")
	os.Setenv("AI_EMBEDDING_MODEL", "super_duper_embeddings")
	os.Setenv("DB_CONNECTION_STRING", "newConnectionString")
	os.Setenv("SEARCH_API_KEY", "overrideSearchKey")
	os.Setenv("SEARCH_API_HOST", "jobs.example.com")
	os.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Get()

	assert.Equal(t, "overrideKey", cfg.AI.APIKey)
	assert.Equal(t, "super_duper_model", cfg.AI.TextModel)
	assert.Equal(t, "super_duper_embeddings", cfg.AI.EmbeddingModel)
	assert.Equal(t, "newConnectionString", cfg.DB.ConnectionString)
	assert.Equal(t, "overrideSearchKey", cfg.Ingest.SearchAPIKey)
	assert.Equal(t, "jobs.example.com", cfg.Ingest.SearchAPIHost)
	assert.Equal(t, LevelDebug, cfg.Logger.LogLevel)
}

func Test_Config_DefaultsAreApplied(t *testing.T) {

	os.Setenv("CONFIG_PATH", "../../configs/config.yaml")
	os.Setenv("AI_KEY", "someKey")

	cfg := Get()

	assert.Equal(t, 768, cfg.AI.EmbeddingDimension)
	assert.Equal(t, 50, cfg.Match.MaxMatchesPerUser)
	assert.Equal(t, 0.85, cfg.Match.DedupThreshold)
	assert.Equal(t, 30, cfg.Match.DedupWindowDays)
	assert.Equal(t, 1500, cfg.Ingest.RewriteFallbackMaxChars)
	assert.NotEmpty(t, cfg.Ingest.Queries)
}

func Test_MatchConfig_Validation(t *testing.T) {

	cfg := MatchConfig{}
	cfg.setDefaults()
	assert.NoError(t, cfg.validate())

	cfg.MinSimilarityScore = 2
	assert.Error(t, cfg.validate())

	cfg = MatchConfig{MaxMatchesPerUser: -1, MinSimilarityScore: 0.3, DedupWindowDays: 30}
	assert.Error(t, cfg.validate())
}

func Test_IngestConfig_Validation(t *testing.T) {

	cfg := IngestConfig{}
	cfg.setDefaults()
	assert.NoError(t, cfg.validate())

	cfg.PageSize = 500
	assert.Error(t, cfg.validate())
}
