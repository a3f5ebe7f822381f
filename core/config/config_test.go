package config_test

import (
	"testing"

	"market-sync/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "id_seq", cfg.Database.SequenceName)
	assert.Equal(t, int64(1000), cfg.Database.SequenceIncrement)
	assert.Equal(t, "US", cfg.Feed.Venue)
	assert.Equal(t, 1000, cfg.Feed.MinRequestIntervalMS)
	assert.Equal(t, 19, cfg.Feed.PublishHour)
	assert.Equal(t, "reference-data", cfg.Storage.Bucket)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("FEED_API_KEY", "secret")
	t.Setenv("FEED_PUBLISH_HOUR", "20")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Feed.APIKey)
	assert.Equal(t, 20, cfg.Feed.PublishHour)
}
