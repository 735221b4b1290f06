package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "csv")
	t.Setenv("FANOUT_PORT", "8766")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "csv", cfg.StoreDriver)
	assert.Equal(t, 8766, cfg.FanoutPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "data/team_stat.csv", cfg.SchedulePath)
}

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	assert.Equal(t, "Arsenal", p.Team)
	assert.Equal(t, 0.2, p.Attribution.TestFraction)
	assert.EqualValues(t, 42, p.Attribution.Seed)
	assert.Equal(t, 4, p.Ranking.TopN("defense_stats"))
	assert.Equal(t, 1, p.Ranking.TopN("keepers_stats"))
	assert.Equal(t, 3, p.Ranking.TopN("unknown"))
	require.NoError(t, p.validate())
}

func TestLoadPipelineOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("team: Chelsea\naggregate:\n  workers: 4\n"), 0o644))

	p, err := LoadPipeline(path)
	require.NoError(t, err)
	assert.Equal(t, "Chelsea", p.Team)
	assert.Equal(t, 4, p.Aggregate.Workers)
	assert.Equal(t, 10, p.FBref.RequestsPerMinute)
}

func TestLoadPipelineRejectsBadFraction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("attribution:\n  test_fraction: 1.5\n"), 0o644))

	_, err := LoadPipeline(path)
	assert.Error(t, err)
}
