package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "data", cfg.Paths.DataDir)
	assert.GreaterOrEqual(t, cfg.Processing.NumWorkers, 1)
	assert.True(t, cfg.Processing.ExcludeInvalid)
	assert.Equal(t, []string{"Airway", "Hepatic", "Portal"}, cfg.Study.RiskStructures)
	assert.Equal(t, "N1", cfg.Study.OperatorAliases["JM"])
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Paths, cfg.Paths)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Paths.DataDir = "/srv/study"
	cfg.Processing.NumWorkers = 3
	cfg.Study.ExcludedOperators = nil
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/study", loaded.Paths.DataDir)
	assert.Equal(t, 3, loaded.Processing.NumWorkers)
	assert.Empty(t, loaded.Study.ExcludedOperators)
	assert.Equal(t, cfg.Study.OperatorAliases, loaded.Study.OperatorAliases)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  writePlots: false\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Output.WritePlots)
	assert.True(t, cfg.Output.WriteSQLite)
	assert.Equal(t, "plots", cfg.Paths.PlotDir)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths:\n  dataDir: from-file\n"), 0644))

	t.Setenv("CRYOTRACK_PATHS_DATA_DIR", "from-env")
	t.Setenv("CRYOTRACK_PROCESSING_NUM_WORKERS", "2")
	t.Setenv("CRYOTRACK_STUDY_RISK_STRUCTURES", "Portal,Hepatic")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Paths.DataDir)
	assert.Equal(t, 2, cfg.Processing.NumWorkers)
	assert.Equal(t, []string{"Portal", "Hepatic"}, cfg.Study.RiskStructures)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processing:\n  numWorkers: 0\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("processing: [\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cryotrack.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "riskStructures:")
	assert.Contains(t, string(data), "baselineOperator: JV")
}
