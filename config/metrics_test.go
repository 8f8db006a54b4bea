package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasshouse/server/internal/models"
)

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()

	assert.Equal(t, 90, cfg.Cohorts.NewMax)
	assert.Equal(t, 180, cfg.Cohorts.MidMax)
	assert.Equal(t, 365, cfg.Cohorts.OldMax)
	assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), cfg.EraCutoff)
	assert.Len(t, cfg.ActionBands, 4)
	assert.NoError(t, cfg.Validate())
}

func TestMetricsConfig_ValidateRejectsBadThresholds(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.Cohorts.MidMax = 90
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mid_max")

	cfg = DefaultMetricsConfig()
	cfg.Cohorts.NewMax = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultMetricsConfig()
	cfg.EraCutoff = time.Time{}
	assert.Error(t, cfg.Validate())
}

func TestMetricsConfig_ValidateRejectsBadBands(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.ActionBands = nil
	assert.Error(t, cfg.Validate())

	// Out of order.
	cfg = DefaultMetricsConfig()
	cfg.ActionBands = []ActionBand{
		{MinWinRate: 40, Action: models.ActionPause},
		{MinWinRate: 80, Action: models.ActionGrow},
		{MinWinRate: 0, Action: models.ActionExit},
	}
	assert.Error(t, cfg.Validate())

	// No zero floor.
	cfg = DefaultMetricsConfig()
	cfg.ActionBands = []ActionBand{
		{MinWinRate: 80, Action: models.ActionGrow},
		{MinWinRate: 40, Action: models.ActionPause},
	}
	assert.Error(t, cfg.Validate())
}

func TestMetricsConfig_ValidateRejectsBadCosts(t *testing.T) {
	cfg := DefaultMetricsConfig()
	cfg.CostModel.RenovationPct = -0.01
	assert.Error(t, cfg.Validate())

	cfg = DefaultMetricsConfig()
	cfg.CostModel.RenovationMin = 50000
	cfg.CostModel.RenovationMax = 35000
	assert.Error(t, cfg.Validate())
}

func TestLoadMetricsConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMetricsConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMetricsConfig().Cohorts, cfg.Cohorts)
}

func TestLoadMetricsConfig_PartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	data := `{"era_cutoff": "2026-01-01", "cohorts": {"new_max": 60, "mid_max": 120, "old_max": 300}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadMetricsConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Cohorts.NewMax)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), cfg.EraCutoff)
	// Unset sections keep the defaults.
	assert.Equal(t, DefaultMetricsConfig().CostModel, cfg.CostModel)
	assert.Equal(t, DefaultMetricsConfig().ActionBands, cfg.ActionBands)
}

func TestLoadMetricsConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadMetricsConfig(path)
	assert.Error(t, err)
}

func TestLoadMetricsConfig_InvalidCutoff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"era_cutoff": "10-09-2025"}`), 0644))

	_, err := LoadMetricsConfig(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadMetricsConfig_InvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	data := `{"cohorts": {"new_max": 180, "mid_max": 90, "old_max": 365}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := LoadMetricsConfig(path)
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultMetricsConfig()

	overrides := &Config{}
	overrides.CostOverrides.MonthlyHoldingCost = 2000

	out := ApplyOverrides(cfg, overrides)
	assert.Equal(t, 2000.0, out.CostModel.MonthlyHoldingCost)
	// Unset override leaves the file value.
	assert.Equal(t, cfg.CostModel.RenovationPct, out.CostModel.RenovationPct)

	assert.Equal(t, cfg, ApplyOverrides(cfg, nil))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5260", cfg.Server.Port)
	assert.Equal(t, "database/glasshouse.db", cfg.Server.DBPath)
	assert.Equal(t, 100, cfg.BatchProcessing.MaxBatchSize)
	assert.Equal(t, 0.0, cfg.CostOverrides.MonthlyHoldingCost)
}
