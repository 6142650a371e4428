// ABOUTME: Tests for YAML filter presets
// ABOUTME: Covers loading, merging with overrides and unknown names
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/leadbook/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const presetYAML = `
hot-valuations:
  origin: valuation
  priority: hot
  unique_only: true
big-targets:
  revenue_min: 1000000
  date_from: 2024-01-01T00:00:00Z
`

func writePresets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadPresets(t *testing.T) {
	presets, err := LoadPresets(writePresets(t, presetYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"big-targets", "hot-valuations"}, presets.Names())

	hot := presets["hot-valuations"]
	assert.Equal(t, models.OriginValuation, hot.Origin)
	assert.Equal(t, models.PriorityHot, hot.Priority)
	assert.True(t, hot.UniqueOnly)

	big := presets["big-targets"]
	require.NotNil(t, big.RevenueMin)
	assert.Equal(t, 1_000_000.0, *big.RevenueMin)
	require.NotNil(t, big.DateFrom)
	assert.Equal(t, 2024, big.DateFrom.Year())
}

func TestResolveMergesOverrides(t *testing.T) {
	presets, err := LoadPresets(writePresets(t, presetYAML))
	require.NoError(t, err)

	f, err := presets.Resolve("hot-valuations", models.Filters{Origin: models.OriginAdvisor, Search: "acme"})
	require.NoError(t, err)
	assert.Equal(t, models.OriginAdvisor, f.Origin)
	assert.Equal(t, "acme", f.Search)
	assert.Equal(t, models.PriorityHot, f.Priority)
	assert.True(t, f.UniqueOnly)

	_, err = presets.Resolve("nope", models.Filters{})
	assert.ErrorIs(t, err, ErrUnknownPreset)

	f, err = presets.Resolve("", models.Filters{Sector: "food"})
	require.NoError(t, err)
	assert.Equal(t, "food", f.Sector)
}

func TestLoadPresetsMissingFile(t *testing.T) {
	presets, err := LoadPresets(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, presets)
}

func TestLoadPresetsRejectsUnknownOrigin(t *testing.T) {
	_, err := LoadPresets(writePresets(t, "bad:\n  origin: newsletter\n"))
	assert.ErrorIs(t, err, models.ErrUnknownOrigin)
}
