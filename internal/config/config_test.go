package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_TableRefsResolved(t *testing.T) {
	// A config that never passes through Load/Normalize must still
	// carry usable table refs; empty refs make every fetch fail.
	cfg := DefaultConfig()
	assert.Equal(t, "events.csv", cfg.Tables.Events)
	assert.Equal(t, "groups.csv", cfg.Tables.Groups)
	assert.Equal(t, "actions.csv", cfg.Tables.Actions)
	assert.Equal(t, "action_types.csv", cfg.Tables.ActionTypes)
	assert.Equal(t, "media.csv", cfg.Tables.Media)
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "civicline.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "all", cfg.Mode)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, 0.6, cfg.Link.Threshold)
	assert.Equal(t, 0.92, cfg.Link.ContainScore)
	assert.Equal(t, 0.6, cfg.View.VisibleThreshold)
	assert.Equal(t, 650, cfg.View.CooldownMillis)
	assert.Equal(t, 1000, cfg.View.MinNavWidth)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_PartialConfigFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "civicline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: past\ndata_dir: /srv/civic\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "past", cfg.Mode)
	assert.Equal(t, "/srv/civic", cfg.DataDir)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "events.csv", cfg.Tables.Events)
	assert.Equal(t, "recaps", cfg.RecapDir)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "civicline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalize_OutOfRangeValuesReset(t *testing.T) {
	cfg := &Config{
		Mode: "sideways",
		Link: LinkConfig{Threshold: 1.5, ContainScore: -1},
		View: ViewConfig{VisibleThreshold: 2, CooldownMillis: -100},
	}
	cfg.Normalize()
	assert.Equal(t, "all", cfg.Mode)
	assert.Equal(t, 0.6, cfg.Link.Threshold)
	assert.Equal(t, 0.92, cfg.Link.ContainScore)
	assert.Equal(t, 0.6, cfg.View.VisibleThreshold)
	assert.Equal(t, 650, cfg.View.CooldownMillis)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "civicline.yaml")
	cfg := DefaultConfig()
	cfg.Mode = "upcoming"
	cfg.Tables.Events = "https://example.org/events.csv"
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "hunter2"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "upcoming", loaded.Mode)
	assert.Equal(t, "https://example.org/events.csv", loaded.Tables.Events)
	require.NotNil(t, loaded.BasicAuth)
	assert.Equal(t, "admin", loaded.BasicAuth.Username)
}

func TestSave_Validation(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
