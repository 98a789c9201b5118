package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadReturnsDefaultsWhenFirstSaveFails(t *testing.T) {
	t.Parallel()

	// A dangling symlink reads as missing but cannot be created as a directory.
	dir := t.TempDir()
	link := filepath.Join(dir, "conf.d")
	require.NoError(t, os.Symlink(filepath.Join(dir, "nowhere"), link))

	cfg, err := Load(filepath.Join(link, "config.yaml"))
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("listen: \"\"\nweek_start: friday\nday_order: random\ncreate_delay: 250ms\nstrict_times: true\nexport:\n  cron: \"@hourly\"\n")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, WeekStartSunday, cfg.WeekStart)
	assert.Equal(t, DayOrderInsertion, cfg.DayOrder)
	assert.Equal(t, 250*time.Millisecond, cfg.CreateDelay)
	assert.True(t, cfg.StrictTimes)
	assert.Equal(t, "@hourly", cfg.Export.Cron)
	assert.Equal(t, defaultExportFile, cfg.Export.Filename)
	assert.Equal(t, defaultCurrentUser, cfg.CurrentUser)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Load("")
	require.Error(t, err)
	require.Error(t, Save("", DefaultConfig()))
	require.Error(t, Save("x.yaml", nil))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Madrid"
	cfg.WeekStart = WeekStartMonday
	cfg.ICS = []ICSConfig{{URL: "https://example.com/team.ics", ID: "team"}}

	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, time.Monday, got.FirstWeekday())
}

func TestLocation(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	cfg.Timezone = "Mars/Olympus_Mons"
	loc, err = cfg.Location()
	require.Error(t, err)
	assert.Equal(t, time.Local, loc)
}
