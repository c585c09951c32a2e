package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	dataDir := filepath.Join(home, ".config", "ghost-idler")
	assert.True(t, cfg.AutoResume)
	assert.False(t, cfg.VerboseLogging)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "state.toml"), cfg.StatePath)
	assert.Equal(t, filepath.Join(dataDir, "history.db"), cfg.HistoryPath)
	assert.Equal(t, filepath.Join(dataDir, "workspaces"), cfg.WorkspaceRoot)
	assert.Equal(t, filepath.Join(dataDir, "logs", "gidle.log"), cfg.LogPath)
	assert.Equal(t, filepath.Join(dataDir, "gidle.lock"), cfg.LockPath)
	assert.Equal(t, DefaultTimeouts(), cfg.Timeouts)
	assert.Equal(t, 90*24*time.Hour, cfg.HistoryRetention)
	assert.Empty(t, cfg.MetricsAddr)
	assert.NotEmpty(t, cfg.InstallDir)
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	dataDir := filepath.Join(home, "data")
	configPath := filepath.Join(home, ".config", "ghost-idler", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o700))
	content := "auto_resume = false\n" +
		"verbose_logging = true\n" +
		"data_dir = '" + dataDir + "'\n" +
		"install_dir = '" + home + "'\n" +
		"\n[timeouts]\nstart = '5s'\nkill_grace = '1s'\n" +
		"\n[history]\nretention_days = 7\n" +
		"\n[metrics]\naddr = '127.0.0.1:9464'\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.False(t, cfg.AutoResume)
	assert.True(t, cfg.VerboseLogging)
	assert.Equal(t, configPath, cfg.ConfigFile)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, home, cfg.InstallDir)
	assert.Equal(t, filepath.Join(dataDir, "state.toml"), cfg.StatePath)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Start)
	assert.Equal(t, time.Second, cfg.Timeouts.KillGrace)
	assert.Equal(t, 50*time.Millisecond, cfg.Timeouts.PersistDebounce)
	assert.Equal(t, 7*24*time.Hour, cfg.HistoryRetention)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
}

func TestLoadEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("GIDLE_AUTO_RESUME", "false")
	t.Setenv("GIDLE_STATE_PATH", filepath.Join(home, "custom", "sessions.toml"))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.False(t, cfg.AutoResume)
	assert.Equal(t, filepath.Join(home, "custom", "sessions.toml"), cfg.StatePath)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	configPath := filepath.Join(home, "elsewhere.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[timeouts]\nkill_grace = '0s'\n"), 0o600))

	_, err := Load(viper.New(), configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyKillGrace)
}

func TestLoadMissingExplicitConfigFileFails(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	_, err := Load(viper.New(), filepath.Join(home, "missing.toml"))
	require.Error(t, err)
}
