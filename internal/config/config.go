package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "GIDLE"
	appDirName = "ghost-idler"

	KeyAutoResume      = "auto_resume"
	KeyVerboseLogging  = "verbose_logging"
	KeyDataDir         = "data_dir"
	KeyInstallDir      = "install_dir"
	KeyStatePath       = "state.path"
	KeyHistoryPath     = "history.path"
	KeyHistoryDays     = "history.retention_days"
	KeyWorkspaceRoot   = "workspace.root"
	KeyLogPath         = "log.path"
	KeyStartTimeout    = "timeouts.start"
	KeyKillGrace       = "timeouts.kill_grace"
	KeyPersistDebounce = "timeouts.persist_debounce"
	KeyRestoreDelay    = "timeouts.restore_delay"
	KeyMetricsAddr     = "metrics.addr"

	stateFileName   = "state.toml"
	historyFileName = "history.db"
	workspacesDir   = "workspaces"
	logFileName     = "gidle.log"
	lockFileName    = "gidle.lock"
)

type Timeouts struct {
	Start           time.Duration
	KillGrace       time.Duration
	PersistDebounce time.Duration
	RestoreDelay    time.Duration
}

type Config struct {
	AutoResume       bool
	VerboseLogging   bool
	ConfigFile       string
	DataDir          string
	InstallDir       string
	StatePath        string
	HistoryPath      string
	HistoryRetention time.Duration
	WorkspaceRoot    string
	LogPath          string
	LockPath         string
	MetricsAddr      string
	Timeouts         Timeouts
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Start:           2 * time.Second,
		KillGrace:       3 * time.Second,
		PersistDebounce: 50 * time.Millisecond,
		RestoreDelay:    100 * time.Millisecond,
	}
}

// Load reads config.toml from the user config directory (or configFile when
// set), applies GIDLE_* environment overrides and resolves derived paths.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", appDirName)

	setDefaults(v, configDir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(configDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	dataDir, err := normalizePath(v.GetString(KeyDataDir))
	if err != nil {
		return Config{}, err
	}

	installDir := v.GetString(KeyInstallDir)
	if installDir == "" {
		installDir, err = executableDir()
		if err != nil {
			return Config{}, err
		}
	}
	installDir, err = normalizePath(installDir)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AutoResume:     v.GetBool(KeyAutoResume),
		VerboseLogging: v.GetBool(KeyVerboseLogging),
		ConfigFile:     v.ConfigFileUsed(),
		DataDir:        dataDir,
		InstallDir:     installDir,
		LockPath:       filepath.Join(dataDir, lockFileName),
		MetricsAddr:    strings.TrimSpace(v.GetString(KeyMetricsAddr)),
		Timeouts: Timeouts{
			Start:           v.GetDuration(KeyStartTimeout),
			KillGrace:       v.GetDuration(KeyKillGrace),
			PersistDebounce: v.GetDuration(KeyPersistDebounce),
			RestoreDelay:    v.GetDuration(KeyRestoreDelay),
		},
		HistoryRetention: time.Duration(v.GetInt(KeyHistoryDays)) * 24 * time.Hour,
	}

	paths := []struct {
		key      string
		fallback string
		target   *string
	}{
		{key: KeyStatePath, fallback: stateFileName, target: &cfg.StatePath},
		{key: KeyHistoryPath, fallback: historyFileName, target: &cfg.HistoryPath},
		{key: KeyWorkspaceRoot, fallback: workspacesDir, target: &cfg.WorkspaceRoot},
		{key: KeyLogPath, fallback: filepath.Join("logs", logFileName), target: &cfg.LogPath},
	}
	for _, p := range paths {
		raw := v.GetString(p.key)
		if raw == "" {
			raw = filepath.Join(dataDir, p.fallback)
		}
		resolved, err := normalizePath(raw)
		if err != nil {
			return Config{}, err
		}
		*p.target = resolved
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	defaults := DefaultTimeouts()

	v.SetDefault(KeyAutoResume, true)
	v.SetDefault(KeyVerboseLogging, false)
	v.SetDefault(KeyDataDir, configDir)
	v.SetDefault(KeyStartTimeout, defaults.Start)
	v.SetDefault(KeyKillGrace, defaults.KillGrace)
	v.SetDefault(KeyPersistDebounce, defaults.PersistDebounce)
	v.SetDefault(KeyRestoreDelay, defaults.RestoreDelay)
	v.SetDefault(KeyHistoryDays, 90)
	v.SetDefault(KeyMetricsAddr, "")
}

func (c Config) validate() error {
	durations := []struct {
		key   string
		value time.Duration
	}{
		{key: KeyStartTimeout, value: c.Timeouts.Start},
		{key: KeyKillGrace, value: c.Timeouts.KillGrace},
		{key: KeyPersistDebounce, value: c.Timeouts.PersistDebounce},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.value)
		}
	}

	if c.Timeouts.RestoreDelay < 0 {
		return fmt.Errorf("%s must not be negative, got %s", KeyRestoreDelay, c.Timeouts.RestoreDelay)
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("%s must not be negative", KeyHistoryDays)
	}

	return nil
}

func normalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path is empty")
	}

	if strings.HasPrefix(path, "~"+string(filepath.Separator)) || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	return filepath.Clean(absPath), nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}

	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	return filepath.Dir(exe), nil
}
