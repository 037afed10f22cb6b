package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime tunables. Values come from defaults, then
// an optional YAML file, then SIDETASK_* environment variables.
type Config struct {
	DBPath      string        `mapstructure:"db_path"`
	LegacyPath  string        `mapstructure:"legacy_path"`
	ListenAddr  string        `mapstructure:"listen_addr"`
	GraceWindow time.Duration `mapstructure:"grace_window"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
	LogLevel    string        `mapstructure:"log_level"`
}

func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		DBPath:      filepath.Join(dataDir, "sidetask.db"),
		LegacyPath:  filepath.Join(dataDir, "legacy_tasks.json"),
		ListenAddr:  "127.0.0.1:8425",
		GraceWindow: 5 * time.Second,
		SettleDelay: 220 * time.Millisecond,
		LogLevel:    "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sidetask"
	}
	return filepath.Join(home, ".sidetask")
}

// Load merges the global config file (~/.sidetask/config.yaml), the
// project-local one (./.sidetask/config.yaml), and the environment
// over the defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if home, err := os.UserHomeDir(); err == nil {
		loadFile(filepath.Join(home, ".sidetask", "config.yaml"), cfg)
	}
	if cwd, err := os.Getwd(); err == nil {
		loadFile(filepath.Join(cwd, ".sidetask", "config.yaml"), cfg)
	}

	v := viper.New()
	v.SetEnvPrefix("SIDETASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"db_path", "legacy_path", "listen_addr", "grace_window", "settle_delay", "log_level"} {
		if v.IsSet(key) {
			applyEnv(cfg, key, v)
		}
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return
	}
	_ = v.Unmarshal(cfg)
}

func applyEnv(cfg *Config, key string, v *viper.Viper) {
	switch key {
	case "db_path":
		cfg.DBPath = v.GetString(key)
	case "legacy_path":
		cfg.LegacyPath = v.GetString(key)
	case "listen_addr":
		cfg.ListenAddr = v.GetString(key)
	case "grace_window":
		cfg.GraceWindow = v.GetDuration(key)
	case "settle_delay":
		cfg.SettleDelay = v.GetDuration(key)
	case "log_level":
		cfg.LogLevel = v.GetString(key)
	}
}

// SlogLevel maps the configured level name onto slog's scale.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
