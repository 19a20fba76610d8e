package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/javanstorm/pyshell/internal/toolkit"
)

// Config holds all pyshell configuration.
type Config struct {
	// DefaultPython pins the interpreter version ("3.12"); empty picks
	// the newest interpreter on the host.
	DefaultPython string `mapstructure:"default_python"`

	// Toolkit is the default GUI toolkit for new environments.
	Toolkit string `mapstructure:"toolkit"`

	// VenvDir is the environment directory name, relative to the
	// project root.
	VenvDir string `mapstructure:"venv_dir"`

	// Manifest is the dependency manifest filename looked up at the
	// project root.
	Manifest string `mapstructure:"manifest"`

	// Shell overrides $SHELL for subshell sessions.
	Shell string `mapstructure:"shell"`

	// Quiet suppresses informational output.
	Quiet bool `mapstructure:"quiet"`

	// GUIWidth and GUIHeight size the GUI terminal window.
	GUIWidth  int `mapstructure:"gui_width"`
	GUIHeight int `mapstructure:"gui_height"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultPython: "",
		Toolkit:       string(toolkit.DefaultID()),
		VenvDir:       ".venv",
		Manifest:      "requirements.txt",
		Shell:         "",
		Quiet:         false,
		GUIWidth:      900,
		GUIHeight:     600,
	}
}

// Global holds the loaded configuration.
var Global *Config

// Load reads configuration from file, environment, and defaults.
func Load() error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}

	// Set defaults
	defaults := DefaultConfig()
	viper.SetDefault("default_python", defaults.DefaultPython)
	viper.SetDefault("toolkit", defaults.Toolkit)
	viper.SetDefault("venv_dir", defaults.VenvDir)
	viper.SetDefault("manifest", defaults.Manifest)
	viper.SetDefault("shell", defaults.Shell)
	viper.SetDefault("quiet", defaults.Quiet)
	viper.SetDefault("gui_width", defaults.GUIWidth)
	viper.SetDefault("gui_height", defaults.GUIHeight)

	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	viper.AddConfigPath(paths.ConfigDir)
	viper.AddConfigPath(paths.DataDir)

	// Environment variable support: PYSHELL_TOOLKIT, PYSHELL_VENV_DIR, etc.
	viper.SetEnvPrefix("PYSHELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional - not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK - we use defaults
	}

	// Unmarshal into struct
	Global = &Config{}
	if err := viper.Unmarshal(Global); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

// ConfigFileUsed returns the path of the config file being used, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// Keys returns the configurable keys in stable order.
func Keys() []string {
	keys := []string{
		"default_python",
		"toolkit",
		"venv_dir",
		"manifest",
		"shell",
		"quiet",
		"gui_width",
		"gui_height",
	}
	sort.Strings(keys)
	return keys
}

// IsKnownKey reports whether key is a configurable setting.
func IsKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Value returns the effective value for a key, including defaults and
// environment overrides.
func Value(key string) any {
	return viper.Get(key)
}

// Save persists cfg to the config file and makes it the global
// configuration.
func Save(cfg *Config) error {
	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}
	if err := os.MkdirAll(paths.ConfigDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	viper.Set("default_python", cfg.DefaultPython)
	viper.Set("toolkit", cfg.Toolkit)
	viper.Set("venv_dir", cfg.VenvDir)
	viper.Set("manifest", cfg.Manifest)
	viper.Set("shell", cfg.Shell)
	viper.Set("quiet", cfg.Quiet)
	viper.Set("gui_width", cfg.GUIWidth)
	viper.Set("gui_height", cfg.GUIHeight)
	if err := viper.WriteConfigAs(paths.ConfigFile); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	Global = cfg
	return nil
}

// SaveValue persists a single setting to the config file and reloads
// the global configuration.
func SaveValue(key, value string) error {
	if !IsKnownKey(key) {
		return fmt.Errorf("unknown config key %q, available: %v", key, Keys())
	}

	paths, err := GetPaths()
	if err != nil {
		return fmt.Errorf("failed to determine paths: %w", err)
	}
	if err := os.MkdirAll(paths.ConfigDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	viper.Set(key, value)
	if err := viper.WriteConfigAs(paths.ConfigFile); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	Global = &Config{}
	if err := viper.Unmarshal(Global); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}
