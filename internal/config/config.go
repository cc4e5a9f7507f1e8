// Package config loads hostkit settings from flags, environment, .env files and hostkit.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. HOSTKIT_LOG_LEVEL.
const EnvPrefix = "HOSTKIT"

// Window variants for Dialog.OpenWindow.
const (
	WindowVariantIgnoreParent  = "ignore-parent"
	WindowVariantForwardParent = "forward-parent"
)

// Settings is the resolved configuration.
type Settings struct {
	LogLevel        string        `mapstructure:"log-level"`
	LogFile         string        `mapstructure:"log-file"`
	TestMode        bool          `mapstructure:"test-mode"`
	BaseDir         string        `mapstructure:"base-dir"`
	PrefsFile       string        `mapstructure:"prefs-file"`
	DescriptorTable string        `mapstructure:"descriptor-table"`
	WindowVariant   string        `mapstructure:"window-variant"`
	ReadDirRecurse  bool          `mapstructure:"readdir-recursive"`
	HTTPTimeout     time.Duration `mapstructure:"http-timeout"`
	AppName         string        `mapstructure:"app-name"`
	AppVendor       string        `mapstructure:"app-vendor"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		LogLevel:      "info",
		BaseDir:       ".",
		WindowVariant: WindowVariantForwardParent,
		HTTPTimeout:   30 * time.Second,
		AppName:       "hostkit",
		AppVendor:     "hostkit",
	}
}

// ConfigDir returns ~/.config/hostkit, or "" when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "hostkit")
}

// SetDefaults registers the built-in settings on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("test-mode", d.TestMode)
	v.SetDefault("base-dir", d.BaseDir)
	v.SetDefault("prefs-file", d.PrefsFile)
	v.SetDefault("descriptor-table", d.DescriptorTable)
	v.SetDefault("window-variant", d.WindowVariant)
	v.SetDefault("readdir-recursive", d.ReadDirRecurse)
	v.SetDefault("http-timeout", d.HTTPTimeout)
	v.SetDefault("app-name", d.AppName)
	v.SetDefault("app-vendor", d.AppVendor)
}

// Load resolves settings from v. Precedence: values set on v (bound flags),
// environment, hostkit.yaml, .env files, defaults.
func Load(v *viper.Viper, dirs ...string) (Settings, error) {
	if v == nil {
		v = viper.New()
	}
	if len(dirs) == 0 {
		dirs = []string{ConfigDir(), "."}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := loadDotEnv(v, filepath.Join(dir, ".env")); err != nil {
			return Settings{}, err
		}
	}

	v.SetConfigName("hostkit")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		if dir != "" {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// loadDotEnv feeds HOSTKIT_* entries of a .env file into v as defaults,
// so real environment variables and config files still win.
func loadDotEnv(v *viper.Viper, envPath string) error {
	data, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read .env file %s: %w", envPath, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", envPath, err)
	}

	for key, value := range envMap {
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix+"_"))
		v.SetDefault(strings.ReplaceAll(name, "_", "-"), value)
	}
	return nil
}

// Validate checks enumerated settings.
func (s Settings) Validate() error {
	switch s.WindowVariant {
	case WindowVariantIgnoreParent, WindowVariantForwardParent:
	default:
		return fmt.Errorf("invalid window-variant %q: expected %s or %s", s.WindowVariant, WindowVariantIgnoreParent, WindowVariantForwardParent)
	}
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http-timeout must not be negative")
	}
	return nil
}
