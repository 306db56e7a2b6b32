// Copyright (c) 2026 Keymaster Team
// keysync - scheduled SSH public key synchronization
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads keysync settings from defaults, keysync.yaml, the
// environment (KEYSYNC_*) and command flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FlagKeyAnnotation marks a cobra flag as the override of a config key.
const FlagKeyAnnotation = "keysync/config-key"

// SystemDir holds the system-wide keysync.yaml.
const SystemDir = "/etc/keysync"

// Config is the effective keysync configuration.
type Config struct {
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Daemon   DaemonConfig   `mapstructure:"daemon" yaml:"daemon"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	History  HistoryConfig  `mapstructure:"history" yaml:"history"`
	Language string         `mapstructure:"language" yaml:"language"`
}

type ScheduleConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type DaemonConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	GitLabURL string        `mapstructure:"gitlab_url" yaml:"gitlab_url"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Type    string `mapstructure:"type" yaml:"type"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// Defaults returns the built-in values, keyed like the YAML file.
func Defaults() map[string]any {
	return map[string]any{
		"schedule.path":    "/etc/keysync/schedule",
		"daemon.interval":  "60s",
		"fetch.timeout":    "30s",
		"fetch.gitlab_url": "https://gitlab.com",
		"history.enabled":  false,
		"history.type":     "sqlite",
		"history.dsn":      "/var/lib/keysync/history.db",
		"language":         "en",
	}
}

// UserConfigPath returns the per-user keysync.yaml location.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, "keysync", "keysync.yaml"), nil
}

// BindFlag makes the named flag of flags override key when it is set. It
// works on persistent flag sets too, since cobra merges them into the
// executing command's flags.
func BindFlag(flags *pflag.FlagSet, flag, key string) error {
	return flags.SetAnnotation(flag, FlagKeyAnnotation, []string{key})
}

// LoadConfig resolves a T from defaults, the config file, KEYSYNC_*
// variables and the flags of cmd bound with BindFlag. configFile, when not
// empty, replaces the search of the standard locations. A missing config
// file is not an error.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("keysync")
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if p, err := UserConfigPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.AddConfigPath(SystemDir)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("keysync")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			keys := f.Annotations[FlagKeyAnnotation]
			if len(keys) == 0 || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(keys[0], f)
		})
		if bindErr != nil {
			return c, bindErr
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Load resolves the keysync Config.
func Load(cmd *cobra.Command, configFile string) (Config, error) {
	return LoadConfig[Config](cmd, Defaults(), configFile)
}

// Marshal renders c in the keysync.yaml format.
func Marshal[T any](c *T) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// WriteConfigFile persists c as YAML at path, creating parent directories.
func WriteConfigFile[T any](fs afero.Fs, path string, c *T) error {
	data, err := Marshal(c)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	// 0600: history.dsn may carry credentials.
	return afero.WriteFile(fs, path, data, 0o600)
}
