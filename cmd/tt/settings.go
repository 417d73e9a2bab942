package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const defaultServer = "http://127.0.0.1:8080"

// settings is the CLI's own state: where the server is and the session token.
type settings struct {
	v    *viper.Viper
	path string
}

// settingsPath honours XDG_CONFIG_HOME, falling back to ~/.config.
func settingsPath() (string, error) {
	if p := os.Getenv("TT_CONFIG"); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "time-ledger", "tt.yaml"), nil
}

func loadSettings(path string) (*settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("server", defaultServer)
	v.SetDefault("token", "")
	v.SetDefault("timezone", "Local")
	v.SetEnvPrefix("TT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}
	return &settings{v: v, path: path}, nil
}

func (s *settings) Server() string   { return s.v.GetString("server") }
func (s *settings) Token() string    { return s.v.GetString("token") }
func (s *settings) Timezone() string { return s.v.GetString("timezone") }

func (s *settings) Set(key string, value interface{}) { s.v.Set(key, value) }

// Save writes the settings file with owner-only permissions; it holds the token.
func (s *settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return os.Chmod(s.path, 0o600)
}
