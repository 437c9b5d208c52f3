package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "coldread"
	configFileName = "config.json"
)

// UserConfig represents the user's local configuration stored in ~/.config/coldread/config.json
type UserConfig struct {
	// SelectedContext is the execution context ("web" or "extension") the
	// CLI acts as when --context is not given.
	SelectedContext string `json:"selected_context"`
	// LastEmail prefills the login prompt.
	LastEmail string `json:"last_email,omitempty"`
}

// GetConfigDir returns ~/.config/coldread, honoring XDG_CONFIG_HOME
func GetConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedContext updates the selected context and saves the config
func SetSelectedContext(name string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedContext = name
	return Save(cfg)
}

// GetSelectedContext returns the selected context, or empty string if not set
func GetSelectedContext() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedContext, nil
}

// SetLastEmail remembers the last email used to sign in
func SetLastEmail(email string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.LastEmail = email
	return Save(cfg)
}
