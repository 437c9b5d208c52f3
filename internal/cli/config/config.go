// Package config loads the CLI project configuration (coldread.json or
// coldread.yaml), searched for from the current directory upwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coldread-dev/coldread/internal/cli/guard"
)

// ConfigFileNames are tried in order in each directory.
var ConfigFileNames = []string{"coldread.json", "coldread.yaml", "coldread.yml"}

// DefaultAPIURL is used when neither a config file nor COLDREAD_API_URL is set.
const DefaultAPIURL = "http://localhost:8080/api"

// Config represents the CLI configuration file
type Config struct {
	APIURL string        `json:"api_url" yaml:"api_url"`
	Routes []guard.Route `json:"routes,omitempty" yaml:"routes,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{APIURL: DefaultAPIURL}
}

// RouteTable returns the default web routes with any configured overrides
// applied on top.
func (c *Config) RouteTable() *guard.Table {
	routes := append([]guard.Route{}, guard.DefaultRoutes...)
	routes = append(routes, c.Routes...)
	return guard.NewTable(routes)
}

// Validate checks the configuration for obvious mistakes
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return fmt.Errorf("api_url is empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must start with http:// or https://, got '%s'", c.APIURL)
	}
	for _, r := range c.Routes {
		if !strings.HasPrefix(r.Path, "/") {
			return fmt.Errorf("route path '%s' must start with /", r.Path)
		}
		if _, err := guard.ParseAccess(string(r.Access)); err != nil {
			return fmt.Errorf("route '%s': %w", r.Path, err)
		}
	}
	return nil
}

// FindConfigFile searches for a config file in dir and its parents
func FindConfigFile(dir string) (string, error) {
	start := dir
	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w: no coldread config in %s or any parent directory", os.ErrNotExist, start)
}

// Load reads the configuration file, choosing the decoder by extension
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromCurrentDir loads the config found from the working directory, falls
// back to defaults when none exists, and applies COLDREAD_API_URL.
func LoadFromCurrentDir() (*Config, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg := DefaultConfig()
	if configPath, err := FindConfigFile(currentDir); err == nil {
		cfg, err = Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	if apiURL := os.Getenv("COLDREAD_API_URL"); apiURL != "" {
		cfg.APIURL = apiURL
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid COLDREAD_API_URL: %w", err)
		}
	}
	return cfg, nil
}

// Save writes the configuration as JSON or YAML depending on the extension
func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
