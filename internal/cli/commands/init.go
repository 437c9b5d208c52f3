package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/coldread-dev/coldread/internal/cli/config"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <api-url>",
		Short: "Point this directory at a coldread API",
		Long: `Write coldread.json in the current directory with the given API URL.
An existing config file in this directory keeps its route overrides.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			currentDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			return runInit(currentDir, args[0])
		},
	}
}

func runInit(dir, apiURL string, opts ...Option) error {
	rt := &runtime{out: os.Stdout}
	for _, opt := range opts {
		opt(rt)
	}

	configPath := ""
	for _, name := range config.ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
			break
		}
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		existing, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		cfg = existing
		rt.printf("Found existing %s\n", filepath.Base(configPath))
	} else {
		configPath = filepath.Join(dir, config.ConfigFileNames[0])
	}

	cfg.APIURL = apiURL
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	rt.printf("API URL set to %s in %s\n", apiURL, filepath.Base(configPath))
	return nil
}
