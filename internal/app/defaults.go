package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - FITLOG_CONFIG_PATH: config file location (default: ~/.config/fitlog.toml)
//   - FITLOG_HOME: base directory for fitlog data (default: ~/.local/share/fitlog)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"device_root": filepath.Join(baseDir, "device"),
	}, nil
}

// getConfigPath returns the config file path, checking FITLOG_CONFIG_PATH env var first,
// then falling back to the default ~/.config/fitlog.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("FITLOG_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "fitlog.toml"), nil
}

// getBaseDir returns the base directory for fitlog data, checking FITLOG_HOME env var first,
// then falling back to the XDG default ~/.local/share/fitlog.
func getBaseDir() (string, error) {
	if path := os.Getenv("FITLOG_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "fitlog"), nil
}
