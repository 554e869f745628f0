package infra

import (
	"os"
	"path/filepath"
)

const (
	AppName = "padd"

	// EnvConfigPath points at an explicit config file.
	EnvConfigPath = "PADD_CONFIG"
)

// ResolveConfigPath attempts to find the config.yaml.
// Priority: 1. PADD_CONFIG, 2. Current Dir, 3. OS Config Dir
func ResolveConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	defaultPath := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	configRoot, err := os.UserConfigDir()
	if err == nil {
		osPath := filepath.Join(configRoot, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}

	// Let LoadConfig report the missing file.
	return defaultPath
}
