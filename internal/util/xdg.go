package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetXDGConfigDir returns the XDG config directory for mltrainer.
// It respects XDG_CONFIG_HOME if set, otherwise falls back to ~/.config/mltrainer
func GetXDGConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "mltrainer"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "mltrainer"), nil
}
