package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the default data directory based on the host OS.
// It prefers standard locations when available and falls back to a dotdir
// in the user's home directory.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ddmonitor")
	}

	// Common Linux/Unix system dir
	if isDir("/var/lib") {
		return "/var/lib/ddmonitor"
	}

	// macOS: ~/Library/Application Support/ddmonitor
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "ddmonitor")
	}

	// Windows: %USERPROFILE%/AppData/Local/ddmonitor
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "ddmonitor")
	}

	// Fallback: ~/.ddmonitor
	return filepath.Join(homeDir, ".ddmonitor")
}

// DefaultWalletPath is where keygen writes and clients read the keypair,
// ~/.config/ddmonitor/id.json when a home directory exists.
func DefaultWalletPath() string {
	if cfgDir, err := os.UserConfigDir(); err == nil && cfgDir != "" {
		return filepath.Join(cfgDir, "ddmonitor", "id.json")
	}
	return filepath.Join(".", "id.json")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
