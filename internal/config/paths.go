// ABOUTME: Database path resolution and validation.
// ABOUTME: Picks an XDG data directory by default and rejects unsafe paths.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const dbFileName = "leadscore.db"

// DefaultDBPath returns LEADSCORE_DB_PATH, an existing ./leadscore.db, or a
// file under the platform data directory, in that order.
func DefaultDBPath() string {
	if envPath := strings.TrimSpace(os.Getenv("LEADSCORE_DB_PATH")); envPath != "" {
		if cleaned := filepath.Clean(envPath); cleaned != "." {
			return cleaned
		}
	}

	cwdPath := "./" + dbFileName
	if _, err := os.Stat(cwdPath); err == nil {
		return cwdPath
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil || homeDir == "" || homeDir == "/" {
			return cwdPath
		}
		if runtime.GOOS == "windows" {
			dataHome = os.Getenv("LOCALAPPDATA")
			if dataHome == "" {
				dataHome = filepath.Join(homeDir, "AppData", "Local")
			}
		} else {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(dataHome, "leadscore")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return cwdPath
	}

	// Verify we can write to the directory
	testFile := filepath.Join(dataDir, ".write-test")
	f, err := os.Create(testFile)
	if err != nil {
		return cwdPath
	}
	f.Close()
	os.Remove(testFile)

	return filepath.Join(dataDir, dbFileName)
}

// ValidateDBPath cleans a database path and rejects empty, root-like,
// traversing and sensitive locations. ":memory:" is accepted as is.
func ValidateDBPath(path string) (string, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == ":memory:" {
		return cleanPath, nil
	}
	cleanPath = filepath.Clean(cleanPath)

	if cleanPath == "" || cleanPath == "." || cleanPath == "/" {
		return "", fmt.Errorf("database path cannot be empty, '.', or '/'")
	}

	// Windows: reject bare drive letters (e.g., "C:", "D:")
	if runtime.GOOS == "windows" && len(cleanPath) == 2 && cleanPath[1] == ':' {
		return "", fmt.Errorf("database path cannot be a bare drive letter")
	}

	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("database path cannot contain '..'")
	}

	badPatterns := []string{
		".git",
		".svn",
		"node_modules",
		".env",
		"credentials",
		"secret",
	}
	lowerPath := strings.ToLower(cleanPath)
	for _, pattern := range badPatterns {
		if strings.Contains(lowerPath, pattern) {
			return "", fmt.Errorf("database path cannot contain '%s' directory", pattern)
		}
	}

	return cleanPath, nil
}
