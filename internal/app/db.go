package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDBPath resolves the SQLite database path.
// Order of precedence:
// 1) CLI override (e.g. --db-path)
// 2) Environment variable: DOCCACHE_DB_PATH
// 3) config.yaml: db_path
// 4) Default: ~/.config/doccache/cache.db
// The parent directory is created if missing.
func GetDBPath() (string, error) {
	path, _, err := ResolveDBPathDetailed()
	return path, err
}

// ResolveDBPathDetailed returns the resolved DB path along with the source of
// that decision, for status reporting.
func ResolveDBPathDetailed() (path string, source string, err error) {
	if override := getOverrides().DBPath; override != "" {
		resolvedPath, ensureErr := EnsureDBDir(expandHome(override))
		return resolvedPath, "cli(--db-path)", ensureErr
	}

	if envPath := os.Getenv("DOCCACHE_DB_PATH"); envPath != "" {
		resolvedPath, ensureErr := EnsureDBDir(expandHome(envPath))
		return resolvedPath, "env(DOCCACHE_DB_PATH)", ensureErr
	}

	s, src, err := loadSettingsWithSource()
	if err != nil {
		return "", "", fmt.Errorf("failed to load config: %w", err)
	}
	if s.DBPath != "" {
		resolvedPath, ensureErr := EnsureDBDir(expandHome(s.DBPath))
		return resolvedPath, fmt.Sprintf("config(%s)", src), ensureErr
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	resolved, err := EnsureDBDir(filepath.Join(configDir, "cache.db"))
	return resolved, "default(~/.config/doccache/cache.db)", err
}

// EnsureDBDir creates the parent directory of dbPath.
func EnsureDBDir(dbPath string) (string, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return dbPath, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
