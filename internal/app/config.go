package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/doccache/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "doccache"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# doccache configuration
# Run: doccache --help

# Backend: sqlite (default), mongo, or memory.
# driver: sqlite

# Collection name and key prefix shared by every cache operation.
# collection: cache
# prefix: ""

# Encryption key (32 bytes, base64). Generate one with: doccache key generate
# Can also be set via DOCCACHE_KEY, or read from key_file.
# key: base64:...
# key_file: ~/.config/doccache/key

# SQLite database location. Can also be set via DOCCACHE_DB_PATH or --db-path.
# db_path: ~/.config/doccache/cache.db
# busy_timeout_ms: 5000

# Memory driver: keep at most this many records per collection, evicting the
# least recently used. 0 means unbounded. Env: DOCCACHE_MEMORY_MAX_ENTRIES.
# memory_max_entries: 0

# MongoDB connection, used when driver is mongo.
# mongo_uri: mongodb://localhost:27017
# mongo_database: doccache

# log_level: warn
# log_file: ""
`
