package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Defaults applied by Resolve.
const (
	DefaultCollection    = "cache"
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "doccache"
	DefaultLogLevel      = "warn"
	defaultBusyTimeoutMS = 5000
)

// ErrUnknownDriver is returned by Resolve for a driver name it does not know.
var ErrUnknownDriver = errors.New("unknown driver")

// Settings represents configuration loaded from config.yaml.
// Field names match snake_case YAML keys.
type Settings struct {
	Driver        string `yaml:"driver"`
	Collection    string `yaml:"collection"`
	Prefix        string `yaml:"prefix"`
	Key           string `yaml:"key"`
	KeyFile       string `yaml:"key_file"`
	DBPath        string `yaml:"db_path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`

	// MemoryMaxEntries bounds each collection of the memory driver; 0 is unbounded.
	MemoryMaxEntries int `yaml:"memory_max_entries"`

	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
}

// Overrides are process-wide values set from CLI flags. Empty fields (nil
// Prefix) are ignored.
type Overrides struct {
	DBPath     string
	Driver     string
	Collection string
	Prefix     *string
	LogLevel   string
}

// Config is the effective configuration after merging flags, environment,
// config file and defaults, in that order.
type Config struct {
	Driver        string `json:"driver"`
	Collection    string `json:"collection"`
	Prefix        string `json:"prefix"`
	Key           string `json:"-"`
	DBPath        string `json:"db_path,omitempty"`
	DBPathSource  string `json:"db_path_source,omitempty"`
	BusyTimeoutMS int    `json:"busy_timeout_ms,omitempty"`

	// MemoryMaxEntries is the per-collection LRU bound of the memory driver.
	MemoryMaxEntries int `json:"memory_max_entries,omitempty"`

	MongoURI      string `json:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty"`
	LogLevel      string `json:"log_level"`
	LogFile       string `json:"log_file,omitempty"`
	SettingsFile  string `json:"settings_file,omitempty"`
}

// settingsOnce, settings, settingsSource, settingsErr implement the sync.Once
// lazy-load singleton for config. overridesMu and overrides hold the CLI flag
// values.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce   sync.Once
	settings       Settings
	settingsSource string
	settingsErr    error

	overridesMu sync.RWMutex
	overrides   Overrides
)

// SetOverrides replaces the process-wide flag overrides.
func SetOverrides(o Overrides) {
	overridesMu.Lock()
	overrides = o
	overridesMu.Unlock()
}

// SetDBPathOverride sets only the database path override.
func SetDBPathOverride(path string) {
	overridesMu.Lock()
	overrides.DBPath = path
	overridesMu.Unlock()
}

func getOverrides() Overrides {
	overridesMu.RLock()
	v := overrides
	overridesMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/doccache/config.yaml
// 2) /etc/doccache/config.yaml
// 3) ./config.yaml
// Environment variables are handled by Resolve.
func LoadSettings() (Settings, error) {
	s, _, err := loadSettingsWithSource()
	return s, err
}

func loadSettingsWithSource() (Settings, string, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}

		for _, p := range []string{
			filepath.Join(dir, "config.yaml"),
			filepath.Join(string(os.PathSeparator), "etc", "doccache", "config.yaml"),
			"config.yaml",
		} {
			s, err := loadSettingsFile(p)
			if err == nil {
				settings = s
				settingsSource = p
				return
			}
			if !errors.Is(err, os.ErrNotExist) {
				settingsErr = fmt.Errorf("load %s: %w", p, err)
				return
			}
		}
	})

	return settings, settingsSource, settingsErr
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: config paths are fixed lookup locations
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Resolve builds the effective Config. The encryption key may be empty; the
// caller decides whether it needs one.
func Resolve() (Config, error) {
	s, src, err := loadSettingsWithSource()
	if err != nil {
		return Config{}, err
	}
	o := getOverrides()

	cfg := Config{
		Driver:        strings.ToLower(firstNonEmpty(o.Driver, os.Getenv("DOCCACHE_DRIVER"), s.Driver, DriverSQLite)),
		Collection:    firstNonEmpty(o.Collection, os.Getenv("DOCCACHE_COLLECTION"), s.Collection, DefaultCollection),
		Prefix:        s.Prefix,
		MongoURI:      firstNonEmpty(os.Getenv("DOCCACHE_MONGO_URI"), s.MongoURI, DefaultMongoURI),
		MongoDatabase: firstNonEmpty(os.Getenv("DOCCACHE_MONGO_DATABASE"), s.MongoDatabase, DefaultMongoDatabase),
		LogLevel:      firstNonEmpty(o.LogLevel, os.Getenv("DOCCACHE_LOG_LEVEL"), s.LogLevel, DefaultLogLevel),
		LogFile:       expandHome(s.LogFile),
		BusyTimeoutMS: defaultBusyTimeoutMS,
		SettingsFile:  src,
	}

	if v, ok := os.LookupEnv("DOCCACHE_PREFIX"); ok {
		cfg.Prefix = v
	}
	if o.Prefix != nil {
		cfg.Prefix = *o.Prefix
	}

	if s.BusyTimeoutMS > 0 {
		cfg.BusyTimeoutMS = s.BusyTimeoutMS
	}
	if v := os.Getenv("DOCCACHE_BUSY_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.BusyTimeoutMS = parsed
		}
	}

	if s.MemoryMaxEntries > 0 {
		cfg.MemoryMaxEntries = s.MemoryMaxEntries
	}
	if v := os.Getenv("DOCCACHE_MEMORY_MAX_ENTRIES"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return Config{}, fmt.Errorf("DOCCACHE_MEMORY_MAX_ENTRIES: want a non-negative integer, got %q", v)
		}
		cfg.MemoryMaxEntries = parsed
	}

	cfg.Key, err = resolveKey(s)
	if err != nil {
		return Config{}, err
	}

	switch cfg.Driver {
	case DriverSQLite:
		cfg.DBPath, cfg.DBPathSource, err = ResolveDBPathDetailed()
		if err != nil {
			return Config{}, err
		}
	case DriverMongo, DriverMemory:
	default:
		return Config{}, fmt.Errorf("%w %q (want %s, %s or %s)", ErrUnknownDriver, cfg.Driver, DriverSQLite, DriverMongo, DriverMemory)
	}

	return cfg, nil
}

// resolveKey returns DOCCACHE_KEY, then settings key, then the contents of
// key_file.
func resolveKey(s Settings) (string, error) {
	if v := os.Getenv("DOCCACHE_KEY"); v != "" {
		return v, nil
	}
	if s.Key != "" {
		return s.Key, nil
	}
	if s.KeyFile == "" {
		return "", nil
	}
	b, err := os.ReadFile(expandHome(s.KeyFile))
	if err != nil {
		return "", fmt.Errorf("read key_file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
