package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeUserConfig(t *testing.T, home, content string) string {
	t.Helper()
	p := filepath.Join(home, ".config", "doccache", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoadSettings_PrefersUserConfigOverLocal(t *testing.T) {
	home, workdir := isolateConfig(t)

	writeUserConfig(t, home, "db_path: /tmp/from-user.db\n")
	require.NoError(t, os.WriteFile(filepath.Join(workdir, "config.yaml"), []byte("db_path: /tmp/from-local.db\n"), 0o600))

	s, err := LoadSettings()
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-user.db", s.DBPath)
}

func TestLoadSettings_FallsBackToLocalConfig(t *testing.T) {
	_, workdir := isolateConfig(t)

	require.NoError(t, os.WriteFile(filepath.Join(workdir, "config.yaml"), []byte("db_path: /tmp/from-local.db\n"), 0o600))

	s, err := LoadSettings()
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-local.db", s.DBPath)
}

func TestLoadSettings_InvalidYAMLReturnsError(t *testing.T) {
	home, _ := isolateConfig(t)
	writeUserConfig(t, home, "db_path: [")

	_, err := LoadSettings()
	require.Error(t, err)
}

func TestLoadSettingsFile_ReadsAllFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"driver: mongo",
		"collection: sessions",
		"prefix: app_",
		"key: base64:abc",
		"key_file: /tmp/key",
		"db_path: /tmp/read.db",
		"busy_timeout_ms: 1200",
		"memory_max_entries: 500",
		"mongo_uri: mongodb://db:27017",
		"mongo_database: app",
		"log_level: debug",
		"log_file: /tmp/doccache.log",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, err := loadSettingsFile(path)
	require.NoError(t, err)
	require.Equal(t, Settings{
		Driver:        "mongo",
		Collection:    "sessions",
		Prefix:        "app_",
		Key:           "base64:abc",
		KeyFile:       "/tmp/key",
		DBPath:        "/tmp/read.db",
		BusyTimeoutMS: 1200,
		MongoURI:      "mongodb://db:27017",
		MongoDatabase: "app",
		LogLevel:      "debug",
		LogFile:       "/tmp/doccache.log",

		MemoryMaxEntries: 500,
	}, s)
}

func TestResolve_Defaults(t *testing.T) {
	home, _ := isolateConfig(t)

	cfg, err := Resolve()
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Driver)
	require.Equal(t, DefaultCollection, cfg.Collection)
	require.Equal(t, "", cfg.Prefix)
	require.Equal(t, "", cfg.Key)
	require.Equal(t, filepath.Join(home, ".config", "doccache", "cache.db"), cfg.DBPath)
	require.Equal(t, 5000, cfg.BusyTimeoutMS)
	require.Equal(t, DefaultMongoURI, cfg.MongoURI)
	require.Equal(t, DefaultMongoDatabase, cfg.MongoDatabase)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.Equal(t, 0, cfg.MemoryMaxEntries)
}

func TestResolve_MemoryMaxEntries(t *testing.T) {
	home, _ := isolateConfig(t)
	writeUserConfig(t, home, "driver: memory\nmemory_max_entries: 100\n")

	cfg, err := Resolve()
	require.NoError(t, err)
	require.Equal(t, 100, cfg.MemoryMaxEntries)

	t.Setenv("DOCCACHE_MEMORY_MAX_ENTRIES", "0")
	cfg, err = Resolve()
	require.NoError(t, err)
	require.Equal(t, 0, cfg.MemoryMaxEntries, "env 0 lifts the file bound")

	t.Setenv("DOCCACHE_MEMORY_MAX_ENTRIES", "3")
	cfg, err = Resolve()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MemoryMaxEntries)

	for _, bad := range []string{"-1", "lots"} {
		t.Setenv("DOCCACHE_MEMORY_MAX_ENTRIES", bad)
		_, err = Resolve()
		require.ErrorContains(t, err, "DOCCACHE_MEMORY_MAX_ENTRIES")
	}
}

func TestResolve_PrecedenceFlagsEnvFile(t *testing.T) {
	home, _ := isolateConfig(t)
	writeUserConfig(t, home, strings.Join([]string{
		"driver: memory",
		"collection: from_file",
		"prefix: file_",
		"key: base64:filekey",
		"busy_timeout_ms: 900",
		"log_level: info",
		"",
	}, "\n"))

	cfg, err := Resolve()
	require.NoError(t, err)
	require.Equal(t, DriverMemory, cfg.Driver)
	require.Equal(t, "from_file", cfg.Collection)
	require.Equal(t, "file_", cfg.Prefix)
	require.Equal(t, "base64:filekey", cfg.Key)
	require.Equal(t, 900, cfg.BusyTimeoutMS)
	require.Empty(t, cfg.DBPath, "db path only resolved for sqlite")

	t.Setenv("DOCCACHE_COLLECTION", "from_env")
	t.Setenv("DOCCACHE_PREFIX", "")
	t.Setenv("DOCCACHE_KEY", "base64:envkey")
	t.Setenv("DOCCACHE_BUSY_TIMEOUT_MS", "50")

	cfg, err = Resolve()
	require.NoError(t, err)
	require.Equal(t, "from_env", cfg.Collection)
	require.Equal(t, "", cfg.Prefix, "empty env prefix still overrides the file")
	require.Equal(t, "base64:envkey", cfg.Key)
	require.Equal(t, 50, cfg.BusyTimeoutMS)

	flagPrefix := "flag_"
	SetOverrides(Overrides{Driver: "MONGO", Collection: "from_flag", Prefix: &flagPrefix, LogLevel: "debug"})

	cfg, err = Resolve()
	require.NoError(t, err)
	require.Equal(t, DriverMongo, cfg.Driver)
	require.Equal(t, "from_flag", cfg.Collection)
	require.Equal(t, "flag_", cfg.Prefix)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestResolve_KeyFile(t *testing.T) {
	home, _ := isolateConfig(t)
	keyPath := filepath.Join(home, "secret.key")
	require.NoError(t, os.WriteFile(keyPath, []byte("base64:fromfile\n"), 0o600))
	writeUserConfig(t, home, "driver: memory\nkey_file: ~/secret.key\n")

	cfg, err := Resolve()
	require.NoError(t, err)
	require.Equal(t, "base64:fromfile", cfg.Key)
}

func TestResolve_UnknownDriver(t *testing.T) {
	isolateConfig(t)
	t.Setenv("DOCCACHE_DRIVER", "redis")

	_, err := Resolve()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownDriver))
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "doccache.log")

	l, closeLog, err := NewLogger("info", logFile)
	require.NoError(t, err)
	l.Debug().Msg("hidden")
	l.Info().Str("k", "v").Msg("shown")
	closeLog()

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(b), `"message":"shown"`)
	require.NotContains(t, string(b), "hidden")

	_, _, err = NewLogger("nope", "")
	require.Error(t, err)
}
