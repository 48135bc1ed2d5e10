package app

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetSettingsStateForTest() {
	settingsOnce = sync.Once{}
	settings = Settings{}
	settingsSource = ""
	settingsErr = nil
	SetOverrides(Overrides{})
}

// isolateConfig points HOME and the working directory at empty temp dirs so no
// real config file leaks into a test.
func isolateConfig(t *testing.T) (home, workdir string) {
	t.Helper()
	resetSettingsStateForTest()
	t.Cleanup(resetSettingsStateForTest)

	home = t.TempDir()
	t.Setenv("HOME", home)

	workdir = t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(workdir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	for _, k := range []string{
		"DOCCACHE_DB_PATH", "DOCCACHE_DRIVER", "DOCCACHE_COLLECTION", "DOCCACHE_KEY",
		"DOCCACHE_MONGO_URI", "DOCCACHE_MONGO_DATABASE", "DOCCACHE_LOG_LEVEL", "DOCCACHE_BUSY_TIMEOUT_MS",
		"DOCCACHE_MEMORY_MAX_ENTRIES",
	} {
		t.Setenv(k, "")
	}
	// DOCCACHE_PREFIX is read with LookupEnv, so it must be unset, not empty.
	t.Setenv("DOCCACHE_PREFIX", "")
	require.NoError(t, os.Unsetenv("DOCCACHE_PREFIX"))
	return home, workdir
}

func TestGetDBPath_PrioritizesCLIOverride(t *testing.T) {
	home, _ := isolateConfig(t)
	t.Setenv("DOCCACHE_DB_PATH", filepath.Join(home, "env", "cache.db"))

	overridePath := filepath.Join(home, "cli", "cache.db")
	SetDBPathOverride(overridePath)

	resolved, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, overridePath, resolved)
}

func TestGetDBPath_UsesEnvWithoutOverride(t *testing.T) {
	home, _ := isolateConfig(t)

	envPath := filepath.Join(home, "env", "cache.db")
	t.Setenv("DOCCACHE_DB_PATH", envPath)

	resolved, err := GetDBPath()
	require.NoError(t, err)
	require.Equal(t, envPath, resolved)
	require.DirExists(t, filepath.Dir(envPath))
}

func TestResolveDBPathDetailed_ReportsSource(t *testing.T) {
	home, _ := isolateConfig(t)

	resolved, source, err := ResolveDBPathDetailed()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "doccache", "cache.db"), resolved)
	require.Equal(t, "default(~/.config/doccache/cache.db)", source)

	envPath := filepath.Join(home, "env", "cache.db")
	t.Setenv("DOCCACHE_DB_PATH", envPath)

	resolved, source, err = ResolveDBPathDetailed()
	require.NoError(t, err)
	require.Equal(t, envPath, resolved)
	require.Equal(t, "env(DOCCACHE_DB_PATH)", source)
}

func TestResolveDBPathDetailed_ConfigFileExpandsHome(t *testing.T) {
	home, _ := isolateConfig(t)

	userConfigPath := filepath.Join(home, ".config", "doccache", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(userConfigPath), 0o755))
	require.NoError(t, os.WriteFile(userConfigPath, []byte("db_path: ~/data/cache.db\n"), 0o600))

	resolved, source, err := ResolveDBPathDetailed()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "data", "cache.db"), resolved)
	require.Equal(t, "config("+userConfigPath+")", source)
}

func TestEnsureDBDir_CreatesParentDirectories(t *testing.T) {
	base := t.TempDir()
	dbPath := filepath.Join(base, "nested", "deep", "cache.db")

	resolved, err := EnsureDBDir(dbPath)
	require.NoError(t, err)
	require.Equal(t, dbPath, resolved)
	require.DirExists(t, filepath.Dir(dbPath))
}
