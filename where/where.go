// Package where resolves the on-disk locations nezuko reads from and writes to.
package where

import (
	"os"
	"path/filepath"

	"github.com/nezuko-cli/nezuko/constant"
	"github.com/nezuko-cli/nezuko/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "NEZUKO_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config is the configuration directory. NEZUKO_CONFIG_PATH takes precedence
// over the platform user configuration directory.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Nezuko))
}

// Cache is the persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Nezuko))
}

// Logs is the directory that holds daily log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Sources holds user-installed regional Lua sources.
func Sources() string {
	return ensureDir(filepath.Join(Config(), "sources"))
}

// Mappings is the episode mapping cache file.
func Mappings() string {
	return filepath.Join(Cache(), "mappings.json")
}

// MappingsLock guards Mappings across processes.
func MappingsLock() string {
	return filepath.Join(Cache(), "mappings.lock")
}

// Database is the sqlite file storing playback positions and preferences.
func Database() string {
	return filepath.Join(Config(), "nezuko.db")
}

// Queries is the search query suggestion registry.
func Queries() string {
	return filepath.Join(Cache(), "queries.json")
}

// Temp is a volatile directory for transient artifacts such as player sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Nezuko))
}
