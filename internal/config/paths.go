package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user directories
const AppName = "lethal-manager"

// ConfigDir returns the lethal-manager config directory path
// $XDG_CONFIG_HOME/lethal-manager/
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigPath returns the config.json file path
// $XDG_CONFIG_HOME/lethal-manager/config.json
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DataDir returns the data directory path, honouring the dataDir override
// $XDG_DATA_HOME/lethal-manager/
func DataDir() string {
	if dir := Get().DataDir; dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, AppName)
}

// ProfilesDir returns the directory holding one folder per profile
func ProfilesDir() string {
	return filepath.Join(DataDir(), "profiles")
}

// CacheDir returns the cache directory path
// $XDG_CACHE_HOME/lethal-manager/
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// CatalogCachePath returns the raw catalog listing cache
func CatalogCachePath() string {
	return filepath.Join(CacheDir(), "catalog.json")
}

// DownloadsDir returns the directory holding downloaded mod archives
func DownloadsDir() string {
	return filepath.Join(CacheDir(), "downloads")
}

// StateDir returns the state directory path (logs)
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
