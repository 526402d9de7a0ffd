package cache

import (
	"os"
	"path/filepath"
	goruntime "runtime"
)

// Config sizes the result cache
type Config struct {
	MaxSizeMB int `json:"maxSizeMB"`
	TTLDays   int `json:"ttlDays"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxSizeMB: 250, // 250 MB default
		TTLDays:   30,  // 30 days default
	}
}

// normalized fills non-positive fields from the defaults
func (c *Config) normalized() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	if c.MaxSizeMB > 0 {
		out.MaxSizeMB = c.MaxSizeMB
	}
	if c.TTLDays > 0 {
		out.TTLDays = c.TTLDays
	}
	return out
}

// GetCacheDir returns the OS-specific directory for cached rasters
func GetCacheDir() string {
	homeDir, _ := os.UserHomeDir()

	switch goruntime.GOOS {
	case "darwin": // macOS
		return filepath.Join(homeDir, "Library", "Caches", "sentinel-desktop", "results")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		return filepath.Join(appData, "sentinel-desktop", "cache", "results")
	default: // Linux and others
		cacheHome := os.Getenv("XDG_CACHE_HOME")
		if cacheHome == "" {
			cacheHome = filepath.Join(homeDir, ".cache")
		}
		return filepath.Join(cacheHome, "sentinel-desktop", "results")
	}
}
