package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sentinel-desktop/internal/common"
)

// Auth mode constants for the process API
const (
	// AuthModeOAuth uses the OAuth2 client credentials flow against the
	// provider's token URL
	AuthModeOAuth = "oauth"

	// AuthModeEndpoint fetches tokens from a companion service that
	// responds with {"token": "..."}
	AuthModeEndpoint = "endpoint"

	// AuthModeStatic uses a token pasted directly into settings
	AuthModeStatic = "static"
)

// CustomScript represents a user-added evalscript stored in settings
type CustomScript struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IconURL     string `json:"iconUrl,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
}

// UserSettings represents persistent user preferences
type UserSettings struct {
	// Process API settings
	Provider        string `json:"provider"`        // "sentinel_hub" or "copernicus_dataspace"
	ProcessEndpoint string `json:"processEndpoint"` // Override; empty means the provider default

	// Auth settings
	AuthMode      string `json:"authMode"` // "oauth", "endpoint", "static"
	TokenEndpoint string `json:"tokenEndpoint,omitempty"`
	ClientID      string `json:"clientId,omitempty"`
	ClientSecret  string `json:"clientSecret,omitempty"`
	StaticToken   string `json:"staticToken,omitempty"`

	// Fetch settings
	DefaultScriptID  string  `json:"defaultScriptId"`
	MaxCloudCoverage float64 `json:"maxCloudCoverage"` // percent, 0-100
	MosaickingOrder  string  `json:"mosaickingOrder"`  // "mostRecent", "leastRecent", "leastCC"

	// Export settings
	DownloadPath  string `json:"downloadPath"`
	ExportFormat  string `json:"exportFormat"` // "raster", "worldfile", "both"
	AutoOpenAfter bool   `json:"autoOpenAfter"`

	// Cache settings
	CacheMaxSizeMB int `json:"cacheMaxSizeMB"`
	CacheTTLDays   int `json:"cacheTTLDays"`

	// History settings
	HistoryMaxEntries int `json:"historyMaxEntries"`

	// Batch fetch settings
	BatchWorkers int `json:"batchWorkers"`

	// Last map position, restored on startup
	LastCenterLat float64 `json:"lastCenterLat"`
	LastCenterLon float64 `json:"lastCenterLon"`
	LastZoom      float64 `json:"lastZoom"`

	// Custom evalscripts
	CustomScripts []CustomScript `json:"customScripts"`

	// UI preferences
	Theme string `json:"theme"` // "light", "dark", "system"
}

// DefaultSettings returns default user settings
func DefaultSettings() *UserSettings {
	homeDir, _ := os.UserHomeDir()
	downloadPath := filepath.Join(homeDir, "Downloads", "sentinel")

	return &UserSettings{
		Provider:          common.ProviderCopernicus,
		AuthMode:          AuthModeOAuth,
		DefaultScriptID:   "true-color",
		MaxCloudCoverage:  100,
		MosaickingOrder:   "mostRecent",
		DownloadPath:      downloadPath,
		ExportFormat:      "both",
		AutoOpenAfter:     true,
		CacheMaxSizeMB:    250,
		CacheTTLDays:      30,
		HistoryMaxEntries: 200,
		BatchWorkers:      4,
		LastCenterLat:     30.0444, // Cairo, Egypt
		LastCenterLon:     31.2357,
		LastZoom:          10,
		CustomScripts:     []CustomScript{},
		Theme:             "system",
	}
}

// GetSettingsPath returns the OS-specific settings file path
func GetSettingsPath() string {
	homeDir, _ := os.UserHomeDir()

	baseDir := filepath.Join(homeDir, ".sentinel-desktop", "settings")

	// Ensure directory exists
	os.MkdirAll(baseDir, 0755)

	return filepath.Join(baseDir, "settings.json")
}

// GetHistoryDir returns the directory fetch records are persisted in
func GetHistoryDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".sentinel-desktop", "history")
}

// LoadSettings loads user settings from disk
func LoadSettings() (*UserSettings, error) {
	return loadSettingsFrom(GetSettingsPath())
}

// loadSettingsFrom reads and merges one settings file. Split out so tests
// do not touch the real home directory.
func loadSettingsFrom(settingsPath string) (*UserSettings, error) {
	// If file doesn't exist, return defaults
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	// Merge with defaults for any missing fields
	defaults := DefaultSettings()
	if settings.Provider == "" {
		settings.Provider = defaults.Provider
	}
	if settings.AuthMode == "" {
		settings.AuthMode = defaults.AuthMode
	}
	if settings.DefaultScriptID == "" {
		settings.DefaultScriptID = defaults.DefaultScriptID
	}
	if settings.MaxCloudCoverage == 0 {
		settings.MaxCloudCoverage = defaults.MaxCloudCoverage
	}
	if settings.MosaickingOrder == "" {
		settings.MosaickingOrder = defaults.MosaickingOrder
	}
	if settings.DownloadPath == "" {
		settings.DownloadPath = defaults.DownloadPath
	}
	if settings.ExportFormat == "" {
		settings.ExportFormat = defaults.ExportFormat
	}
	if settings.CacheMaxSizeMB == 0 {
		settings.CacheMaxSizeMB = defaults.CacheMaxSizeMB
	}
	if settings.CacheTTLDays == 0 {
		settings.CacheTTLDays = defaults.CacheTTLDays
	}
	if settings.HistoryMaxEntries == 0 {
		settings.HistoryMaxEntries = defaults.HistoryMaxEntries
	}
	if settings.BatchWorkers == 0 {
		settings.BatchWorkers = defaults.BatchWorkers
	}
	if settings.LastZoom == 0 {
		settings.LastCenterLat = defaults.LastCenterLat
		settings.LastCenterLon = defaults.LastCenterLon
		settings.LastZoom = defaults.LastZoom
	}
	if settings.Theme == "" {
		settings.Theme = defaults.Theme
	}

	return &settings, nil
}

// SaveSettings saves user settings to disk
func SaveSettings(settings *UserSettings) error {
	return saveSettingsTo(GetSettingsPath(), settings)
}

func saveSettingsTo(settingsPath string, settings *UserSettings) error {
	// Ensure directory exists
	dir := filepath.Dir(settingsPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// Validate checks cross-field consistency before settings are applied
func (s *UserSettings) Validate() error {
	if s.DownloadPath == "" {
		return fmt.Errorf("download path is required")
	}
	if s.CacheMaxSizeMB <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if s.CacheTTLDays <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if s.BatchWorkers <= 0 || s.BatchWorkers > 16 {
		return fmt.Errorf("batch workers must be between 1 and 16")
	}
	if s.MaxCloudCoverage < 0 || s.MaxCloudCoverage > 100 {
		return fmt.Errorf("max cloud coverage must be between 0 and 100")
	}
	if _, err := common.ParseExportFormat(s.ExportFormat); err != nil {
		return err
	}

	switch s.AuthMode {
	case AuthModeOAuth:
		if s.ClientID == "" || s.ClientSecret == "" {
			return fmt.Errorf("oauth auth mode requires a client id and secret")
		}
	case AuthModeEndpoint:
		if s.TokenEndpoint == "" {
			return fmt.Errorf("endpoint auth mode requires a token endpoint URL")
		}
	case AuthModeStatic:
		if s.StaticToken == "" {
			return fmt.Errorf("static auth mode requires a token")
		}
	default:
		return fmt.Errorf("invalid auth mode: %s (must be oauth, endpoint, or static)", s.AuthMode)
	}

	return nil
}

// ResolveProcessEndpoint returns the process URL, preferring an explicit
// override over the provider default
func (s *UserSettings) ResolveProcessEndpoint() string {
	if s.ProcessEndpoint != "" {
		return s.ProcessEndpoint
	}
	return common.ProcessEndpoint(s.Provider)
}

// ResolveTokenURL returns the OAuth token URL for the configured provider
func (s *UserSettings) ResolveTokenURL() string {
	if s.TokenEndpoint != "" && s.AuthMode == AuthModeOAuth {
		return s.TokenEndpoint
	}
	return common.OAuthTokenURL(s.Provider)
}
