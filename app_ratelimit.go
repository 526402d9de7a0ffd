package main

import (
	"sentinel-desktop/internal/ratelimit"
)

// Rate Limit Management Functions (Wails-exported)

// ClearRateLimit lets the user dismiss a cooldown and try fetching again
func (a *App) ClearRateLimit(provider string) {
	if a.rateLimits != nil {
		a.rateLimits.ManualClear(provider)
	}
}

// GetRateLimitStatus returns the current rate limit state for a provider
func (a *App) GetRateLimitStatus(provider string) *ratelimit.RateLimitEvent {
	if a.rateLimits != nil {
		return a.rateLimits.GetCurrentState(provider)
	}
	return nil
}

// IsRateLimited checks if a provider is currently rate limited
func (a *App) IsRateLimited(provider string) bool {
	if a.rateLimits != nil {
		return a.rateLimits.IsRateLimited(provider)
	}
	return false
}

// Cache Management Functions (Wails-exported)

// CacheStats represents cache statistics for frontend
type CacheStats struct {
	Entries   int     `json:"entries"`
	SizeBytes int64   `json:"sizeBytes"`
	MaxBytes  int64   `json:"maxBytes"`
	SizeMB    float64 `json:"sizeMB"`
	MaxMB     float64 `json:"maxMB"`
	CachePath string  `json:"cachePath"`
}

// GetCacheStats returns current cache statistics
func (a *App) GetCacheStats() CacheStats {
	if a.resultCache == nil {
		return CacheStats{}
	}

	entries, sizeBytes, maxBytes := a.resultCache.Stats()

	return CacheStats{
		Entries:   entries,
		SizeBytes: sizeBytes,
		MaxBytes:  maxBytes,
		SizeMB:    float64(sizeBytes) / 1024 / 1024,
		MaxMB:     float64(maxBytes) / 1024 / 1024,
		CachePath: a.resultCache.Path(),
	}
}

// ClearCache removes all cached rasters
func (a *App) ClearCache() error {
	if a.resultCache != nil {
		return a.resultCache.Clear()
	}
	return nil
}
