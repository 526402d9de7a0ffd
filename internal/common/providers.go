package common

// Provider name constants for consistent naming across the application
const (
	// ProviderSentinelHub is the cache and internal identifier for the
	// commercial Sentinel Hub deployment
	ProviderSentinelHub = "sentinel_hub"

	// ProviderCopernicus is the cache and internal identifier for the
	// Copernicus Data Space deployment
	ProviderCopernicus = "copernicus_dataspace"

	// DisplayNameSentinelHub is the human-readable name shown in the UI
	DisplayNameSentinelHub = "Sentinel Hub"

	// DisplayNameCopernicus is the human-readable name shown in the UI
	DisplayNameCopernicus = "Copernicus Data Space"
)

// ProcessEndpoint returns the process API URL for a provider. Unknown
// providers fall back to Sentinel Hub.
func ProcessEndpoint(provider string) string {
	switch provider {
	case ProviderCopernicus:
		return "https://sh.dataspace.copernicus.eu/api/v1/process"
	default:
		return "https://services.sentinel-hub.com/api/v1/process"
	}
}

// OAuthTokenURL returns the client credentials token URL for a provider
func OAuthTokenURL(provider string) string {
	switch provider {
	case ProviderCopernicus:
		return "https://identity.dataspace.copernicus.eu/auth/realms/CDSE/protocol/openid-connect/token"
	default:
		return "https://services.sentinel-hub.com/oauth/token"
	}
}

// ProviderDisplayName returns the human-readable name for a provider
func ProviderDisplayName(provider string) string {
	switch provider {
	case ProviderCopernicus:
		return DisplayNameCopernicus
	case ProviderSentinelHub:
		return DisplayNameSentinelHub
	default:
		return provider
	}
}
