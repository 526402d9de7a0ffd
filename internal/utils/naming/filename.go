package naming

import (
	"fmt"
	"strings"
)

// GenerateResultFilename creates a standardized raster filename with metadata
// Format: {provider}_{script}_{from}_{to}_{bbox}{ext}
func GenerateResultFilename(provider, scriptID, from, to string, south, west, north, east float64, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s%s",
		provider, scriptID, from, to, SanitizeBBox(south, west, north, east), ext)
}

// GenerateAOIFilename creates a filename for an exported area of interest
// Format: aoi_{bbox}{ext}
func GenerateAOIFilename(south, west, north, east float64, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("aoi_%s%s", SanitizeBBox(south, west, north, east), ext)
}

// GenerateBatchDirName creates a directory name for a batch of date steps
// Format: {provider}_{script}_{from}_{to}_steps
func GenerateBatchDirName(provider, scriptID, from, to string) string {
	return fmt.Sprintf("%s_%s_%s_%s_steps", provider, scriptID, from, to)
}
