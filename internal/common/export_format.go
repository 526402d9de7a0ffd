package common

import "fmt"

// ExportFormat represents the output options when saving a fetched raster
type ExportFormat struct {
	SaveRaster    bool // Save the raster image itself
	SaveWorldFile bool // Save a world file sidecar for GIS tools
}

// ParseExportFormat converts a format string to ExportFormat struct
// Accepted values: "raster", "worldfile", "both"
func ParseExportFormat(format string) (ExportFormat, error) {
	switch format {
	case "raster":
		return ExportFormat{SaveRaster: true, SaveWorldFile: false}, nil
	case "worldfile":
		return ExportFormat{SaveRaster: false, SaveWorldFile: true}, nil
	case "both":
		return ExportFormat{SaveRaster: true, SaveWorldFile: true}, nil
	default:
		return ExportFormat{}, fmt.Errorf("invalid format: %s (must be 'raster', 'worldfile', or 'both')", format)
	}
}

// String returns the string representation of the export format
func (ef ExportFormat) String() string {
	if ef.SaveRaster && ef.SaveWorldFile {
		return "both"
	} else if ef.SaveRaster {
		return "raster"
	} else if ef.SaveWorldFile {
		return "worldfile"
	}
	return "none"
}
