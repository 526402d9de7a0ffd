// Package worldfile writes ESRI world files, the six line affine sidecars
// GIS tools read to georeference plain raster images.
package worldfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Parameters is the affine transform a world file describes. OriginX and
// OriginY locate the center of the upper-left pixel, per the format.
type Parameters struct {
	PixelSizeX float64 // A: x size of a pixel in map units
	RotationY  float64 // D: rotation about the y axis
	RotationX  float64 // B: rotation about the x axis
	PixelSizeY float64 // E: y size of a pixel, negative for north-up
	OriginX    float64 // C: x of the upper-left pixel center
	OriginY    float64 // F: y of the upper-left pixel center
}

// ForBounds computes north-up parameters for a raster covering the given
// WGS84 bounds
func ForBounds(south, west, north, east float64, widthPx, heightPx int) (Parameters, error) {
	if widthPx <= 0 || heightPx <= 0 {
		return Parameters{}, fmt.Errorf("raster size %dx%d is not positive", widthPx, heightPx)
	}

	pixelX := (east - west) / float64(widthPx)
	pixelY := -(north - south) / float64(heightPx)

	return Parameters{
		PixelSizeX: pixelX,
		PixelSizeY: pixelY,
		OriginX:    west + pixelX/2,
		OriginY:    north + pixelY/2,
	}, nil
}

// Encode renders the six lines in file order
func (p Parameters) Encode() []byte {
	lines := []float64{
		p.PixelSizeX,
		p.RotationY,
		p.RotationX,
		p.PixelSizeY,
		p.OriginX,
		p.OriginY,
	}

	var b strings.Builder
	for _, v := range lines {
		b.WriteString(strconv.FormatFloat(v, 'f', 10, 64))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// SidecarExtension returns the world file extension for a raster extension,
// following the first-letter last-letter plus w convention
func SidecarExtension(rasterExt string) string {
	ext := strings.TrimPrefix(strings.ToLower(rasterExt), ".")
	switch ext {
	case "png":
		return ".pgw"
	case "jpg", "jpeg":
		return ".jgw"
	case "tif", "tiff":
		return ".tfw"
	case "gif":
		return ".gfw"
	default:
		return ".wld"
	}
}

// Write saves the sidecar next to rasterPath and returns the sidecar path
func Write(rasterPath string, p Parameters) (string, error) {
	ext := filepath.Ext(rasterPath)
	sidecarPath := strings.TrimSuffix(rasterPath, ext) + SidecarExtension(ext)

	if err := os.WriteFile(sidecarPath, p.Encode(), 0644); err != nil {
		return "", fmt.Errorf("failed to write world file: %w", err)
	}
	return sidecarPath, nil
}

// WGS84 well-known text written into the aux sidecar
const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]]`

// WriteAuxXML saves a PAM sidecar declaring the CRS, so desktop GIS tools
// do not prompt for one when the raster is dropped in
func WriteAuxXML(rasterPath string) (string, error) {
	auxPath := rasterPath + ".aux.xml"

	content := "<PAMDataset>\n" +
		"  <SRS dataAxisToSRSAxisMapping=\"2,1\">" + wgs84WKT + "</SRS>\n" +
		"</PAMDataset>\n"

	if err := os.WriteFile(auxPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write aux file: %w", err)
	}
	return auxPath, nil
}
