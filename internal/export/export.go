// Package export saves fetched rasters and areas of interest into the
// user's chosen directory, with the sidecars GIS tools expect.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kml "github.com/twpayne/go-kml/v2"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sentinel-desktop/internal/aoi"
	"sentinel-desktop/internal/common"
	"sentinel-desktop/internal/process"
	"sentinel-desktop/internal/session"
	"sentinel-desktop/internal/utils/naming"
	"sentinel-desktop/pkg/worldfile"
)

// SaveResult writes a fetched raster and, depending on the format, its
// georeferencing sidecars. Returns the paths written.
func SaveResult(dir, provider string, result *session.ImageryResult, format common.ExportFormat) ([]string, error) {
	if result == nil || len(result.Data) == 0 {
		return nil, fmt.Errorf("no result to save")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	b := result.Bounds
	filename := naming.GenerateResultFilename(
		provider, result.ScriptID,
		dateToken(result.From), dateToken(result.To),
		b.South, b.West, b.North, b.East,
		rasterExtension(result.ContentType))
	rasterPath := filepath.Join(dir, filename)

	var written []string

	if format.SaveRaster {
		if err := os.WriteFile(rasterPath, result.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write raster: %w", err)
		}
		written = append(written, rasterPath)
	}

	if format.SaveWorldFile {
		params, err := worldfile.ForBounds(b.South, b.West, b.North, b.East, process.OutputWidth, process.OutputHeight)
		if err != nil {
			return written, err
		}
		sidecarPath, err := worldfile.Write(rasterPath, params)
		if err != nil {
			return written, err
		}
		written = append(written, sidecarPath)

		auxPath, err := worldfile.WriteAuxXML(rasterPath)
		if err != nil {
			return written, err
		}
		written = append(written, auxPath)
	}

	return written, nil
}

// SaveAOIGeoJSON writes the area of interest as a GeoJSON feature
func SaveAOIGeoJSON(dir string, area *aoi.AOI) (string, error) {
	if area == nil {
		return "", fmt.Errorf("no area of interest to save")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	feature := geojson.NewFeature(area.Geometry)
	data, err := json.MarshalIndent(feature, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode GeoJSON: %w", err)
	}

	b := area.Bounds
	path := filepath.Join(dir, naming.GenerateAOIFilename(b.South, b.West, b.North, b.East, ".geojson"))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write GeoJSON: %w", err)
	}
	return path, nil
}

// SaveAOIKML writes the area of interest as a KML document
func SaveAOIKML(dir string, area *aoi.AOI) (string, error) {
	if area == nil {
		return "", fmt.Errorf("no area of interest to save")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	shape, err := kmlGeometry(area.Geometry)
	if err != nil {
		return "", err
	}

	doc := kml.KML(
		kml.Document(
			kml.Name("Area of interest"),
			kml.Placemark(
				kml.Name("AOI"),
				shape,
			),
		),
	)

	b := area.Bounds
	path := filepath.Join(dir, naming.GenerateAOIFilename(b.South, b.West, b.North, b.East, ".kml"))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create KML file: %w", err)
	}
	defer f.Close()

	if err := doc.WriteIndent(f, "", "  "); err != nil {
		return "", fmt.Errorf("failed to write KML: %w", err)
	}
	return path, nil
}

// kmlGeometry converts an orb geometry into KML elements
func kmlGeometry(g orb.Geometry) (kml.Element, error) {
	switch shape := g.(type) {
	case orb.Point:
		return kml.Point(kml.Coordinates(kmlCoordinate(shape))), nil
	case orb.LineString:
		return kml.LineString(kml.Coordinates(kmlCoordinates(shape)...)), nil
	case orb.Ring:
		return kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(kmlCoordinates(orb.LineString(shape))...)))), nil
	case orb.Polygon:
		return kmlPolygon(shape), nil
	case orb.MultiPolygon:
		elements := make([]kml.Element, 0, len(shape))
		for _, polygon := range shape {
			elements = append(elements, kmlPolygon(polygon))
		}
		return kml.MultiGeometry(elements...), nil
	case orb.Collection:
		elements := make([]kml.Element, 0, len(shape))
		for _, member := range shape {
			element, err := kmlGeometry(member)
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
		}
		return kml.MultiGeometry(elements...), nil
	default:
		return nil, fmt.Errorf("cannot export %T as KML", g)
	}
}

func kmlPolygon(polygon orb.Polygon) kml.Element {
	elements := make([]kml.Element, 0, len(polygon))
	for i, ring := range polygon {
		lr := kml.LinearRing(kml.Coordinates(kmlCoordinates(orb.LineString(ring))...))
		if i == 0 {
			elements = append(elements, kml.OuterBoundaryIs(lr))
		} else {
			elements = append(elements, kml.InnerBoundaryIs(lr))
		}
	}
	return kml.Polygon(elements...)
}

func kmlCoordinates(line orb.LineString) []kml.Coordinate {
	coords := make([]kml.Coordinate, 0, len(line))
	for _, point := range line {
		coords = append(coords, kmlCoordinate(point))
	}
	return coords
}

func kmlCoordinate(point orb.Point) kml.Coordinate {
	return kml.Coordinate{Lon: point[0], Lat: point[1]}
}

// dateToken strips the time part of an RFC3339 instant for filenames
func dateToken(value string) string {
	if idx := strings.Index(value, "T"); idx > 0 {
		return value[:idx]
	}
	return value
}

func rasterExtension(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/tiff"):
		return ".tiff"
	default:
		return ".png"
	}
}
