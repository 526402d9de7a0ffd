// Package aoi normalizes the three area-of-interest input channels (drawn
// shape, uploaded file, uploaded archive) into a single geometry+bounds
// record.
package aoi

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"sentinel-desktop/internal/geometry"
	"sentinel-desktop/internal/kml"
)

var (
	// ErrEmptyShape is returned for a finished draw event carrying no rings
	ErrEmptyShape = errors.New("aoi: drawn shape has no rings")

	// ErrUnsupportedFormat is returned for single-file uploads of an unknown type
	ErrUnsupportedFormat = errors.New("aoi: unsupported file format")

	// ErrNoRecognizedEntries is returned when an archive holds no parseable members
	ErrNoRecognizedEntries = errors.New("aoi: archive contains no recognized entries")
)

// MIME types accepted by the single-file channel
const (
	MIMEKML         = "application/vnd.google-earth.kml+xml"
	MIMEJSON        = "application/json"
	MIMEGeoJSON     = "application/geo+json"
	MIMEOctetStream = "application/octet-stream"
)

// AOI is the current area of interest: one geometry plus the box covering it.
// Exactly one AOI is active at a time; a new selection replaces it wholesale.
type AOI struct {
	Geometry orb.Geometry
	Bounds   geometry.BoundingBox
}

// GeoJSON returns the AOI geometry in GeoJSON form for request payloads
func (a *AOI) GeoJSON() *geojson.Geometry {
	return geojson.NewGeometry(a.Geometry)
}

// FromDrawn consumes a finished interactive-draw event. The map widget hands
// over the shape as a GeoJSON geometry (or feature); the outer ring drives
// the bounds reduction.
func FromDrawn(data []byte) (*AOI, error) {
	geom, err := parseGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read drawn shape: %w", err)
	}

	switch shape := geom.(type) {
	case orb.Polygon:
		if len(shape) == 0 {
			return nil, ErrEmptyShape
		}
		bounds, err := geometry.RingBounds(geometry.FromOrbRing(shape[0]))
		if err != nil {
			return nil, ErrEmptyShape
		}
		return &AOI{Geometry: shape, Bounds: bounds}, nil

	case orb.MultiPolygon:
		if len(shape) == 0 {
			return nil, ErrEmptyShape
		}
		bounds, err := geometry.GeometryBounds(shape)
		if err != nil {
			return nil, ErrEmptyShape
		}
		return &AOI{Geometry: shape, Bounds: bounds}, nil

	default:
		bounds, err := geometry.GeometryBounds(geom)
		if err != nil {
			return nil, ErrEmptyShape
		}
		return &AOI{Geometry: geom, Bounds: bounds}, nil
	}
}

// FromFile consumes a single uploaded file, dispatching on its declared MIME
// type. Desktop platforms often report no MIME for .kml files, so a blank or
// generic type falls back to the file extension.
func FromFile(name, declaredType string, data []byte) (*AOI, error) {
	var geom orb.Geometry
	var err error

	switch declaredType {
	case MIMEKML:
		geom, err = kml.Parse(data)
	case MIMEJSON, MIMEGeoJSON:
		geom, err = parseGeoJSON(data)
	case "", MIMEOctetStream:
		switch strings.ToLower(filepath.Ext(name)) {
		case ".kml":
			geom, err = kml.Parse(data)
		case ".geojson", ".json":
			geom, err = parseGeoJSON(data)
		default:
			return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, declaredType, name)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, declaredType)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	bounds, err := geometry.GeometryBounds(geom)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce bounds for %s: %w", name, err)
	}

	return &AOI{Geometry: geom, Bounds: bounds}, nil
}

// parseGeoJSON accepts a bare geometry, a feature, or a feature collection
// and returns the contained geometry (several features become a collection)
func parseGeoJSON(data []byte) (orb.Geometry, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse feature collection: %w", err)
		}
		var geometries []orb.Geometry
		for _, f := range fc.Features {
			if f.Geometry != nil {
				geometries = append(geometries, f.Geometry)
			}
		}
		if len(geometries) == 1 {
			return geometries[0], nil
		}
		return orb.Collection(geometries), nil

	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse feature: %w", err)
		}
		if f.Geometry == nil {
			return nil, geometry.ErrInvalidGeometry
		}
		return f.Geometry, nil

	case "":
		return nil, fmt.Errorf("geojson document has no type discriminator")

	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse geometry: %w", err)
		}
		return g.Geometry(), nil
	}
}
