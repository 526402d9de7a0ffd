// Package kml extracts placemark geometries from KML documents. Only the
// geometry elements relevant to AOI selection are parsed; styles, network
// links and extended data are ignored.
package kml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// ErrNoGeometry is returned when a document contains no usable placemark geometry
var ErrNoGeometry = errors.New("kml: no geometry found")

// KML document structures. Folders and Documents nest arbitrarily, so the
// container type references itself.
type kmlRoot struct {
	XMLName    xml.Name       `xml:"kml"`
	Documents  []kmlContainer `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlContainer struct {
	Documents  []kmlContainer `xml:"Document"`
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name          string            `xml:"name"`
	Polygon       *kmlPolygon       `xml:"Polygon"`
	LineString    *kmlLineString    `xml:"LineString"`
	Point         *kmlPoint         `xml:"Point"`
	MultiGeometry *kmlMultiGeometry `xml:"MultiGeometry"`
}

type kmlMultiGeometry struct {
	Polygons    []kmlPolygon    `xml:"Polygon"`
	LineStrings []kmlLineString `xml:"LineString"`
	Points      []kmlPoint      `xml:"Point"`
}

type kmlPolygon struct {
	Outer kmlBoundary   `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	Ring kmlLinearRing `xml:"LinearRing"`
}

type kmlLinearRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

// Parse reads a KML document and returns its placemark geometry. A single
// geometry is returned bare; several are wrapped in an orb.Collection.
func Parse(data []byte) (orb.Geometry, error) {
	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	placemarks := collectPlacemarks(nil, kmlContainer{
		Documents:  root.Documents,
		Folders:    root.Folders,
		Placemarks: root.Placemarks,
	})

	var geometries []orb.Geometry
	for _, pm := range placemarks {
		parsed, err := placemarkGeometries(pm)
		if err != nil {
			return nil, err
		}
		geometries = append(geometries, parsed...)
	}

	switch len(geometries) {
	case 0:
		return nil, ErrNoGeometry
	case 1:
		return geometries[0], nil
	default:
		return orb.Collection(geometries), nil
	}
}

// collectPlacemarks walks nested Documents and Folders in document order
func collectPlacemarks(out []kmlPlacemark, c kmlContainer) []kmlPlacemark {
	out = append(out, c.Placemarks...)
	for _, doc := range c.Documents {
		out = collectPlacemarks(out, doc)
	}
	for _, folder := range c.Folders {
		out = collectPlacemarks(out, folder)
	}
	return out
}

func placemarkGeometries(pm kmlPlacemark) ([]orb.Geometry, error) {
	var out []orb.Geometry

	appendPolygon := func(p kmlPolygon) error {
		poly, err := parsePolygon(p)
		if err != nil {
			return err
		}
		out = append(out, poly)
		return nil
	}
	appendLine := func(ls kmlLineString) error {
		line, err := parseLineString(ls.Coordinates)
		if err != nil {
			return err
		}
		out = append(out, line)
		return nil
	}
	appendPoint := func(pt kmlPoint) error {
		point, err := parsePoint(pt.Coordinates)
		if err != nil {
			return err
		}
		out = append(out, point)
		return nil
	}

	if pm.Polygon != nil {
		if err := appendPolygon(*pm.Polygon); err != nil {
			return nil, err
		}
	}
	if pm.LineString != nil {
		if err := appendLine(*pm.LineString); err != nil {
			return nil, err
		}
	}
	if pm.Point != nil {
		if err := appendPoint(*pm.Point); err != nil {
			return nil, err
		}
	}
	if pm.MultiGeometry != nil {
		for _, p := range pm.MultiGeometry.Polygons {
			if err := appendPolygon(p); err != nil {
				return nil, err
			}
		}
		for _, ls := range pm.MultiGeometry.LineStrings {
			if err := appendLine(ls); err != nil {
				return nil, err
			}
		}
		for _, pt := range pm.MultiGeometry.Points {
			if err := appendPoint(pt); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func parsePolygon(p kmlPolygon) (orb.Polygon, error) {
	outer, err := parseRing(p.Outer.Ring.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outer boundary: %w", err)
	}

	poly := orb.Polygon{outer}
	for _, inner := range p.Inner {
		ring, err := parseRing(inner.Ring.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inner boundary: %w", err)
		}
		poly = append(poly, ring)
	}

	return poly, nil
}

func parseRing(coords string) (orb.Ring, error) {
	line, err := parseLineString(coords)
	if err != nil {
		return nil, err
	}
	return orb.Ring(line), nil
}

func parseLineString(coords string) (orb.LineString, error) {
	points, err := parseCoordinates(coords)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, ErrNoGeometry
	}
	return orb.LineString(points), nil
}

func parsePoint(coords string) (orb.Point, error) {
	points, err := parseCoordinates(coords)
	if err != nil {
		return orb.Point{}, err
	}
	if len(points) == 0 {
		return orb.Point{}, ErrNoGeometry
	}
	return points[0], nil
}

// parseCoordinates splits a KML coordinate string into points. Tuples are
// whitespace separated, components comma separated as lng,lat[,alt].
func parseCoordinates(coords string) ([]orb.Point, error) {
	var points []orb.Point

	for _, tuple := range strings.Fields(coords) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("kml: invalid coordinate tuple %q", tuple)
		}

		lng, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: invalid longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("kml: invalid latitude %q: %w", parts[1], err)
		}

		points = append(points, orb.Point{lng, lat})
	}

	return points, nil
}
