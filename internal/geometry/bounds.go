package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ErrInvalidGeometry is returned when a bounds reduction receives no coordinates
var ErrInvalidGeometry = errors.New("geometry: no coordinates")

// Coordinate is a WGS84 position in GeoJSON axis order (longitude first)
type Coordinate [2]float64

// Lng returns the longitude in degrees
func (c Coordinate) Lng() float64 {
	return c[0]
}

// Lat returns the latitude in degrees
func (c Coordinate) Lat() float64 {
	return c[1]
}

// Ring is an ordered sequence of coordinates forming a polygon boundary
type Ring []Coordinate

// BoundingBox represents a geographic bounding box
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// RingBounds computes the axis-aligned bounding box covering every coordinate
// of the ring in a single pass, seeded at +Inf/-Inf so a one-point ring yields
// a zero-area box at that point
func RingBounds(ring Ring) (BoundingBox, error) {
	if len(ring) == 0 {
		return BoundingBox{}, ErrInvalidGeometry
	}

	bounds := BoundingBox{
		South: math.Inf(1),
		West:  math.Inf(1),
		North: math.Inf(-1),
		East:  math.Inf(-1),
	}

	for _, c := range ring {
		if c.Lng() < bounds.West {
			bounds.West = c.Lng()
		}
		if c.Lng() > bounds.East {
			bounds.East = c.Lng()
		}
		if c.Lat() < bounds.South {
			bounds.South = c.Lat()
		}
		if c.Lat() > bounds.North {
			bounds.North = c.Lat()
		}
	}

	return bounds, nil
}

// GeometryBounds folds every position of a geometry through the same
// reduction as RingBounds. Polygons, multi-geometries and collections are
// all flattened to their positions first.
func GeometryBounds(g orb.Geometry) (BoundingBox, error) {
	return RingBounds(appendPositions(nil, g))
}

// appendPositions flattens a geometry into a position sequence
func appendPositions(ring Ring, g orb.Geometry) Ring {
	switch v := g.(type) {
	case orb.Point:
		ring = append(ring, Coordinate{v[0], v[1]})
	case orb.MultiPoint:
		for _, p := range v {
			ring = append(ring, Coordinate{p[0], p[1]})
		}
	case orb.LineString:
		for _, p := range v {
			ring = append(ring, Coordinate{p[0], p[1]})
		}
	case orb.MultiLineString:
		for _, ls := range v {
			ring = appendPositions(ring, ls)
		}
	case orb.Ring:
		ring = appendPositions(ring, orb.LineString(v))
	case orb.Polygon:
		for _, r := range v {
			ring = appendPositions(ring, r)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			ring = appendPositions(ring, p)
		}
	case orb.Collection:
		for _, member := range v {
			ring = appendPositions(ring, member)
		}
	case orb.Bound:
		ring = appendPositions(ring, v.ToRing())
	}
	return ring
}

// Union returns the smallest box covering both b and other
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	out := b
	if other.South < out.South {
		out.South = other.South
	}
	if other.West < out.West {
		out.West = other.West
	}
	if other.North > out.North {
		out.North = other.North
	}
	if other.East > out.East {
		out.East = other.East
	}
	return out
}

// Contains reports whether a coordinate lies within the box (inclusive)
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat() >= b.South && c.Lat() <= b.North &&
		c.Lng() >= b.West && c.Lng() <= b.East
}

// Validate checks if the bounding box is valid. Zero-area boxes are allowed
// since a single-point AOI reduces to one.
func (b BoundingBox) Validate() error {
	if b.South > b.North {
		return fmt.Errorf("south (%f) must not exceed north (%f)", b.South, b.North)
	}
	if b.West > b.East {
		return fmt.Errorf("west (%f) must not exceed east (%f)", b.West, b.East)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]: south=%f, north=%f", b.South, b.North)
	}
	if b.West < -180 || b.East > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]: west=%f, east=%f", b.West, b.East)
	}
	return nil
}

// LatLngPairs returns the corners in latitude-first order for the map widget:
// [[southLat, westLng], [northLat, eastLng]]. GeoJSON keeps longitude first;
// the display layer does not, so the swap happens here and nowhere else.
func (b BoundingBox) LatLngPairs() [2][2]float64 {
	return [2][2]float64{
		{b.South, b.West},
		{b.North, b.East},
	}
}

// Bound converts the box to an orb.Bound (longitude-first corners)
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// FromBound converts an orb.Bound into a BoundingBox
func FromBound(bound orb.Bound) BoundingBox {
	return BoundingBox{
		South: bound.Min[1],
		West:  bound.Min[0],
		North: bound.Max[1],
		East:  bound.Max[0],
	}
}

// FromOrbRing converts an orb ring into a Ring
func FromOrbRing(r orb.Ring) Ring {
	ring := make(Ring, len(r))
	for i, p := range r {
		ring[i] = Coordinate{p[0], p[1]}
	}
	return ring
}

// Center returns the box midpoint as (lat, lng)
func (b BoundingBox) Center() (float64, float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}
