package geometry

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
)

func TestRingBounds(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		want BoundingBox
	}{
		{
			name: "Simple quad",
			ring: Ring{{20, 10}, {40, 10}, {40, 30}, {20, 30}, {20, 10}},
			want: BoundingBox{South: 10, West: 20, North: 30, East: 40},
		},
		{
			name: "Negative coordinates",
			ring: Ring{{-74.3, 40.4}, {-73.6, 40.4}, {-73.6, 41.0}, {-74.3, 41.0}, {-74.3, 40.4}},
			want: BoundingBox{South: 40.4, West: -74.3, North: 41.0, East: -73.6},
		},
		{
			name: "Crossing the equator and prime meridian",
			ring: Ring{{-1.5, -2.5}, {3.0, -2.5}, {3.0, 4.0}, {-1.5, 4.0}, {-1.5, -2.5}},
			want: BoundingBox{South: -2.5, West: -1.5, North: 4.0, East: 3.0},
		},
		{
			name: "Extremes come from different vertices",
			ring: Ring{{5, 50}, {15, 45}, {10, 55}, {0, 48}, {5, 50}},
			want: BoundingBox{South: 45, West: 0, North: 55, East: 15},
		},
		{
			name: "Single coordinate collapses to zero-area box",
			ring: Ring{{31.2357, 30.0444}},
			want: BoundingBox{South: 30.0444, West: 31.2357, North: 30.0444, East: 31.2357},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RingBounds(tt.ring)
			if err != nil {
				t.Fatalf("RingBounds() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RingBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRingBoundsEmpty(t *testing.T) {
	_, err := RingBounds(nil)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("RingBounds(nil) error = %v, want ErrInvalidGeometry", err)
	}

	_, err = RingBounds(Ring{})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("RingBounds(empty) error = %v, want ErrInvalidGeometry", err)
	}
}

func TestRingBoundsCoversAllPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	ring := make(Ring, 200)
	for i := range ring {
		ring[i] = Coordinate{rng.Float64()*360 - 180, rng.Float64()*180 - 90}
	}

	bounds, err := RingBounds(ring)
	if err != nil {
		t.Fatalf("RingBounds() error = %v", err)
	}

	if bounds.South > bounds.North {
		t.Errorf("south %f exceeds north %f", bounds.South, bounds.North)
	}
	if bounds.West > bounds.East {
		t.Errorf("west %f exceeds east %f", bounds.West, bounds.East)
	}

	for i, c := range ring {
		if !bounds.Contains(c) {
			t.Errorf("coordinate %d (%f, %f) outside bounds %+v", i, c.Lng(), c.Lat(), bounds)
		}
	}
}

func TestRingBoundsOrderInvariant(t *testing.T) {
	ring := Ring{{5, 50}, {15, 45}, {10, 55}, {0, 48}, {-3, 52}, {7, 41}}

	want, err := RingBounds(ring)
	if err != nil {
		t.Fatalf("RingBounds() error = %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		shuffled := make(Ring, len(ring))
		copy(shuffled, ring)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got, err := RingBounds(shuffled)
		if err != nil {
			t.Fatalf("RingBounds() error = %v", err)
		}
		if got != want {
			t.Errorf("round %d: RingBounds() = %+v, want %+v", round, got, want)
		}
	}
}

func TestGeometryBounds(t *testing.T) {
	tests := []struct {
		name     string
		geometry orb.Geometry
		want     BoundingBox
	}{
		{
			name: "Polygon outer ring",
			geometry: orb.Polygon{
				{{20, 10}, {40, 10}, {40, 30}, {20, 30}, {20, 10}},
			},
			want: BoundingBox{South: 10, West: 20, North: 30, East: 40},
		},
		{
			name: "MultiPolygon spans both members",
			geometry: orb.MultiPolygon{
				{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
				{{{5, 5}, {6, 5}, {6, 7}, {5, 7}, {5, 5}}},
			},
			want: BoundingBox{South: 0, West: 0, North: 7, East: 6},
		},
		{
			name:     "Point",
			geometry: orb.Point{12.5, -3.25},
			want:     BoundingBox{South: -3.25, West: 12.5, North: -3.25, East: 12.5},
		},
		{
			name: "Collection",
			geometry: orb.Collection{
				orb.Point{-10, -10},
				orb.LineString{{0, 0}, {20, 15}},
			},
			want: BoundingBox{South: -10, West: -10, North: 15, East: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GeometryBounds(tt.geometry)
			if err != nil {
				t.Fatalf("GeometryBounds() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GeometryBounds() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGeometryBoundsEmpty(t *testing.T) {
	_, err := GeometryBounds(orb.Collection{})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("GeometryBounds(empty collection) error = %v, want ErrInvalidGeometry", err)
	}

	_, err = GeometryBounds(orb.Polygon{})
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("GeometryBounds(empty polygon) error = %v, want ErrInvalidGeometry", err)
	}
}

func TestBoundingBoxUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b BoundingBox
		want BoundingBox
	}{
		{
			name: "Disjoint boxes",
			a:    BoundingBox{South: 0, West: 0, North: 1, East: 1},
			b:    BoundingBox{South: 5, West: 5, North: 7, East: 6},
			want: BoundingBox{South: 0, West: 0, North: 7, East: 6},
		},
		{
			name: "Contained box is absorbed",
			a:    BoundingBox{South: 0, West: 0, North: 10, East: 10},
			b:    BoundingBox{South: 2, West: 2, North: 3, East: 3},
			want: BoundingBox{South: 0, West: 0, North: 10, East: 10},
		},
		{
			name: "Overlapping boxes",
			a:    BoundingBox{South: -5, West: -5, North: 5, East: 5},
			b:    BoundingBox{South: 0, West: 0, North: 8, East: 9},
			want: BoundingBox{South: -5, West: -5, North: 8, East: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Union(tt.b)
			if got != tt.want {
				t.Errorf("Union() = %+v, want %+v", got, tt.want)
			}

			// Union is symmetric
			if rev := tt.b.Union(tt.a); rev != tt.want {
				t.Errorf("reversed Union() = %+v, want %+v", rev, tt.want)
			}
		})
	}
}

func TestLatLngPairs(t *testing.T) {
	// GeoJSON order is (lng, lat); the display pairs must come back (lat, lng).
	bounds := BoundingBox{South: 10, West: 20, North: 30, East: 40}

	got := bounds.LatLngPairs()
	want := [2][2]float64{{10, 20}, {30, 40}}
	if got != want {
		t.Errorf("LatLngPairs() = %v, want %v", got, want)
	}
}

func TestCenter(t *testing.T) {
	b := BoundingBox{South: 10, West: 20, North: 30, East: 40}
	lat, lng := b.Center()
	if lat != 20 || lng != 30 {
		t.Errorf("Center() = (%v, %v), want (20, 30)", lat, lng)
	}
}

func TestBoundConversionRoundTrip(t *testing.T) {
	bounds := BoundingBox{South: -33.9, West: 18.3, North: -33.8, East: 18.5}

	if got := FromBound(bounds.Bound()); got != bounds {
		t.Errorf("FromBound(Bound()) = %+v, want %+v", got, bounds)
	}

	orbBound := bounds.Bound()
	if orbBound.Min[0] != bounds.West || orbBound.Min[1] != bounds.South {
		t.Errorf("Bound() min = %v, want lng-first (%f, %f)", orbBound.Min, bounds.West, bounds.South)
	}
}

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  BoundingBox
		wantErr bool
	}{
		{
			name:   "Valid box",
			bounds: BoundingBox{South: 10, West: 20, North: 30, East: 40},
		},
		{
			name:   "Zero-area box is valid",
			bounds: BoundingBox{South: 10, West: 20, North: 10, East: 20},
		},
		{
			name:    "South above north",
			bounds:  BoundingBox{South: 30, West: 20, North: 10, East: 40},
			wantErr: true,
		},
		{
			name:    "West beyond east",
			bounds:  BoundingBox{South: 10, West: 40, North: 30, East: 20},
			wantErr: true,
		},
		{
			name:    "Latitude out of range",
			bounds:  BoundingBox{South: -95, West: 20, North: 30, East: 40},
			wantErr: true,
		},
		{
			name:    "Longitude out of range",
			bounds:  BoundingBox{South: 10, West: 20, North: 30, East: 190},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
