package aoi

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/paulmach/orb"

	"sentinel-desktop/internal/geometry"
	"sentinel-desktop/internal/kml"
)

// entryResult holds the outcome of parsing one archive member. Index keeps
// the archive listing position so the bounds union runs in encounter order
// no matter which parse finishes first.
type entryResult struct {
	index    int
	name     string
	geometry orb.Geometry
	bounds   geometry.BoundingBox
	err      error
}

// FromArchive consumes a ZIP upload. Every .kml/.geojson/.json member is
// parsed concurrently; the per-member bounds are then unioned in encounter
// order. Members with other extensions are skipped. Zero recognized members
// is an error, a recognized member that fails to parse fails the import.
func FromArchive(data []byte) (*AOI, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	type job struct {
		index int
		file  *zip.File
	}

	var jobs []job
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// macOS archives carry AppleDouble clutter that matches by extension
		// but is not geodata
		base := filepath.Base(f.Name)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".kml", ".geojson", ".json":
			jobs = append(jobs, job{index: len(jobs), file: f})
		}
	}

	if len(jobs) == 0 {
		return nil, ErrNoRecognizedEntries
	}

	results := make([]entryResult, len(jobs))
	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			results[j.index] = parseEntry(j.index, j.file)
		}(j)
	}
	wg.Wait()

	// Join complete; reduce in encounter order
	var geometries []orb.Geometry
	var bounds geometry.BoundingBox
	for i, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("failed to parse archive entry %s: %w", res.name, res.err)
		}
		geometries = append(geometries, res.geometry)
		if i == 0 {
			bounds = res.bounds
		} else {
			bounds = bounds.Union(res.bounds)
		}
	}

	var geom orb.Geometry
	if len(geometries) == 1 {
		geom = geometries[0]
	} else {
		geom = orb.Collection(geometries)
	}

	return &AOI{Geometry: geom, Bounds: bounds}, nil
}

// parseEntry reads and parses a single recognized archive member
func parseEntry(index int, f *zip.File) entryResult {
	res := entryResult{index: index, name: f.Name}

	rc, err := f.Open()
	if err != nil {
		res.err = fmt.Errorf("failed to open entry: %w", err)
		return res
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		res.err = fmt.Errorf("failed to read entry: %w", err)
		return res
	}

	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".kml":
		res.geometry, res.err = kml.Parse(content)
	case ".geojson", ".json":
		res.geometry, res.err = parseGeoJSON(content)
	}
	if res.err != nil {
		return res
	}

	res.bounds, res.err = geometry.GeometryBounds(res.geometry)
	return res
}
