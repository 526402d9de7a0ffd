package naming

import (
	"strings"
	"testing"
)

func TestSanitizeCoordinate(t *testing.T) {
	tests := []struct {
		name  string
		coord float64
		isLat bool
		want  string
	}{
		{name: "North latitude", coord: 48.8584, isLat: true, want: "48p8584N"},
		{name: "South latitude", coord: -33.8688, isLat: true, want: "33p8688S"},
		{name: "East longitude", coord: 2.2945, isLat: false, want: "2p2945E"},
		{name: "West longitude", coord: -122.4194, isLat: false, want: "122p4194W"},
		{name: "Zero latitude", coord: 0, isLat: true, want: "0p0000N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeCoordinate(tt.coord, tt.isLat); got != tt.want {
				t.Errorf("SanitizeCoordinate(%v) = %q, want %q", tt.coord, got, tt.want)
			}
		})
	}
}

func TestGenerateResultFilename(t *testing.T) {
	got := GenerateResultFilename("sentinel_hub", "ndvi", "2024-05-01", "2024-05-31", 10, 20, 30, 40, ".png")

	if !strings.HasPrefix(got, "sentinel_hub_ndvi_2024-05-01_2024-05-31_") {
		t.Errorf("filename = %q, missing the provider/script/date prefix", got)
	}
	if !strings.HasSuffix(got, ".png") {
		t.Errorf("filename = %q, missing extension", got)
	}
	if strings.ContainsAny(got, "/\\: ") {
		t.Errorf("filename %q contains unsafe characters", got)
	}

	// Extension without a leading dot still works
	alt := GenerateResultFilename("sentinel_hub", "ndvi", "2024-05-01", "2024-05-31", 10, 20, 30, 40, "png")
	if alt != got {
		t.Errorf("dotless extension produced %q, want %q", alt, got)
	}

	other := GenerateResultFilename("sentinel_hub", "ndvi", "2024-05-01", "2024-05-31", -10, 20, 30, 40, ".png")
	if other == got {
		t.Error("different bounds produced the same filename")
	}
}

func TestGenerateAOIFilename(t *testing.T) {
	got := GenerateAOIFilename(10, 20, 30, 40, ".geojson")
	want := "aoi_10p0000N-30p0000N_20p0000E-40p0000E.geojson"
	if got != want {
		t.Errorf("GenerateAOIFilename() = %q, want %q", got, want)
	}
}

func TestGenerateBatchDirName(t *testing.T) {
	got := GenerateBatchDirName("copernicus_dataspace", "true-color", "2024-01-01", "2024-06-30")
	if got != "copernicus_dataspace_true-color_2024-01-01_2024-06-30_steps" {
		t.Errorf("GenerateBatchDirName() = %q", got)
	}
}
