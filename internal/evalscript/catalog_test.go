package evalscript

import (
	"errors"
	"strings"
	"testing"
)

func TestBuiltIn(t *testing.T) {
	scripts, err := BuiltIn()
	if err != nil {
		t.Fatalf("BuiltIn() error = %v", err)
	}
	if len(scripts) == 0 {
		t.Fatal("BuiltIn() returned no scripts")
	}

	seen := make(map[string]bool)
	for _, s := range scripts {
		if seen[s.ID] {
			t.Errorf("duplicate script id %q", s.ID)
		}
		seen[s.ID] = true

		if s.Name == "" {
			t.Errorf("script %q has no name", s.ID)
		}
		if s.IconURL == "" {
			t.Errorf("script %q has no icon", s.ID)
		}
		if !strings.HasPrefix(s.Source, "//VERSION=3") {
			t.Errorf("script %q source does not start with //VERSION=3", s.ID)
		}
		if s.UserDefined {
			t.Errorf("built-in script %q flagged as user defined", s.ID)
		}
	}

	if !seen["true-color"] {
		t.Error("catalog is missing the true-color script")
	}
}

func TestBuiltInReturnsCopy(t *testing.T) {
	first, err := BuiltIn()
	if err != nil {
		t.Fatalf("BuiltIn() error = %v", err)
	}
	first[0].Name = "mutated"

	second, err := BuiltIn()
	if err != nil {
		t.Fatalf("BuiltIn() error = %v", err)
	}
	if second[0].Name == "mutated" {
		t.Error("BuiltIn() shares its backing slice with callers")
	}
}

func TestMerge(t *testing.T) {
	builtin := []Script{{ID: "true-color", Name: "True Color"}}
	custom := []Script{{ID: "my-script", Name: "Mine", Source: "//VERSION=3"}}

	merged := Merge(builtin, custom)
	if len(merged) != 2 {
		t.Fatalf("Merge() size = %d, want 2", len(merged))
	}
	if merged[0].ID != "true-color" {
		t.Errorf("Merge() first entry = %q, want built-in first", merged[0].ID)
	}
	if !merged[1].UserDefined {
		t.Error("Merge() did not flag the custom entry as user defined")
	}
}

func TestFind(t *testing.T) {
	scripts := []Script{
		{ID: "true-color", Name: "True Color"},
		{ID: "ndvi", Name: "NDVI"},
	}

	got, err := Find(scripts, "ndvi")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Name != "NDVI" {
		t.Errorf("Find() name = %q, want NDVI", got.Name)
	}

	if _, err := Find(scripts, "missing"); !errors.Is(err, ErrUnknownScript) {
		t.Errorf("Find() error = %v, want ErrUnknownScript", err)
	}
}

func TestValidateCustom(t *testing.T) {
	tests := []struct {
		name    string
		script  Script
		wantErr bool
	}{
		{
			name:    "Valid script",
			script:  Script{ID: "my-index", Name: "My Index", Source: "//VERSION=3\nreturn [0];"},
			wantErr: false,
		},
		{
			name:    "Missing id",
			script:  Script{Name: "No ID", Source: "//VERSION=3"},
			wantErr: true,
		},
		{
			name:    "Id with spaces",
			script:  Script{ID: "my index", Name: "Spaces", Source: "//VERSION=3"},
			wantErr: true,
		},
		{
			name:    "Missing name",
			script:  Script{ID: "unnamed", Source: "//VERSION=3"},
			wantErr: true,
		},
		{
			name:    "Missing source",
			script:  Script{ID: "empty", Name: "Empty"},
			wantErr: true,
		},
		{
			name:    "Reserved built-in id",
			script:  Script{ID: "true-color", Name: "Clash", Source: "//VERSION=3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustom(tt.script)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCustom() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
