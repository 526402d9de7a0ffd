// Package evalscript holds the built-in processing scripts offered in the
// script picker and the helpers that merge user-defined scripts on top.
package evalscript

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

//go:embed catalog.json scripts/*.js
var builtinFS embed.FS

// ErrUnknownScript is returned when a script id matches no catalog entry
var ErrUnknownScript = errors.New("evalscript: unknown script id")

// Script is one selectable processing script. Source holds the full
// evalscript text sent verbatim to the process API.
type Script struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IconURL     string `json:"iconUrl"`
	Description string `json:"description"`
	Source      string `json:"source"`
	UserDefined bool   `json:"userDefined"`
}

type catalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	File        string `json:"file"`
}

var (
	loadOnce sync.Once
	loaded   []Script
	loadErr  error
)

func load() {
	raw, err := builtinFS.ReadFile("catalog.json")
	if err != nil {
		loadErr = fmt.Errorf("failed to read script catalog: %w", err)
		return
	}

	var entries []catalogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		loadErr = fmt.Errorf("failed to decode script catalog: %w", err)
		return
	}

	scripts := make([]Script, 0, len(entries))
	for _, entry := range entries {
		source, err := builtinFS.ReadFile(path.Join("scripts", entry.File))
		if err != nil {
			loadErr = fmt.Errorf("failed to read script %s: %w", entry.ID, err)
			return
		}
		scripts = append(scripts, Script{
			ID:          entry.ID,
			Name:        entry.Name,
			IconURL:     entry.Icon,
			Description: entry.Description,
			Source:      string(source),
		})
	}
	loaded = scripts
}

// BuiltIn returns the embedded scripts in catalog order
func BuiltIn() ([]Script, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Script, len(loaded))
	copy(out, loaded)
	return out, nil
}

// Merge appends user-defined scripts after the built-in ones, forcing the
// UserDefined flag so the frontend can mark them in the picker
func Merge(builtin, custom []Script) []Script {
	merged := make([]Script, 0, len(builtin)+len(custom))
	merged = append(merged, builtin...)
	for _, s := range custom {
		s.UserDefined = true
		merged = append(merged, s)
	}
	return merged
}

// Find looks up a script by id
func Find(scripts []Script, id string) (Script, error) {
	for _, s := range scripts {
		if s.ID == id {
			return s, nil
		}
	}
	return Script{}, fmt.Errorf("%w: %s", ErrUnknownScript, id)
}

// ValidateCustom checks a user-defined script before it is saved to settings
func ValidateCustom(s Script) error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("script id is required")
	}
	if strings.ContainsAny(s.ID, " \t/\\") {
		return fmt.Errorf("script id %q must not contain spaces or slashes", s.ID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("script name is required")
	}
	if strings.TrimSpace(s.Source) == "" {
		return errors.New("script source is required")
	}
	builtin, err := BuiltIn()
	if err != nil {
		return err
	}
	for _, b := range builtin {
		if b.ID == s.ID {
			return fmt.Errorf("script id %q is reserved by a built-in script", s.ID)
		}
	}
	return nil
}
