package main

import (
	"fmt"
	"log"

	"sentinel-desktop/internal/config"
	"sentinel-desktop/internal/evalscript"
)

// ===================
// Settings Management
// ===================

// GetSettings returns current user settings
func (a *App) GetSettings() (*config.UserSettings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Return a copy to prevent external modifications
	settingsCopy := *a.settings
	return &settingsCopy, nil
}

// SaveSettings saves user settings to disk and updates app state
func (a *App) SaveSettings(settings *config.UserSettings) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := settings.Validate(); err != nil {
		return err
	}

	// Save to disk
	if err := config.SaveSettings(settings); err != nil {
		return err
	}

	// Update app state and rebuild the process client against the possibly
	// changed endpoint and credentials
	a.settings = settings
	a.rebuildClientLocked()

	// Note: Cache settings require app restart to take effect
	log.Printf("Settings saved. Cache settings will apply on next restart.")

	return nil
}

// GetSettingsPath returns the OS-specific settings file path
func (a *App) GetSettingsPath() string {
	return config.GetSettingsPath()
}

// SaveMapPosition saves the current map position for session persistence
// Called on app close or periodically to remember the last viewed location
func (a *App) SaveMapPosition(lat, lon, zoom float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.settings.LastCenterLat = lat
	a.settings.LastCenterLon = lon
	a.settings.LastZoom = zoom

	if err := config.SaveSettings(a.settings); err != nil {
		return err
	}

	log.Printf("Saved map position: lat=%.6f, lon=%.6f, zoom=%.1f", lat, lon, zoom)
	return nil
}

// ===================
// Custom Evalscripts
// ===================

// AddCustomScript adds a new user-defined evalscript
func (a *App) AddCustomScript(script config.CustomScript) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Validate against the built-in catalog
	if err := evalscript.ValidateCustom(evalscript.Script{
		ID:     script.ID,
		Name:   script.Name,
		Source: script.Source,
	}); err != nil {
		return err
	}

	// Check for duplicate ids
	for _, existing := range a.settings.CustomScripts {
		if existing.ID == script.ID {
			return fmt.Errorf("script with id '%s' already exists", script.ID)
		}
	}

	// Add to settings
	a.settings.CustomScripts = append(a.settings.CustomScripts, script)

	// Save settings
	if err := config.SaveSettings(a.settings); err != nil {
		return err
	}

	a.reloadScriptsLocked()
	log.Printf("Added custom script: %s (%s)", script.Name, script.ID)
	return nil
}

// RemoveCustomScript removes a user-defined evalscript by id
func (a *App) RemoveCustomScript(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Find and remove script
	found := false
	newScripts := make([]config.CustomScript, 0)
	for _, script := range a.settings.CustomScripts {
		if script.ID != id {
			newScripts = append(newScripts, script)
		} else {
			found = true
		}
	}

	if !found {
		return fmt.Errorf("script '%s' not found", id)
	}

	a.settings.CustomScripts = newScripts

	// The removed script may be selected; fall back to the default
	if a.state.ScriptID == id {
		a.state.ScriptID = a.settings.DefaultScriptID
	}

	// Save settings
	if err := config.SaveSettings(a.settings); err != nil {
		return err
	}

	a.reloadScriptsLocked()
	log.Printf("Removed custom script: %s", id)
	return nil
}

// UpdateCustomScript updates an existing user-defined evalscript
func (a *App) UpdateCustomScript(id string, script config.CustomScript) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if script.ID != id {
		return fmt.Errorf("script id cannot change (got %s, want %s)", script.ID, id)
	}
	if err := evalscript.ValidateCustom(evalscript.Script{
		ID:     script.ID,
		Name:   script.Name,
		Source: script.Source,
	}); err != nil {
		return err
	}

	// Find and update script
	found := false
	for i, existing := range a.settings.CustomScripts {
		if existing.ID == id {
			a.settings.CustomScripts[i] = script
			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("script '%s' not found", id)
	}

	// Save settings
	if err := config.SaveSettings(a.settings); err != nil {
		return err
	}

	a.reloadScriptsLocked()
	log.Printf("Updated custom script: %s", id)
	return nil
}

// reloadScriptsLocked rebuilds the merged catalog after a custom script
// change. Caller holds a.mu.
func (a *App) reloadScriptsLocked() {
	builtin, err := evalscript.BuiltIn()
	if err != nil {
		log.Printf("Failed to reload script catalog: %v", err)
		return
	}
	a.scripts = evalscript.Merge(builtin, customScripts(a.settings))
}
