// Package history remembers past fetches as one JSON file per record, so
// the panel survives restarts without a database.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sentinel-desktop/internal/geometry"
)

// Status represents the outcome of a recorded fetch
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one fetch as shown in the history panel
type Record struct {
	ID          string     `json:"id"`
	Seq         uint64     `json:"seq"`
	Status      Status     `json:"status"`
	CreatedAt   string     `json:"createdAt"` // ISO 8601 format
	CompletedAt string     `json:"completedAt,omitempty"`

	// Fetch inputs
	Provider   string               `json:"provider"`
	ScriptID   string               `json:"scriptId"`
	ScriptName string               `json:"scriptName,omitempty"`
	From       string               `json:"from"`
	To         string               `json:"to"`
	Bounds     geometry.BoundingBox `json:"bounds"`

	// Where the raster ended up
	CacheKey    string `json:"cacheKey,omitempty"`
	ContentType string `json:"contentType,omitempty"`

	// Error message if failed
	Error string `json:"error,omitempty"`
}

// NewRecord creates a pending record for a dispatched fetch
func NewRecord(seq uint64, provider, scriptID, from, to string, bounds geometry.BoundingBox) *Record {
	return &Record{
		ID:        generateRecordID(),
		Seq:       seq,
		Status:    StatusPending,
		CreatedAt: time.Now().Format(time.RFC3339),
		Provider:  provider,
		ScriptID:  scriptID,
		From:      from,
		To:        to,
		Bounds:    bounds,
	}
}

// generateRecordID creates a unique record ID
func generateRecordID() string {
	return fmt.Sprintf("fetch_%d", time.Now().UnixNano())
}

// MarkSucceeded marks the record as resolved with a cached raster
func (r *Record) MarkSucceeded(cacheKey, contentType string) {
	r.CompletedAt = time.Now().Format(time.RFC3339)
	r.Status = StatusSucceeded
	r.CacheKey = cacheKey
	r.ContentType = contentType
}

// MarkFailed marks the record as failed with an error
func (r *Record) MarkFailed(err error) {
	r.CompletedAt = time.Now().Format(time.RFC3339)
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// SaveToFile persists the record to a JSON file
func (r *Record) SaveToFile(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	path := filepath.Join(dir, r.ID+".json")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

// LoadFromFile loads a record from a JSON file
func LoadFromFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return &record, nil
}

// DeleteFile removes the record file from disk
func (r *Record) DeleteFile(dir string) error {
	return os.Remove(filepath.Join(dir, r.ID+".json"))
}
