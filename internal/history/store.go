package history

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store keeps records on disk, one file per record
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes or overwrites a record
func (s *Store) Save(r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.SaveToFile(s.dir)
}

// List returns all records, newest first. Unreadable files are skipped with
// a log line rather than failing the whole listing.
func (s *Store) List() ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := filepath.Glob(filepath.Join(s.dir, "fetch_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list history directory: %w", err)
	}

	records := make([]*Record, 0, len(paths))
	for _, path := range paths {
		record, err := LoadFromFile(path)
		if err != nil {
			log.Printf("[History] Skipping unreadable record %s: %v", filepath.Base(path), err)
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt > records[j].CreatedAt
		}
		return records[i].ID > records[j].ID
	})

	return records, nil
}

// Load returns one record by ID
func (s *Store) Load(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LoadFromFile(filepath.Join(s.dir, id+".json"))
}

// Delete removes one record by ID
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Prune keeps the newest max records and deletes the rest
func (s *Store) Prune(max int) error {
	if max <= 0 {
		return nil
	}

	records, err := s.List()
	if err != nil {
		return err
	}
	if len(records) <= max {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records[max:] {
		if err := record.DeleteFile(s.dir); err != nil {
			log.Printf("[History] Failed to prune record %s: %v", record.ID, err)
		}
	}
	return nil
}

// Dir returns the directory records are stored in
func (s *Store) Dir() string {
	return s.dir
}
