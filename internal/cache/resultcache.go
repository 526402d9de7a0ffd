package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"sentinel-desktop/internal/process"
)

// Number of rasters kept in memory for instant re-display when the user
// flips between dates or scripts
const hotEntries = 32

// ResultCache provides disk-based caching of fetched rasters keyed by
// request hash, with a small in-memory layer in front.
// Cache persists across app restarts.
type ResultCache struct {
	baseDir   string
	maxSize   int64 // Maximum cache size in bytes
	currSize  int64 // Current cache size (atomic)
	ttl       time.Duration
	mu        sync.RWMutex
	metadata  map[string]*ResultMetadata // Persistent metadata index
	evictChan chan struct{}
	hot       *lru.Cache[string, []byte]
}

// ResultMetadata stores information about a cached raster
type ResultMetadata struct {
	Key         string    `json:"key"`
	Provider    string    `json:"provider"`
	ScriptID    string    `json:"scriptId,omitempty"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to,omitempty"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	AccessTime  time.Time `json:"accessTime"`
	CreateTime  time.Time `json:"createTime"`
}

// Key derives the cache key for one fetch against one deployment. The
// payload marshals with a fixed field order, so identical inputs always
// produce the same key.
func Key(endpoint string, params process.FetchParams) (string, error) {
	payload, err := json.Marshal(process.BuildRequest(params))
	if err != nil {
		return "", fmt.Errorf("failed to encode request for hashing: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{'\n'})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// NewResultCache creates a new persistent result cache. Non-positive
// config fields fall back to the defaults.
// Cache structure: baseDir/{key[:2]}/{key}.png
// Metadata index: baseDir/results_index.json
func NewResultCache(baseDir string, cfg *Config) (*ResultCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	hot, err := lru.New[string, []byte](hotEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	cfg = cfg.normalized()
	cache := &ResultCache{
		baseDir:   baseDir,
		maxSize:   int64(cfg.MaxSizeMB) * 1024 * 1024,
		ttl:       time.Duration(cfg.TTLDays) * 24 * time.Hour,
		metadata:  make(map[string]*ResultMetadata),
		evictChan: make(chan struct{}, 1),
		hot:       hot,
	}

	// Load metadata index from disk
	if err := cache.loadMetadata(); err != nil {
		// If metadata can't be loaded, rebuild it from disk
		if err := cache.rebuildMetadata(); err != nil {
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
	}

	// Start background maintenance
	go cache.maintenanceWorker()

	return cache, nil
}

// Get retrieves a raster from cache
func (c *ResultCache) Get(key string) ([]byte, string, bool) {
	c.mu.RLock()
	meta, exists := c.metadata[key]
	c.mu.RUnlock()

	if !exists {
		return nil, "", false
	}

	// Check if the entry has expired
	if c.ttl > 0 && time.Since(meta.CreateTime) > c.ttl {
		c.evictEntry(key, meta)
		return nil, "", false
	}

	if data, ok := c.hot.Get(key); ok {
		c.touch(meta)
		return data, meta.ContentType, true
	}

	data, err := os.ReadFile(c.buildFilePath(meta))
	if err != nil {
		// File missing - remove from metadata
		c.evictEntry(key, meta)
		return nil, "", false
	}

	c.hot.Add(key, data)
	c.touch(meta)

	return data, meta.ContentType, true
}

func (c *ResultCache) touch(meta *ResultMetadata) {
	c.mu.Lock()
	meta.AccessTime = time.Now()
	c.mu.Unlock()

	// Persist metadata update (async)
	go c.saveMetadata()
}

// Set stores a raster in cache. Info supplies the descriptive fields; key,
// size and timestamps are filled in here.
func (c *ResultCache) Set(key string, info ResultMetadata, data []byte) error {
	now := time.Now()
	meta := &ResultMetadata{
		Key:         key,
		Provider:    info.Provider,
		ScriptID:    info.ScriptID,
		From:        info.From,
		To:          info.To,
		ContentType: info.ContentType,
		Size:        int64(len(data)),
		AccessTime:  now,
		CreateTime:  now,
	}

	filePath := c.buildFilePath(meta)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.mu.Lock()
	oldMeta, exists := c.metadata[key]
	if exists {
		atomic.AddInt64(&c.currSize, -oldMeta.Size)
		// Remove old file if the content type and with it the path changed
		oldPath := c.buildFilePath(oldMeta)
		if oldPath != filePath {
			os.Remove(oldPath)
		}
	}
	c.metadata[key] = meta
	c.mu.Unlock()

	atomic.AddInt64(&c.currSize, meta.Size)
	c.hot.Add(key, data)

	// Trigger eviction if needed
	if atomic.LoadInt64(&c.currSize) > c.maxSize {
		select {
		case c.evictChan <- struct{}{}:
		default:
		}
	}

	// Save metadata (async)
	go c.saveMetadata()

	return nil
}

// buildFilePath places a raster under a two character shard of its key
func (c *ResultCache) buildFilePath(meta *ResultMetadata) string {
	ext := extensionFor(meta.ContentType)
	shard := meta.Key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(c.baseDir, shard, meta.Key+ext)
}

func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/tiff"):
		return ".tiff"
	default:
		return ".bin"
	}
}

// evictEntry removes a raster from cache
func (c *ResultCache) evictEntry(key string, meta *ResultMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()

	os.Remove(c.buildFilePath(meta))
	delete(c.metadata, key)
	c.hot.Remove(key)
	atomic.AddInt64(&c.currSize, -meta.Size)
}

// maintenanceWorker runs periodic cache maintenance
func (c *ResultCache) maintenanceWorker() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.evictChan:
			c.evictOldEntries()
		case <-ticker.C:
			c.evictExpiredEntries()
		}
	}
}

// evictOldEntries removes least recently used rasters when cache is full
func (c *ResultCache) evictOldEntries() {
	c.mu.Lock()
	defer c.mu.Unlock()

	currSize := atomic.LoadInt64(&c.currSize)
	if currSize <= c.maxSize {
		return
	}

	// Target size: 80% of max to avoid thrashing
	targetSize := c.maxSize * 8 / 10

	entries := make([]*ResultMetadata, 0, len(c.metadata))
	for _, meta := range c.metadata {
		entries = append(entries, meta)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AccessTime.Before(entries[j].AccessTime)
	})

	// Evict oldest until under target size
	for _, meta := range entries {
		if currSize <= targetSize {
			break
		}

		os.Remove(c.buildFilePath(meta))
		delete(c.metadata, meta.Key)
		c.hot.Remove(meta.Key)
		atomic.AddInt64(&c.currSize, -meta.Size)
		currSize -= meta.Size
	}

	c.saveMetadataLocked()
}

// evictExpiredEntries removes rasters that exceed TTL
func (c *ResultCache) evictExpiredEntries() {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	toEvict := []string{}

	for key, meta := range c.metadata {
		if now.Sub(meta.CreateTime) > c.ttl {
			toEvict = append(toEvict, key)
		}
	}

	for _, key := range toEvict {
		meta := c.metadata[key]
		os.Remove(c.buildFilePath(meta))
		delete(c.metadata, key)
		c.hot.Remove(key)
		atomic.AddInt64(&c.currSize, -meta.Size)
	}

	if len(toEvict) > 0 {
		c.saveMetadataLocked()
	}
}

// loadMetadata loads the metadata index from disk
func (c *ResultCache) loadMetadata() error {
	data, err := os.ReadFile(filepath.Join(c.baseDir, "results_index.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("metadata file not found")
		}
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata map[string]*ResultMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return fmt.Errorf("failed to parse metadata: %w", err)
	}

	c.metadata = metadata

	var totalSize int64
	for _, meta := range metadata {
		totalSize += meta.Size
	}
	atomic.StoreInt64(&c.currSize, totalSize)

	return nil
}

// saveMetadata saves the metadata index to disk
func (c *ResultCache) saveMetadata() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveMetadataLocked()
}

// saveMetadataLocked writes the index; callers hold at least a read lock
func (c *ResultCache) saveMetadataLocked() error {
	metaPath := filepath.Join(c.baseDir, "results_index.json")

	data, err := json.MarshalIndent(c.metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Write to temp file first, then rename (atomic operation)
	tempPath := metaPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.Rename(tempPath, metaPath); err != nil {
		return fmt.Errorf("failed to rename metadata file: %w", err)
	}

	return nil
}

// rebuildMetadata rebuilds the metadata index by scanning the cache
// directory. Descriptive fields are lost; sizes and times come from the
// files themselves.
func (c *ResultCache) rebuildMetadata() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metadata = make(map[string]*ResultMetadata)
	var totalSize int64

	err := filepath.Walk(c.baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		var contentType string
		switch ext {
		case ".png":
			contentType = "image/png"
		case ".jpg":
			contentType = "image/jpeg"
		case ".tiff":
			contentType = "image/tiff"
		case ".bin":
			contentType = "application/octet-stream"
		default:
			return nil
		}

		key := strings.TrimSuffix(filepath.Base(path), ext)
		c.metadata[key] = &ResultMetadata{
			Key:         key,
			ContentType: contentType,
			Size:        info.Size(),
			AccessTime:  info.ModTime(),
			CreateTime:  info.ModTime(),
		}
		totalSize += info.Size()

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan cache directory: %w", err)
	}

	atomic.StoreInt64(&c.currSize, totalSize)

	return c.saveMetadataLocked()
}

// Stats returns cache statistics
func (c *ResultCache) Stats() (entries int, sizeBytes int64, maxBytes int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.metadata), atomic.LoadInt64(&c.currSize), c.maxSize
}

// Clear removes all cached rasters
func (c *ResultCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, meta := range c.metadata {
		os.Remove(c.buildFilePath(meta))
	}

	c.metadata = make(map[string]*ResultMetadata)
	c.hot.Purge()
	atomic.StoreInt64(&c.currSize, 0)

	return c.saveMetadataLocked()
}

// Path returns the base directory of the cache
func (c *ResultCache) Path() string {
	return c.baseDir
}
