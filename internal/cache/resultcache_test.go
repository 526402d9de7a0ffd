package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentinel-desktop/internal/process"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func testParams(from, to string) process.FetchParams {
	return process.FetchParams{
		Geometry: geojson.NewGeometry(orb.Polygon{
			{{20, 10}, {40, 10}, {40, 30}, {20, 30}, {20, 10}},
		}),
		From:       from,
		To:         to,
		Evalscript: "//VERSION=3",
	}
}

func TestKey(t *testing.T) {
	endpoint := "https://services.example.com/api/v1/process"

	first, err := Key(endpoint, testParams("2024-05-01T00:00:00Z", "2024-05-31T23:59:59Z"))
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	same, err := Key(endpoint, testParams("2024-05-01T00:00:00Z", "2024-05-31T23:59:59Z"))
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if first != same {
		t.Error("identical requests produced different keys")
	}

	otherDates, _ := Key(endpoint, testParams("2024-06-01T00:00:00Z", "2024-06-30T23:59:59Z"))
	if first == otherDates {
		t.Error("different time ranges produced the same key")
	}

	otherEndpoint, _ := Key("https://other.example.com/api/v1/process", testParams("2024-05-01T00:00:00Z", "2024-05-31T23:59:59Z"))
	if first == otherEndpoint {
		t.Error("different endpoints produced the same key")
	}
}

func newTestCache(t *testing.T, dir string) *ResultCache {
	t.Helper()

	c, err := NewResultCache(dir, &Config{MaxSizeMB: 10, TTLDays: 30})
	if err != nil {
		t.Fatalf("NewResultCache() error = %v", err)
	}
	return c
}

func TestSetGet(t *testing.T) {
	c := newTestCache(t, t.TempDir())

	data := []byte{0x89, 'P', 'N', 'G'}
	info := ResultMetadata{
		Provider:    "sentinel_hub",
		ScriptID:    "true-color",
		From:        "2024-05-01T00:00:00Z",
		To:          "2024-05-31T23:59:59Z",
		ContentType: "image/png",
	}
	if err := c.Set("abcdef0123", info, data); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, contentType, ok := c.Get("abcdef0123")
	if !ok {
		t.Fatal("Get() missed a just-written entry")
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q, want image/png", contentType)
	}
	if len(got) != len(data) {
		t.Errorf("data size = %d, want %d", len(got), len(data))
	}

	if _, _, ok := c.Get("missing-key"); ok {
		t.Error("Get() returned a hit for an unknown key")
	}
}

func TestHotLayer(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, dir)

	key := "feedbeef01"
	if err := c.Set(key, ResultMetadata{ContentType: "image/png"}, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Remove the backing file; the memory layer must still answer
	c.mu.RLock()
	path := c.buildFilePath(c.metadata[key])
	c.mu.RUnlock()
	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove backing file: %v", err)
	}

	if _, _, ok := c.Get(key); !ok {
		t.Error("Get() missed an entry held in the memory layer")
	}
}

func TestPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first := newTestCache(t, dir)
	if err := first.Set("0011223344", ResultMetadata{ContentType: "image/png"}, []byte{9, 9, 9}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	second := newTestCache(t, dir)
	data, contentType, ok := second.Get("0011223344")
	if !ok {
		t.Fatal("entry did not survive a restart")
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q, want image/png", contentType)
	}
	if len(data) != 3 {
		t.Errorf("data size = %d, want 3", len(data))
	}
}

func TestRebuildFromFiles(t *testing.T) {
	dir := t.TempDir()

	first := newTestCache(t, dir)
	if err := first.Set("cafe000001", ResultMetadata{ContentType: "image/png"}, []byte{4, 5, 6}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	// Force the index write so removing it below is meaningful
	if err := first.saveMetadata(); err != nil {
		t.Fatalf("saveMetadata() error = %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "results_index.json")); err != nil {
		t.Fatalf("failed to remove index: %v", err)
	}

	second := newTestCache(t, dir)
	data, contentType, ok := second.Get("cafe000001")
	if !ok {
		t.Fatal("rebuild did not recover the entry from disk")
	}
	if contentType != "image/png" {
		t.Errorf("content type = %q, want image/png", contentType)
	}
	if len(data) != 3 {
		t.Errorf("data size = %d, want 3", len(data))
	}
}

func TestExpiredEntry(t *testing.T) {
	c := newTestCache(t, t.TempDir())

	key := "dead000001"
	if err := c.Set(key, ResultMetadata{ContentType: "image/png"}, []byte{7}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	c.mu.Lock()
	c.metadata[key].CreateTime = time.Now().Add(-31 * 24 * time.Hour)
	c.mu.Unlock()
	c.hot.Purge()

	if _, _, ok := c.Get(key); ok {
		t.Error("Get() returned an entry past its TTL")
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t, t.TempDir())

	if err := c.Set("aa11223344", ResultMetadata{ContentType: "image/png"}, []byte{1}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, _, ok := c.Get("aa11223344"); ok {
		t.Error("Get() returned a hit after Clear()")
	}

	entries, size, _ := c.Stats()
	if entries != 0 || size != 0 {
		t.Errorf("Stats() = %d entries, %d bytes, want empty", entries, size)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.MaxSizeMB != 250 {
		t.Errorf("MaxSizeMB = %d, want 250", config.MaxSizeMB)
	}
	if config.TTLDays != 30 {
		t.Errorf("TTLDays = %d, want 30", config.TTLDays)
	}
}

func TestNewResultCacheNormalizesConfig(t *testing.T) {
	c, err := NewResultCache(t.TempDir(), &Config{MaxSizeMB: 0, TTLDays: -1})
	if err != nil {
		t.Fatalf("NewResultCache() error = %v", err)
	}

	defaults := DefaultConfig()
	if c.maxSize != int64(defaults.MaxSizeMB)*1024*1024 {
		t.Errorf("maxSize = %d, want default %d MB", c.maxSize, defaults.MaxSizeMB)
	}
	if c.ttl != time.Duration(defaults.TTLDays)*24*time.Hour {
		t.Errorf("ttl = %v, want default %d days", c.ttl, defaults.TTLDays)
	}

	c2, err := NewResultCache(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewResultCache(nil config) error = %v", err)
	}
	if c2.maxSize != int64(defaults.MaxSizeMB)*1024*1024 {
		t.Errorf("nil config maxSize = %d, want default", c2.maxSize)
	}
}
