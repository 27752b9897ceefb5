package guidance

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/zeebo/xxh3"
)

// CacheEntry is one persisted extraction result. A nil Guidance records that
// the file carried no guidance.
type CacheEntry struct {
	Guidance  *models.Guidance
	Timestamp time.Time
	FileSize  int64
	ModTime   time.Time
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// CacheManager persists extraction results between runs, one gob file per
// source file, invalidated when the source size or modification time
// changes.
type CacheManager struct {
	cacheDir string
	mutex    sync.RWMutex
	stats    *CacheStats
}

// NewCacheManager creates the cache directory if needed.
func NewCacheManager(cacheDir string) (*CacheManager, error) {
	if cacheDir == "" {
		return nil, fmt.Errorf("cache directory must not be empty")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &CacheManager{
		cacheDir: cacheDir,
		stats:    &CacheStats{LastResetTime: time.Now()},
	}, nil
}

// Dir returns the cache directory.
func (cm *CacheManager) Dir() string { return cm.cacheDir }

// cacheKey names the cache file of a source file.
func cacheKey(file string) string {
	return fmt.Sprintf("%016x.cache", xxh3.HashString(filepath.Clean(file)))
}

func (cm *CacheManager) cachePath(file string) string {
	return filepath.Join(cm.cacheDir, cacheKey(file))
}

// Get returns the cached result for file. ok is false on a miss, including
// when the file changed since it was cached.
func (cm *CacheManager) Get(file string) (g *models.Guidance, ok bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	path := cm.cachePath(file)
	data, err := os.ReadFile(path)
	if err != nil {
		cm.recordMiss()
		return nil, false
	}

	var entry CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		cm.recordMiss()
		return nil, false
	}

	info, err := os.Stat(file)
	if err != nil || !info.ModTime().Equal(entry.ModTime) || info.Size() != entry.FileSize {
		_ = os.Remove(path)
		cm.recordMiss()
		return nil, false
	}

	cm.recordHit()
	return entry.Guidance, true
}

// Set stores the extraction result for file along with its current size and
// modification time.
func (cm *CacheManager) Set(file string, g *models.Guidance) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	entry := CacheEntry{
		Guidance:  g,
		Timestamp: time.Now(),
		FileSize:  info.Size(),
		ModTime:   info.ModTime(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := os.WriteFile(cm.cachePath(file), buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// Clear removes every cache entry and returns how many were deleted.
func (cm *CacheManager) Clear() (int, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	deleted := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(cm.cacheDir, e.Name())); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// CleanExpired removes entries written more than maxAge ago.
func (cm *CacheManager) CleanExpired(maxAge time.Duration) (int, error) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(cm.cacheDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry CacheEntry
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil || entry.Timestamp.Before(cutoff) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// GetCacheStats returns storage statistics of the cache directory.
func (cm *CacheManager) GetCacheStats() (map[string]interface{}, error) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	entries, err := os.ReadDir(cm.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	files := 0
	withGuidance := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files++
		totalSize += info.Size()

		data, err := os.ReadFile(filepath.Join(cm.cacheDir, e.Name()))
		if err != nil {
			continue
		}
		var entry CacheEntry
		if gob.NewDecoder(bytes.NewReader(data)).Decode(&entry) == nil && entry.Guidance != nil {
			withGuidance++
		}
	}

	return map[string]interface{}{
		"cache_dir":        cm.cacheDir,
		"cache_files":      files,
		"guidance_entries": withGuidance,
		"empty_entries":    files - withGuidance,
		"total_size":       totalSize,
		"total_size_mb":    float64(totalSize) / (1024 * 1024),
	}, nil
}

func (cm *CacheManager) recordHit() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheHits++
}

func (cm *CacheManager) recordMiss() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests++
	cm.stats.CacheMisses++
}

// GetPerformanceStats returns hit/miss counters since the last reset.
func (cm *CacheManager) GetPerformanceStats() map[string]interface{} {
	cm.stats.mutex.RLock()
	defer cm.stats.mutex.RUnlock()

	hitRate := 0.0
	if cm.stats.TotalRequests > 0 {
		hitRate = float64(cm.stats.CacheHits) / float64(cm.stats.TotalRequests) * 100
	}

	return map[string]interface{}{
		"total_requests":   cm.stats.TotalRequests,
		"cache_hits":       cm.stats.CacheHits,
		"cache_misses":     cm.stats.CacheMisses,
		"hit_rate_percent": hitRate,
		"uptime":           time.Since(cm.stats.LastResetTime).Round(time.Millisecond).String(),
	}
}

// ResetPerformanceStats zeroes the hit/miss counters.
func (cm *CacheManager) ResetPerformanceStats() {
	cm.stats.mutex.Lock()
	defer cm.stats.mutex.Unlock()
	cm.stats.TotalRequests = 0
	cm.stats.CacheHits = 0
	cm.stats.CacheMisses = 0
	cm.stats.LastResetTime = time.Now()
}
