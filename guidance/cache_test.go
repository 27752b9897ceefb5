package guidance

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*CacheManager, string) {
	t.Helper()
	dir := t.TempDir()
	cm, err := NewCacheManager(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	return cm, dir
}

func TestCacheManager_BasicOperations(t *testing.T) {
	cm, dir := newTestCache(t)
	file := writeFile(t, filepath.Join(dir, "a.md"), "content")

	g, found := cm.Get(file)
	assert.False(t, found)
	assert.Nil(t, g)

	want := &models.Guidance{File: file, RelativePath: "a.md", Text: "do it", Template: "%[1]s: %[2]s"}
	require.NoError(t, cm.Set(file, want))

	g, found = cm.Get(file)
	assert.True(t, found)
	assert.Equal(t, want, g)
}

func TestCacheManager_NegativeResult(t *testing.T) {
	cm, dir := newTestCache(t)
	file := writeFile(t, filepath.Join(dir, "a.md"), "content")

	require.NoError(t, cm.Set(file, nil))

	g, found := cm.Get(file)
	assert.True(t, found)
	assert.Nil(t, g)
}

func TestCacheManager_FileInvalidation(t *testing.T) {
	cm, dir := newTestCache(t)
	file := writeFile(t, filepath.Join(dir, "a.md"), "original")
	require.NoError(t, cm.Set(file, &models.Guidance{File: file, Text: "old"}))

	writeFile(t, file, "modified content")
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(file, later, later))

	_, found := cm.Get(file)
	assert.False(t, found)
}

func TestCacheManager_ClearAndStats(t *testing.T) {
	cm, dir := newTestCache(t)
	a := writeFile(t, filepath.Join(dir, "a.md"), "a")
	b := writeFile(t, filepath.Join(dir, "b.md"), "b")
	require.NoError(t, cm.Set(a, &models.Guidance{File: a, Text: "x"}))
	require.NoError(t, cm.Set(b, nil))

	stats, err := cm.GetCacheStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats["cache_files"])
	assert.Equal(t, 1, stats["guidance_entries"])
	assert.Equal(t, 1, stats["empty_entries"])

	deleted, err := cm.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, found := cm.Get(a)
	assert.False(t, found)
}

func TestCacheManager_CleanExpired(t *testing.T) {
	cm, dir := newTestCache(t)
	file := writeFile(t, filepath.Join(dir, "a.md"), "a")
	require.NoError(t, cm.Set(file, nil))

	removed, err := cm.CleanExpired(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = cm.CleanExpired(-time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCacheManager_ResetPerformanceStats(t *testing.T) {
	cm, dir := newTestCache(t)
	file := writeFile(t, filepath.Join(dir, "a.md"), "a")
	cm.Get(file)

	assert.Equal(t, int64(1), cm.GetPerformanceStats()["total_requests"])
	cm.ResetPerformanceStats()
	assert.Equal(t, int64(0), cm.GetPerformanceStats()["total_requests"])
}

func TestNewCacheManager_EmptyDir(t *testing.T) {
	_, err := NewCacheManager("")
	assert.Error(t, err)
}
