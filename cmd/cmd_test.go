package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/meysamhadeli/guidescan/config"
	"github.com/meysamhadeli/guidescan/guidance"
	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/meysamhadeli/guidescan/scanner"
	"github.com/meysamhadeli/guidescan/token_management"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps(t *testing.T, root string) *RootDependencies {
	t.Helper()
	cfg := config.DefaultConfig
	cfg.RootDir = root
	return &RootDependencies{
		Cwd:             root,
		Config:          &cfg,
		Logger:          pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
		TokenManagement: token_management.NewTokenManagerWithWriter(io.Discard),
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := newLogger(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, pterm.LogLevelDebug, logger.Level)

	_, err = newLogger("verbose")
	assert.Error(t, err)
}

func TestFilterConfigFor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "svc", "api"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "svc", "main.go"), []byte("package main\n"), 0644))
	deps := testDeps(t, root)

	t.Run("no argument", func(t *testing.T) {
		fc, err := filterConfigFor(deps, nil)
		require.NoError(t, err)
		assert.Equal(t, root, fc.Root)
		assert.Empty(t, fc.ScanRoot)
		assert.Empty(t, fc.Pattern)
		assert.Equal(t, filepath.Join(root, ".guidescanignore"), fc.IgnoreFile)
	})

	t.Run("pattern", func(t *testing.T) {
		fc, err := filterConfigFor(deps, []string{"glob:**/*.go"})
		require.NoError(t, err)
		assert.Equal(t, "glob:**/*.go", fc.Pattern)
		assert.Empty(t, fc.ScanRoot)
	})

	t.Run("relative scan root", func(t *testing.T) {
		fc, err := filterConfigFor(deps, []string{filepath.Join("svc", "api")})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "svc", "api"), fc.ScanRoot)
	})

	t.Run("scan root is a file", func(t *testing.T) {
		_, err := filterConfigFor(deps, []string{filepath.Join("svc", "main.go")})
		assert.ErrorContains(t, err, "not a directory")
	})

	t.Run("scan root missing", func(t *testing.T) {
		_, err := filterConfigFor(deps, []string{"nope"})
		assert.ErrorContains(t, err, "invalid scan root")
	})

	t.Run("scan root outside", func(t *testing.T) {
		_, err := filterConfigFor(deps, []string{t.TempDir()})
		assert.ErrorContains(t, err, "outside")
	})
}

func TestFilterConfigFor_AbsoluteIgnoreFile(t *testing.T) {
	root := t.TempDir()
	deps := testDeps(t, root)
	deps.Config.IgnoreFile = filepath.Join(t.TempDir(), "shared.ignore")

	fc, err := filterConfigFor(deps, nil)
	require.NoError(t, err)
	assert.Equal(t, deps.Config.IgnoreFile, fc.IgnoreFile)
}

func seedCache(t *testing.T, root string) *guidance.CacheManager {
	t.Helper()
	cache, err := guidance.NewCacheManager(cacheDir(root))
	require.NoError(t, err)
	file := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("// @guidance: add tests\n"), 0644))
	require.NoError(t, cache.Set(file, &models.Guidance{File: file, Text: "add tests"}))
	return cache
}

func TestHandleCleanCommand_Force(t *testing.T) {
	root := t.TempDir()
	deps := testDeps(t, root)
	deps.Cache = seedCache(t, root)
	deps.Cache.Get(filepath.Join(root, "main.go"))
	require.Equal(t, int64(1), deps.Cache.GetPerformanceStats()["total_requests"])
	inputs := filepath.Join(root, ".guidescan", "inputs")
	require.NoError(t, os.MkdirAll(inputs, 0755))

	var out bytes.Buffer
	err := handleCleanCommand(deps, cleanOptions{Force: true, Cache: true, Logs: true}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Removed 1 cache entries")
	assert.Contains(t, out.String(), "Removed 1 input log directories")
	assert.NoDirExists(t, inputs)

	assert.Equal(t, int64(0), deps.Cache.GetPerformanceStats()["total_requests"])

	_, ok := deps.Cache.Get(filepath.Join(root, "main.go"))
	assert.False(t, ok)
}

func TestHandleCleanCommand_Cancelled(t *testing.T) {
	root := t.TempDir()
	deps := testDeps(t, root)
	deps.Cache = seedCache(t, root)

	var out bytes.Buffer
	err := handleCleanCommand(deps, cleanOptions{Cache: true}, strings.NewReader("n\n"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Clean cancelled")

	_, ok := deps.Cache.Get(filepath.Join(root, "main.go"))
	assert.True(t, ok)
}

func TestHandleCleanCommand_Stats(t *testing.T) {
	root := t.TempDir()
	seedCache(t, root)
	deps := testDeps(t, root)

	var out bytes.Buffer
	err := handleCleanCommand(deps, cleanOptions{Stats: true}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Cached Files: 1")
	assert.Contains(t, out.String(), "With Guidance: 1")
}

func TestHandleCleanCommand_StatsWithoutCache(t *testing.T) {
	deps := testDeps(t, t.TempDir())

	var out bytes.Buffer
	require.NoError(t, handleCleanCommand(deps, cleanOptions{Stats: true}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "Cache is disabled or empty")
}

func TestHandleCleanCommand_Expired(t *testing.T) {
	root := t.TempDir()
	deps := testDeps(t, root)
	deps.Cache = seedCache(t, root)

	var out bytes.Buffer
	err := handleCleanCommand(deps, cleanOptions{Force: true, Expired: 24 * time.Hour}, strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Removed 0 expired cache entries")

	_, ok := deps.Cache.Get(filepath.Join(root, "main.go"))
	assert.True(t, ok)
}

func TestPrintResults(t *testing.T) {
	results := []scanner.Result{
		{Path: "/p/b.go", RelativePath: "b.go", Project: "demo", Text: "second"},
		{Path: "/p/a.go", RelativePath: "a.go", Project: "demo", Text: "first"},
		{Path: "/p/c.go", RelativePath: "c.go", Project: "demo"},
	}

	var out bytes.Buffer
	printResults(context.Background(), &out, results, "dracula")

	text := out.String()
	assert.Less(t, strings.Index(text, "a.go (demo)"), strings.Index(text, "b.go (demo)"))
	assert.NotContains(t, text, "c.go")
}
