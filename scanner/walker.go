package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meysamhadeli/guidescan/guidance"
	"github.com/meysamhadeli/guidescan/guidance/models"
	"github.com/meysamhadeli/guidescan/project"
	"github.com/meysamhadeli/guidescan/project/contracts"
	"github.com/meysamhadeli/guidescan/tools"
	"github.com/meysamhadeli/guidescan/utils"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

// DefaultModuleTimeout bounds a parallel module batch when no timeout is
// configured.
const DefaultModuleTimeout = 30 * time.Minute

// GuidanceSource extracts guidance from one file. *guidance.Registry
// implements it.
type GuidanceSource interface {
	Extract(projectRoot string, file string) (*models.Guidance, error)
}

// Processor acts on one piece of guidance, usually by running an AI
// conversation for it.
type Processor interface {
	Process(ctx context.Context, layout contracts.IProjectLayout, g *models.Guidance) (string, error)
	// IsThreadSafe reports whether Process may be called concurrently.
	IsThreadSafe() bool
}

// LayoutResolver returns the layout of a project directory.
type LayoutResolver func(dir string) (contracts.IProjectLayout, error)

// Result is the outcome of one processed file or directory.
type Result struct {
	Path         string
	RelativePath string
	Project      string
	Text         string
	Default      bool
}

// Options configures a Walker.
type Options struct {
	Source    GuidanceSource
	Processor Processor
	// Resolve defaults to project.Detect.
	Resolve LayoutResolver
	Filter  FilterConfig
	// DefaultGuidance is used for accepted locations without guidance.
	DefaultGuidance string
	// NonRecursive skips modules and only visits direct children.
	NonRecursive bool
	// Parallel processes sibling modules on a bounded worker pool.
	Parallel bool
	// MaxThreads caps the pool size; zero means the number of CPUs.
	MaxThreads int
	// ModuleTimeout bounds one parallel batch; zero means DefaultModuleTimeout.
	ModuleTimeout time.Duration
	// OnResult is called after each processed item. It may be called from
	// several goroutines when Parallel is set.
	OnResult func(Result)
	Logger   *pterm.Logger
}

// Walker visits a project tree child-first: every module of a directory is
// completely processed before the directory's own files.
type Walker struct {
	opts      Options
	filter    *PathFilter
	logger    *pterm.Logger
	processed atomic.Int64
}

// NewWalker validates opts. Configuration problems, including parallel
// processing with a provider that is not thread-safe, are reported here as
// a *ConfigError before anything is visited.
func NewWalker(opts Options) (*Walker, error) {
	if opts.Source == nil {
		return nil, &ConfigError{Reason: "no guidance source"}
	}
	if opts.Processor == nil {
		return nil, &ConfigError{Reason: "no processor"}
	}
	if opts.Parallel && !opts.Processor.IsThreadSafe() {
		return nil, &ConfigError{Reason: "parallel module processing requested", Err: ErrProviderNotThreadSafe}
	}
	if opts.MaxThreads < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("max threads must not be negative, got %d", opts.MaxThreads)}
	}
	if opts.MaxThreads == 0 {
		opts.MaxThreads = runtime.NumCPU()
	}
	if opts.ModuleTimeout <= 0 {
		opts.ModuleTimeout = DefaultModuleTimeout
	}
	if opts.Resolve == nil {
		opts.Resolve = project.Detect
	}

	opts.Filter.DefaultGuidance = opts.DefaultGuidance != ""
	filter, err := NewPathFilter(opts.Filter)
	if err != nil {
		return nil, &ConfigError{Reason: "path filter", Err: err}
	}

	logger := opts.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}

	return &Walker{opts: opts, filter: filter, logger: logger}, nil
}

// Filter returns the walker's path filter.
func (w *Walker) Filter() *PathFilter { return w.filter }

// Processed returns the number of items handed to the processor so far.
func (w *Walker) Processed() int64 { return w.processed.Load() }

// Walk processes the project rooted at dir.
func (w *Walker) Walk(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}
	return w.walk(ctx, abs)
}

func (w *Walker) walk(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	layout, err := w.opts.Resolve(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve layout of %s: %w", dir, err)
	}

	moduleDirs := make(map[string]struct{})
	var modules []string
	for _, m := range layout.Modules() {
		moduleDir := filepath.Join(dir, filepath.FromSlash(m))
		moduleDirs[moduleDir] = struct{}{}
		if utils.IsDefaultIgnored(m) || !w.filter.InBoundary(moduleDir) {
			w.logger.Debug("skipping module outside scan boundary", w.logger.Args("module", moduleDir))
			continue
		}
		modules = append(modules, moduleDir)
	}

	if !w.opts.NonRecursive {
		if err := w.processModules(ctx, modules); err != nil {
			return err
		}
	}

	if err := w.processOwnFiles(ctx, dir, layout, moduleDirs); err != nil {
		return err
	}

	if w.opts.DefaultGuidance != "" && w.filter.Accept(dir, dir) {
		g := guidance.DefaultGuidance(dir, dir, w.opts.DefaultGuidance)
		if err := w.process(ctx, layout, g, true); err != nil {
			return err
		}
	}
	return nil
}

// processModules walks modules sequentially, or as one parallel batch.
func (w *Walker) processModules(ctx context.Context, modules []string) error {
	if len(modules) == 0 {
		return nil
	}
	if !w.opts.Parallel || len(modules) == 1 {
		for _, m := range modules {
			w.logger.Debug("processing module", w.logger.Args("module", m))
			if err := w.walk(ctx, m); err != nil {
				return err
			}
		}
		return nil
	}
	return w.processModulesParallel(ctx, modules)
}

// processModulesParallel runs every module on a bounded pool and waits for
// all of them, whatever their outcome. The first failure observed is
// returned once the whole batch is done. A TerminateError instead cancels
// the rest of the batch at once and is returned in preference to any other
// failure. When the batch exceeds the module timeout, outstanding work is
// cancelled and ErrModuleTimeout is returned.
func (w *Walker) processModulesParallel(ctx context.Context, modules []string) error {
	workers := min(len(modules), w.opts.MaxThreads, runtime.NumCPU())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		firstErr  *ModuleError
		terminate *ModuleError
		failed    int
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(workers)
		for _, m := range modules {
			g.Go(func() error {
				if runCtx.Err() != nil {
					return nil
				}
				w.logger.Debug("processing module", w.logger.Args("module", m, "workers", workers))
				if err := w.walk(runCtx, m); err != nil {
					if tools.IsTerminate(err) {
						w.logger.Warn("module requested termination", w.logger.Args("module", m, "error", err))
						mu.Lock()
						if terminate == nil {
							terminate = &ModuleError{Module: m, Err: err}
						}
						mu.Unlock()
						cancel()
						return nil
					}
					w.logger.Error("module failed", w.logger.Args("module", m, "error", err))
					mu.Lock()
					failed++
					if firstErr == nil {
						firstErr = &ModuleError{Module: m, Err: err}
					}
					mu.Unlock()
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	timer := time.NewTimer(w.opts.ModuleTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		cancel()
		<-done
		if terminate != nil {
			return terminate
		}
		return fmt.Errorf("%w after %s (%d modules)", ErrModuleTimeout, w.opts.ModuleTimeout, len(modules))
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}

	if terminate != nil {
		return terminate
	}
	if firstErr != nil {
		firstErr.Failed = failed
		return firstErr
	}
	return nil
}

// processOwnFiles handles the files of dir that belong to no module,
// deepest first so that nested guidance is applied before its ancestors'.
func (w *Walker) processOwnFiles(ctx context.Context, dir string, layout contracts.IProjectLayout, moduleDirs map[string]struct{}) error {
	files, err := w.collectFiles(dir, moduleDirs)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.filter.Accept(file, dir) {
			continue
		}

		g, err := w.opts.Source.Extract(dir, file)
		if err != nil {
			return fmt.Errorf("failed to extract guidance: %w", err)
		}
		isDefault := false
		if g == nil {
			if w.opts.DefaultGuidance == "" {
				continue
			}
			g = guidance.DefaultGuidance(dir, file, w.opts.DefaultGuidance)
			isDefault = true
		}

		if err := w.process(ctx, layout, g, isDefault); err != nil {
			return err
		}
	}
	return nil
}

// collectFiles lists the files of dir, skipping module directories and
// excluded directories. Without NonRecursive, subdirectories are included
// and the result is ordered deepest path first.
func (w *Walker) collectFiles(dir string, moduleDirs map[string]struct{}) ([]string, error) {
	if w.opts.NonRecursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", dir, err)
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		return files, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == dir {
				return nil
			}
			if _, isModule := moduleDirs[path]; isModule || utils.IsExcludedName(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		di, dj := depth(files[i]), depth(files[j])
		if di != dj {
			return di > dj
		}
		return files[i] < files[j]
	})
	return files, nil
}

func depth(path string) int {
	return strings.Count(path, string(filepath.Separator))
}

func (w *Walker) process(ctx context.Context, layout contracts.IProjectLayout, g *models.Guidance, isDefault bool) error {
	w.logger.Info("processing guidance", w.logger.Args("file", g.RelativePath, "dir", layout.ProjectDir(), "default", isDefault))

	text, err := w.opts.Processor.Process(ctx, layout, g)
	if err != nil {
		return fmt.Errorf("failed to process %s: %w", g.File, err)
	}
	w.processed.Add(1)

	if w.opts.OnResult != nil {
		w.opts.OnResult(Result{
			Path:         g.File,
			RelativePath: g.RelativePath,
			Project:      layout.ProjectDir(),
			Text:         text,
			Default:      isDefault,
		})
	}
	return nil
}

// IsTimeout reports whether err comes from a module batch timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrModuleTimeout)
}
