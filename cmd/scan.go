package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"github.com/meysamhadeli/guidescan/composer"
	"github.com/meysamhadeli/guidescan/constants/lipgloss"
	"github.com/meysamhadeli/guidescan/guidance"
	"github.com/meysamhadeli/guidescan/providers"
	"github.com/meysamhadeli/guidescan/providers/models"
	"github.com/meysamhadeli/guidescan/scanner"
	"github.com/meysamhadeli/guidescan/tools"
	"github.com/meysamhadeli/guidescan/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [scan-root | glob:<pattern> | regex:<pattern>]",
	Short: "Scan the project and act on every piece of guidance found",
	Long: `The 'scan' command walks the project from root_dir, module by module, and
runs one AI conversation for each file or directory carrying guidance.

A plain path argument limits the scan to that directory. A 'glob:' or 'regex:'
argument only visits paths matching the pattern, relative to their project.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return handleScanCommand(ctx, deps, args, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func handleScanCommand(ctx context.Context, deps *RootDependencies, args []string, out io.Writer) error {
	cfg := deps.Config
	logger := deps.Logger

	if err := cfg.ResolveTexts(ctx, deps.Cwd, nil); err != nil {
		return err
	}

	filterConfig, err := filterConfigFor(deps, args)
	if err != nil {
		return err
	}

	registry, err := guidance.NewDefaultRegistry()
	if err != nil {
		return fmt.Errorf("failed to build extractor registry: %w", err)
	}
	if deps.Cache != nil {
		registry.SetCache(deps.Cache)
	}

	toolRegistry, err := tools.NewDefaultRegistry(tools.Options{ReadOnly: cfg.ReadOnlyTools})
	if err != nil {
		return err
	}

	factory, err := providers.NewProviderFactory(ctx, cfg.AIProviderConfig, func(u models.Usage) {
		deps.TokenManagement.UsedTokens(u.InputTokens, u.CachedInputTokens, u.OutputTokens)
	}, logger)
	if err != nil {
		return err
	}

	scanRoot := filterConfig.ScanRoot
	if scanRoot == "" {
		scanRoot = cfg.RootDir
	}
	processor, err := composer.NewComposer(composer.Options{
		Factory:      factory,
		Tools:        toolRegistry,
		Instructions: cfg.Instructions,
		ScanRoot:     scanRoot,
		LogInputs:    cfg.LogInputs,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		results []scanner.Result
	)
	walker, err := scanner.NewWalker(scanner.Options{
		Source:          registry,
		Processor:       processor,
		Filter:          filterConfig,
		DefaultGuidance: cfg.Guidance,
		NonRecursive:    cfg.NonRecursive,
		Parallel:        cfg.MultiThreaded,
		MaxThreads:      cfg.MaxThreads,
		ModuleTimeout:   cfg.ModuleTimeout,
		OnResult: func(r scanner.Result) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	logger.Info("scan started", logger.Args(
		"dir", cfg.RootDir,
		"provider", factory.Backend().Name(),
		"extractors", len(registry.Extractors()),
		"extensions", len(registry.Extensions()),
		"tools", len(toolRegistry.Names()),
	))

	// The none backend prints requests itself; a spinner would overwrite them.
	var spinnerInstance *pterm.SpinnerPrinter
	if factory.Backend().Name() != providers.ProviderNone {
		spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
			WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
			WithDelay(100).WithRemoveWhenDone(true)
		spinnerInstance, _ = spinner.Start(fmt.Sprintf("Scanning %s...", cfg.RootDir))
	}

	walkErr := walker.Walk(ctx, cfg.RootDir)

	if spinnerInstance != nil {
		_ = spinnerInstance.Stop()
	}

	if cfg.PrintResults {
		printResults(ctx, out, results, cfg.Theme)
	}
	fmt.Fprintln(out, lipgloss.BoxStyle.Render(fmt.Sprintf("Processed %d location(s) in %s", walker.Processed(), cfg.RootDir)))
	deps.TokenManagement.DisplayTokens(cfg.AIProviderConfig.Provider, factory.Backend().Model())

	if deps.Cache != nil {
		stats := deps.Cache.GetPerformanceStats()
		logger.Debug("extraction cache", logger.Args("hits", stats["cache_hits"], "misses", stats["cache_misses"]))
	}

	if walkErr != nil {
		return fmt.Errorf("scan failed: %w", walkErr)
	}
	return nil
}

// filterConfigFor turns the optional argument into a scan root or an
// include pattern.
func filterConfigFor(deps *RootDependencies, args []string) (scanner.FilterConfig, error) {
	cfg := deps.Config
	fc := scanner.FilterConfig{
		Root:     cfg.RootDir,
		Excludes: cfg.Excludes,
	}
	if cfg.IgnoreFile != "" {
		fc.IgnoreFile = cfg.IgnoreFile
		if !filepath.IsAbs(fc.IgnoreFile) {
			fc.IgnoreFile = filepath.Join(cfg.RootDir, fc.IgnoreFile)
		}
	}
	if len(args) == 0 {
		return fc, nil
	}

	arg := args[0]
	if scanner.IsPattern(arg) {
		fc.Pattern = arg
		return fc, nil
	}

	scanRoot := arg
	if !filepath.IsAbs(scanRoot) {
		scanRoot = filepath.Join(deps.Cwd, scanRoot)
	}
	info, err := os.Stat(scanRoot)
	if err != nil {
		return fc, fmt.Errorf("invalid scan root: %w", err)
	}
	if !info.IsDir() {
		return fc, fmt.Errorf("scan root %s is not a directory", scanRoot)
	}
	if !scanner.Within(scanRoot, cfg.RootDir) {
		return fc, fmt.Errorf("scan root %s is outside %s", scanRoot, cfg.RootDir)
	}
	fc.ScanRoot = scanRoot
	return fc, nil
}

func printResults(ctx context.Context, out io.Writer, results []scanner.Result, theme string) {
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	for _, r := range results {
		if r.Text == "" {
			continue
		}
		fmt.Fprintln(out, lipgloss.Info.Render(fmt.Sprintf("%s (%s)", r.RelativePath, r.Project)))
		if err := utils.RenderMarkdown(ctx, out, r.Text, theme); err != nil {
			fmt.Fprintln(out, r.Text)
		}
		fmt.Fprintln(out)
	}
}
