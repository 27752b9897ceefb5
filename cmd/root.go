package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/guidescan/config"
	"github.com/meysamhadeli/guidescan/constants/lipgloss"
	"github.com/meysamhadeli/guidescan/guidance"
	"github.com/meysamhadeli/guidescan/token_management"
	"github.com/meysamhadeli/guidescan/token_management/contracts"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RootDependencies is shared by every subcommand.
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          *pterm.Logger
	TokenManagement contracts.ITokenManagement

	// Cache is nil when the extraction cache is disabled.
	Cache *guidance.CacheManager
}

var rootCmd = &cobra.Command{
	Use:   "guidescan",
	Short: "Apply guidance left in source files with an AI model",
	Long: `guidescan walks a project tree, collects the guidance developers left in
comments, markdown and '@guidance.txt' files, and runs an AI conversation for
each location so the model can act on it with file, command and web tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

// handleRootCommand loads the configuration and builds the shared
// dependencies.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.ConfigFile != "" {
		logger.Debug("configuration loaded", logger.Args("file", cfg.ConfigFile))
	}

	deps := &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          logger,
		TokenManagement: token_management.NewTokenManager(),
	}

	if cfg.EnableCache {
		cache, err := guidance.NewCacheManager(cacheDir(cfg.RootDir))
		if err != nil {
			logger.Warn("extraction cache disabled", logger.Args("error", err))
		} else {
			deps.Cache = cache
		}
	}
	return deps, nil
}

func cacheDir(root string) string {
	return filepath.Join(config.WorkDir(root), "cache")
}

var logLevels = map[string]pterm.LogLevel{
	"disabled": pterm.LogLevelDisabled,
	"trace":    pterm.LogLevelTrace,
	"debug":    pterm.LogLevelDebug,
	"info":     pterm.LogLevelInfo,
	"warn":     pterm.LogLevelWarn,
	"error":    pterm.LogLevelError,
}

// newLogger returns the default pterm logger at the named level.
func newLogger(level string) (*pterm.Logger, error) {
	l, ok := logLevels[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return pterm.DefaultLogger.WithLevel(l), nil
}
