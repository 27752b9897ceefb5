package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/meysamhadeli/guidescan/composer"
	"github.com/meysamhadeli/guidescan/constants/lipgloss"
	"github.com/meysamhadeli/guidescan/guidance"
	"github.com/meysamhadeli/guidescan/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove guidescan working data",
	Long: `The 'clean' command removes the data guidescan keeps below '.guidescan':
the extraction cache of the root directory and the input logs of every project.
Without --cache, --logs or --expired both are removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		cache, _ := cmd.Flags().GetBool("cache")
		logs, _ := cmd.Flags().GetBool("logs")
		expired, _ := cmd.Flags().GetDuration("expired")
		if !cache && !logs && expired == 0 {
			cache, logs = true, true
		}

		deps, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleCleanCommand(deps, cleanOptions{
			Force:   force,
			Stats:   stats,
			Cache:   cache,
			Logs:    logs,
			Expired: expired,
		}, os.Stdin, cmd.OutOrStdout())
	},
}

type cleanOptions struct {
	Force bool
	Stats bool
	Cache bool
	Logs  bool

	// Expired removes only cache entries older than this age.
	Expired time.Duration
}

func init() {
	cleanCmd.Flags().BoolP("force", "f", false, "Remove without confirmation")
	cleanCmd.Flags().BoolP("stats", "s", false, "Only show cache statistics")
	cleanCmd.Flags().Bool("cache", false, "Remove the extraction cache")
	cleanCmd.Flags().Bool("logs", false, "Remove the input logs")
	cleanCmd.Flags().Duration("expired", 0, "Remove only cache entries older than this age (e.g. 168h)")

	rootCmd.AddCommand(cleanCmd)
}

func handleCleanCommand(deps *RootDependencies, opts cleanOptions, in io.Reader, out io.Writer) error {
	root := deps.Config.RootDir

	cache := deps.Cache
	if cache == nil && (opts.Stats || opts.Cache || opts.Expired > 0) {
		if _, err := os.Stat(cacheDir(root)); err == nil {
			cache, err = guidance.NewCacheManager(cacheDir(root))
			if err != nil {
				return err
			}
		}
	}

	if opts.Stats {
		return printCacheStats(cache, out)
	}

	if !opts.Force {
		ok, err := utils.ConfirmPrompt(fmt.Sprintf("Remove guidescan data below %s?", root), bufio.NewReader(in))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, lipgloss.Yellow.Render("Clean cancelled."))
			return nil
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)
	spinnerInstance, _ := spinner.Start("Removing guidescan data...")
	stop := func() {
		if spinnerInstance != nil {
			_ = spinnerInstance.Stop()
		}
	}

	if opts.Cache {
		if cache == nil {
			stop()
			fmt.Fprintln(out, lipgloss.Yellow.Render("No extraction cache to remove."))
		} else {
			removed, err := cache.Clear()
			if err != nil {
				stop()
				return fmt.Errorf("error clearing cache: %w", err)
			}
			cache.ResetPerformanceStats()
			stop()
			fmt.Fprintln(out, lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d cache entries.", removed)))
		}
	}

	if opts.Expired > 0 && !opts.Cache && cache != nil {
		removed, err := cache.CleanExpired(opts.Expired)
		stop()
		if err != nil {
			return fmt.Errorf("error cleaning expired cache entries: %w", err)
		}
		fmt.Fprintln(out, lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d expired cache entries.", removed)))
	}

	if opts.Logs {
		removed, err := composer.ClearInputLogs(root)
		stop()
		if err != nil {
			return fmt.Errorf("error removing input logs: %w", err)
		}
		fmt.Fprintln(out, lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d input log directories.", removed)))
	}
	return nil
}

func printCacheStats(cache *guidance.CacheManager, out io.Writer) error {
	fmt.Fprintln(out, lipgloss.Info.Render("Cache Statistics:"))
	if cache == nil {
		fmt.Fprintln(out, "  Cache is disabled or empty")
		return nil
	}

	stats, err := cache.GetCacheStats()
	if err != nil {
		return fmt.Errorf("could not read cache statistics: %w", err)
	}
	if dir, ok := stats["cache_dir"].(string); ok {
		fmt.Fprintf(out, "  Cache Directory: %s\n", dir)
	}
	if files, ok := stats["cache_files"].(int); ok {
		fmt.Fprintf(out, "  Cached Files: %d\n", files)
	}
	if entries, ok := stats["guidance_entries"].(int); ok {
		fmt.Fprintf(out, "  With Guidance: %d\n", entries)
	}
	if size, ok := stats["total_size_mb"].(float64); ok {
		fmt.Fprintf(out, "  Total Size: %.2f MB\n", size)
	}
	return nil
}
