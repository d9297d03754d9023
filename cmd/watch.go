package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var watchDelay time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the baseline whenever it changes",
	Long: `Watch the baseline document and re-list the library each time it is
saved. Parse errors are reported and the last good baseline is kept.
Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, storage, err := loadLibrary(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = storage.Close() }()

		out := cmd.OutOrStdout()

		show := func(l *internal.Library) {
			groups, err := l.Grouped()
			if err != nil {
				internal.PrintError(err.Error())
				return
			}
			displayGroups(out, groups)
		}
		show(lib)

		watcher, err := internal.NewBaselineWatcher(cfg.Baseline, watchDelay, func(cat *internal.Catalog, err error) {
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Baseline reload failed:"), err)
				return
			}
			reloaded, err := internal.NewLibrary(cat, storage, cfg.LibraryOptions())
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Overlay reconcile failed:"), err)
				return
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("🔄 Baseline reloaded at %s", time.Now().Format("15:04:05"))))
			show(reloaded)
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintln(out, dateStyle.Render(fmt.Sprintf("Watching %s (Ctrl+C to stop)", cfg.Baseline)))
		return watcher.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 300*time.Millisecond, "Quiet period before reloading")
}
