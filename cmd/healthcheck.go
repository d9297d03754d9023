package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the baseline and the store are usable",
	Long: `Check the health of the prompt library by verifying:
  • Path resolution for the baseline and the store
  • Baseline parsing and validation
  • Store accessibility
  • Overlay consistency

This command is useful for debugging a library that does not list what you expect.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Prompt Library Health Check"))
		fmt.Fprintln(out)

		// Step 1: Resolve paths
		fmt.Fprintln(out, infoStyle.Render("Step 1: Resolving paths..."))
		paths := internal.DetectPaths(cfg)
		fmt.Fprintln(out, successStyle.Render("✅ Paths resolved"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Baseline: %s\n", paths.Baseline)
			fmt.Fprintf(out, "   Store:    %s\n", paths.Store)
			fmt.Fprintf(out, "   Backups:  %s\n", paths.Backups)
		}
		fmt.Fprintln(out)

		// Step 2: Baseline
		fmt.Fprintln(out, infoStyle.Render("Step 2: Loading baseline..."))
		var catalog *internal.Catalog
		if !paths.BaselineExists() {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Baseline not found, only custom prompts will be listed"))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Expected: %s\n", paths.Baseline)
			}
		} else {
			var err error
			catalog, err = internal.LoadBaselineFile(paths.Baseline)
			if err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Baseline is invalid:"), err)
				catalog = nil
			} else {
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Baseline loaded: %d prompt(s)", catalog.Len())))
				if len(catalog.Skipped) > 0 {
					fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d prompt(s) skipped", len(catalog.Skipped))))
					if healthcheckVerbose {
						for _, s := range catalog.Skipped {
							fmt.Fprintf(out, "   %s: %s\n", s.ID, s.Reason)
						}
					}
				}
			}
		}
		fmt.Fprintln(out)

		// Step 3: Store
		fmt.Fprintln(out, infoStyle.Render("Step 3: Opening store..."))
		if !paths.StoreExists() && paths.Store != ":memory:" {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Store does not exist yet, it will be created"))
			if err := paths.EnsureStoreDir(); err != nil {
				fmt.Fprintln(out, errorStyle.Render("❌ Cannot create store directory:"), err)
				return fmt.Errorf("healthcheck failed: store directory unavailable")
			}
		}
		storage, err := internal.OpenStorage(paths.Store, cfg.OpenRetries)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open store:"), err)
			return fmt.Errorf("healthcheck failed: store unavailable")
		}
		defer func() { _ = storage.Close() }()
		fmt.Fprintln(out, successStyle.Render("✅ Store opened"))
		fmt.Fprintln(out)

		// Step 4: Overlay
		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking overlay..."))
		lib, err := internal.NewLibrary(catalog, storage, cfg.LibraryOptions())
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Overlay is unreadable:"), err)
			return fmt.Errorf("healthcheck failed: overlay unreadable")
		}
		stats, err := lib.Stats()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d custom prompt(s), %d override(s), %d tag(s)",
			stats.CustomPrompts, stats.Overrides, stats.Tags)))
		rep, err := lib.Repair().Diagnose()
		if err != nil {
			return err
		}
		if rep.Redundant() {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d prompt(s) stored in both generations", len(rep.Overlapping))))
		}
		if len(rep.IncompleteCustom) > 0 {
			fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d incomplete custom prompt(s)", len(rep.IncompleteCustom))))
		}
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Legacy prompts:  %d\n", stats.LegacyPrompts)
			fmt.Fprintf(out, "   Current prompts: %d\n", stats.CurrentPrompts)
			fmt.Fprintf(out, "   Legacy records:  %d\n", stats.LegacyRecords)
			fmt.Fprintf(out, "   Personal tags:   %d\n", stats.PersonalTags)
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, successStyle.Render("✅ Health check passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "V", false, "Show detailed information")
}
