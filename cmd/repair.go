package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	repairDiagnose    bool
	repairDiff        bool
	repairUnify       bool
	repairClearLegacy bool
	repairYes         bool
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Diagnose and unify the two overlay generations",
	Long: `Custom prompts live in two generations of the overlay: the legacy
customPrompts blob and the current customPromptData blob. Every run
reconciles them; repair audits what is left and can migrate legacy-only
prompts into the current generation.

Examples:
  promptlib repair                      # Same as --diagnose
  promptlib repair --diagnose --diff    # Show a diff per mismatching prompt
  promptlib repair --unify --clear-legacy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		out := cmd.OutOrStdout()
		if repairUnify {
			if repairClearLegacy && !repairYes && !confirm(cmd, "Remove the legacy generation after migrating?") {
				fmt.Fprintln(out, "Aborted")
				return nil
			}
			res, err := lib.Repair().Unify(repairClearLegacy)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Migrated %d prompt(s)", len(res.Migrated))
			if len(res.Migrated) > 0 {
				fmt.Fprintf(out, ": %s", strings.Join(res.Migrated, ", "))
			}
			fmt.Fprintln(out)
			if len(res.Skipped) > 0 {
				fmt.Fprintf(out, "Already current: %s\n", strings.Join(res.Skipped, ", "))
			}
			if res.ClearedLegacy {
				fmt.Fprintln(out, "Legacy generation removed")
			}
			return nil
		}
		if repairClearLegacy {
			return fmt.Errorf("--clear-legacy requires --unify")
		}

		rep, err := lib.Repair().Diagnose()
		if err != nil {
			return err
		}
		displayReport(out, rep, repairDiff)
		return nil
	},
}

func displayReport(out io.Writer, rep *internal.Report, withDiff bool) {
	fmt.Fprintln(out, sectionStyle.Render("Overlay"))
	fmt.Fprintf(out, "  Legacy prompts:   %d\n", rep.LegacyCount)
	fmt.Fprintf(out, "  Current prompts:  %d\n", rep.CurrentCount)
	fmt.Fprintf(out, "  Legacy records:   %d\n", rep.LegacyRecordCount)
	fmt.Fprintf(out, "  Registered tags:  %d\n", rep.TagOrderCount)
	fmt.Fprintf(out, "  Personal tags:    %d\n", rep.PersonalTagCount)

	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Render("Generations"))
	listIDs(out, "In both", rep.Overlapping)
	listIDs(out, "Legacy only", rep.LegacyOnly)
	listIDs(out, "Current only", rep.CurrentOnly)
	if rep.Redundant() {
		fmt.Fprintln(out, warningStyle.Render("  ⚠ Some prompts are stored twice; run repair --unify --clear-legacy"))
	}

	if len(rep.Mismatches) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, sectionStyle.Render("Mismatches"))
		for _, m := range rep.Mismatches {
			fmt.Fprintf(out, "  %s %s: legacy=%q current=%q\n", idStyle.Render(m.ID), m.Field, m.Legacy, m.Current)
		}
		if withDiff {
			ids := make([]string, 0, len(rep.Diffs))
			for id := range rep.Diffs {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintln(out)
				fmt.Fprint(out, rep.Diffs[id])
			}
		}
	}

	if len(rep.IncompleteCustom) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, errorStyle.Render("  ✗ Incomplete custom prompts: "+strings.Join(rep.IncompleteCustom, ", ")))
	}

	if len(rep.Sizes) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, sectionStyle.Render("Store keys"))
		keys := make([]string, 0, len(rep.Sizes))
		for k := range rep.Sizes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-28s %s\n", k, formatBytes(rep.Sizes[k]))
		}
	}
}

func listIDs(out io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		fmt.Fprintf(out, "  %-14s -\n", label+":")
		return
	}
	fmt.Fprintf(out, "  %-14s %s\n", label+":", strings.Join(ids, ", "))
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func init() {
	rootCmd.AddCommand(repairCmd)
	repairCmd.Flags().BoolVar(&repairDiagnose, "diagnose", false, "Audit the overlay without changing it (default)")
	repairCmd.Flags().BoolVar(&repairDiff, "diff", false, "Show a unified diff per mismatching prompt")
	repairCmd.Flags().BoolVar(&repairUnify, "unify", false, "Migrate legacy-only prompts into the current generation")
	repairCmd.Flags().BoolVar(&repairClearLegacy, "clear-legacy", false, "Remove the legacy generation after --unify")
	repairCmd.Flags().BoolVarP(&repairYes, "yes", "y", false, "Do not ask for confirmation")
}
