package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	clearLegacy       bool
	clearCurrent      bool
	clearPersonalTags bool
	clearAll          bool
	clearYes          bool
	clearNoBackup     bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove overlay data",
	Long: `Remove parts of the overlay. Exactly one of the flags is required.

  --legacy          the legacy customPrompts generation
  --current         the current customPromptData generation
  --personal-tags   the old personal tag list
  --all             every overlay key; the tag registry goes back to the
                    baseline tags. A backup is saved first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := 0
		for _, b := range []bool{clearLegacy, clearCurrent, clearPersonalTags, clearAll} {
			if b {
				selected++
			}
		}
		if selected != 1 {
			return fmt.Errorf("specify exactly one of --legacy, --current, --personal-tags, --all")
		}

		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		out := cmd.OutOrStdout()
		switch {
		case clearLegacy:
			err = lib.ClearLegacy()
		case clearCurrent:
			err = lib.ClearCurrent()
		case clearPersonalTags:
			err = lib.ClearPersonalTags()
		case clearAll:
			if !clearYes && !confirm(cmd, "Remove every custom prompt, override and tag?") {
				fmt.Fprintln(out, "Aborted")
				return nil
			}
			if !clearNoBackup {
				if err := saveBackup(cmd, lib, "clear"); err != nil {
					return fmt.Errorf("backup failed, nothing cleared: %w", err)
				}
			}
			err = lib.ClearAll()
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearLegacy, "legacy", false, "Remove the legacy generation")
	clearCmd.Flags().BoolVar(&clearCurrent, "current", false, "Remove the current generation")
	clearCmd.Flags().BoolVar(&clearPersonalTags, "personal-tags", false, "Remove the personal tag list")
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Remove every overlay key")
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Do not ask for confirmation")
	clearCmd.Flags().BoolVar(&clearNoBackup, "no-backup", false, "Do not save a backup before --all")
}
