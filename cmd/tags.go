package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var tagsCleanYes bool

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage the tag registry",
	Long: `List, add, rename, remove and reorder tags. The registry order is the
order in which prompt groups are listed.`,
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags with their usage counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		r, err := lib.Resolver()
		if err != nil {
			return err
		}
		counts := r.UsageCounts()
		out := cmd.OutOrStdout()
		for i, tag := range lib.Tags().Tags() {
			fmt.Fprintf(out, "%2d. %s %s\n", i+1, tagStyle.Render(tag), countStyle.Render(fmt.Sprintf("(%d)", counts[tag])))
		}
		return nil
	},
}

var tagsAddCmd = &cobra.Command{
	Use:   "add <tag>",
	Short: "Register a tag",
	Args:  cobra.ExactArgs(1),
	RunE: tagsAction(func(t *internal.TagRegistry, args []string) (string, error) {
		return fmt.Sprintf("✓ Added %s", args[0]), t.Add(args[0])
	}),
}

var tagsRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a tag and retag every prompt using it",
	Args:  cobra.ExactArgs(2),
	RunE: tagsAction(func(t *internal.TagRegistry, args []string) (string, error) {
		return fmt.Sprintf("✓ Renamed %s to %s", args[0], args[1]), t.Rename(args[0], args[1])
	}),
}

var tagsRemoveCmd = &cobra.Command{
	Use:   "remove <tag>",
	Short: "Remove an unused tag",
	Args:  cobra.ExactArgs(1),
	RunE: tagsAction(func(t *internal.TagRegistry, args []string) (string, error) {
		return fmt.Sprintf("✓ Removed %s", args[0]), t.Remove(args[0])
	}),
}

var tagsUpCmd = &cobra.Command{
	Use:   "up <tag>",
	Short: "Move a tag one position up",
	Args:  cobra.ExactArgs(1),
	RunE: tagsAction(func(t *internal.TagRegistry, args []string) (string, error) {
		return fmt.Sprintf("✓ Moved %s up", args[0]), t.Reorder(args[0], internal.Up)
	}),
}

var tagsDownCmd = &cobra.Command{
	Use:   "down <tag>",
	Short: "Move a tag one position down",
	Args:  cobra.ExactArgs(1),
	RunE: tagsAction(func(t *internal.TagRegistry, args []string) (string, error) {
		return fmt.Sprintf("✓ Moved %s down", args[0]), t.Reorder(args[0], internal.Down)
	}),
}

var tagsCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every tag no prompt uses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		removed, err := lib.Tags().CleanUnused(func(unused []string) bool {
			if tagsCleanYes {
				return true
			}
			return confirm(cmd, fmt.Sprintf("Remove %d unused tag(s): %s?", len(unused), strings.Join(unused, ", ")))
		})
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tags removed")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", strings.Join(removed, ", "))
		return nil
	},
}

// tagsAction opens the library and runs fn against its tag registry
func tagsAction(fn func(*internal.TagRegistry, []string) (string, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		msg, err := fn(lib.Tags(), args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	}
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsListCmd, tagsAddCmd, tagsRenameCmd, tagsRemoveCmd, tagsUpCmd, tagsDownCmd, tagsCleanCmd)

	tagsCleanCmd.Flags().BoolVarP(&tagsCleanYes, "yes", "y", false, "Do not ask for confirmation")
}
