package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	backupsKeep       int
	backupsRestoreYes bool
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Manage library backups",
	Long: `Backups are YAML exports of the effective library saved next to the
store before destructive operations (import, clear --all). Restoring a
backup imports it like promptlib import.`,
}

var backupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bm := backupManager()
		index, err := bm.LoadIndex()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(index.Backups) == 0 {
			fmt.Fprintln(out, "No backups in", bm.Dir())
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		for _, b := range index.Backups {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d prompt(s)\t%d tag(s)\t%s\n",
				idStyle.Render(b.File), b.Reason, b.Prompts, b.Tags, dateStyle.Render(b.CreatedAt.Format("2006-01-02 15:04:05")))
		}
		return w.Flush()
	},
}

var backupsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a backup now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()
		return saveBackup(cmd, lib, "manual")
	},
}

var backupsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest backups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := backupManager().Prune(backupsKeep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d backup(s)\n", removed)
		return nil
	},
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Import a backup (default: the newest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bm := backupManager()
		var file string
		if len(args) == 1 {
			file = args[0]
		} else {
			latest, ok, err := bm.Latest()
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no backups in %s", bm.Dir())
			}
			file = latest.File
		}
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(bm.Dir(), file)
		}

		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		res, err := lib.ImportFile(path, func(doc *internal.Document) bool {
			return backupsRestoreYes || confirm(cmd, fmt.Sprintf("Restore %s (%d prompt(s))?", file, len(doc.Order)))
		})
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Restored %s\n", file)
		return nil
	},
}

// saveBackup exports the library into the backup directory
func saveBackup(cmd *cobra.Command, lib *internal.Library, reason string) error {
	doc, err := lib.Export()
	if err != nil {
		return err
	}
	entry, err := backupManager().Save(doc, reason, cfg.Store)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved backup %s\n", entry.File)
	return nil
}

func init() {
	rootCmd.AddCommand(backupsCmd)
	backupsCmd.AddCommand(backupsListCmd, backupsSaveCmd, backupsPruneCmd, backupsRestoreCmd)

	backupsPruneCmd.Flags().IntVar(&backupsKeep, "keep", 5, "Number of backups to keep")
	backupsRestoreCmd.Flags().BoolVarP(&backupsRestoreYes, "yes", "y", false, "Do not ask for confirmation")
}
