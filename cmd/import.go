package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	importYes      bool
	importNoBackup bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a library document",
	Long: `Validate a YAML or JSON library document and reset the overlay to it.

Every overlay key is cleared and the tag registry is re-seeded from the
document's tag order. The prompts of the document are not loaded into the
overlay: the document is meant to become the new baseline, so copy it over
data.yml afterwards. A backup of the current library is saved first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		var backupErr error
		res, err := lib.ImportFile(args[0], func(doc *internal.Document) bool {
			if !importYes {
				fmt.Fprintf(cmd.OutOrStdout(), "Document has %d prompt(s) and tags: %s\n",
					len(doc.Order), strings.Join(doc.Metadata.TagOrder, ", "))
				if !confirm(cmd, "Clear the overlay and import this document?") {
					return false
				}
			}
			if !importNoBackup {
				backupErr = saveBackup(cmd, lib, "import")
			}
			return backupErr == nil
		})
		if backupErr != nil {
			return fmt.Errorf("backup failed, nothing imported: %w", backupErr)
		}
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Imported %d prompt(s)\n", res.Prompts)
		if len(res.PersonalTags) > 0 {
			fmt.Fprintf(out, "Personal tags: %s\n", strings.Join(res.PersonalTags, ", "))
		}
		fmt.Fprintf(out, "Replace %s with %s to use the imported prompts\n", cfg.Baseline, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "Do not ask for confirmation")
	importCmd.Flags().BoolVar(&importNoBackup, "no-backup", false, "Do not save a backup before importing")
}
