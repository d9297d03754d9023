package cmd

import (
	"fmt"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	versionID          string
	versionName        string
	versionDescription string
	versionContent     string
	versionFile        string
	versionActivate    bool
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage the versions of a prompt",
	Long: `List, add, delete and activate versions of a prompt.

Version v1 is the base version and cannot be deleted, and a prompt always
keeps at least one version.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list <id>",
	Short: "List versions in display order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		p, err := lib.Prompt(args[0])
		if err != nil {
			return err
		}
		ids, err := lib.Versions().ListVersions(p.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, id := range ids {
			v := p.Versions[id]
			marker := " "
			if id == p.ActiveVersion {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\t%s\t%s\n", marker, idStyle.Render(id), v.Name, dateStyle.Render(v.Description))
		}
		return nil
	},
}

var versionsAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a version",
	Long: `Add a version to a prompt. Without --vid the next free vN is used.

Examples:
  promptlib versions add my-prompt --name "Shorter" --content "..."
  promptlib versions add my-prompt --vid v5 --name "Draft" --file v5.txt --activate`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(cmd, versionContent, versionFile)
		if err != nil {
			return err
		}

		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		vid, err := lib.Versions().AddVersion(args[0], versionID, internal.Version{
			Name:        versionName,
			Description: versionDescription,
			Content:     content,
		}, internal.AddVersionOptions{SetActive: versionActivate})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s to %s\n", vid, args[0])
		return nil
	},
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete <id> <version>",
	Short: "Delete a version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		res, err := lib.Versions().DeleteVersion(args[0], args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Deleted %s from %s\n", res.Deleted, args[0])
		if res.ActiveReset {
			fmt.Fprintf(out, "Active version is now %s\n", res.NewActive)
		}
		return nil
	},
}

var versionsActivateCmd = &cobra.Command{
	Use:   "activate <id> <version>",
	Short: "Make a version the active one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		if err := lib.Versions().SetActiveVersion(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now active for %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsAddCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
	versionsCmd.AddCommand(versionsActivateCmd)

	versionsAddCmd.Flags().StringVar(&versionID, "vid", "", "Version id (default: next free vN)")
	versionsAddCmd.Flags().StringVar(&versionName, "name", "", "Version name")
	versionsAddCmd.Flags().StringVar(&versionDescription, "description", "", "Version description")
	versionsAddCmd.Flags().StringVar(&versionContent, "content", "", "Version content")
	versionsAddCmd.Flags().StringVarP(&versionFile, "file", "f", "", "Read the content from a file (- for stdin)")
	versionsAddCmd.Flags().BoolVar(&versionActivate, "activate", false, "Make the new version active")
}
