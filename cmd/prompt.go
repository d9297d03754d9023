package cmd

import (
	"fmt"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	createID          string
	createTitle       string
	createAuthor      string
	createTag         string
	createDescription string
	createContent     string
	createFile        string

	editVersion     string
	editTitle       string
	editAuthor      string
	editTag         string
	editDraft       bool
	editName        string
	editDescription string
	editContent     string
	editFile        string
	editActivate    bool

	deleteYes bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a custom prompt",
	Long: `Create a custom prompt with a single version v1. The tag is registered
when it is new.

Examples:
  promptlib create --id my-prompt --title "My prompt" --author me --tag work --content "..."
  promptlib create --id my-prompt --title "My prompt" --author me --tag work --file prompt.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(cmd, createContent, createFile)
		if err != nil {
			return err
		}

		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		p, err := lib.CreatePrompt(internal.NewPrompt{
			ID:          createID,
			Title:       createTitle,
			Author:      createAuthor,
			Tag:         createTag,
			Description: createDescription,
			Content:     content,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s (%s)\n", p.ID, p.ActiveVersion)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a prompt",
	Long: `Edit the metadata of a prompt and the fields of one of its versions.
Only the flags that are given change anything. Editing a baseline prompt
stores an override; the baseline itself is never modified.

Examples:
  promptlib edit my-prompt --title "Better title"
  promptlib edit my-prompt --version v2 --content "..." --activate
  promptlib edit my-prompt --draft=true`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		id := args[0]
		if _, err := lib.Prompt(id); err != nil {
			return err
		}

		flags := cmd.Flags()
		var content *string
		if flags.Changed("content") || flags.Changed("file") {
			c, err := readContent(cmd, editContent, editFile)
			if err != nil {
				return err
			}
			content = &c
		}

		// a version other than the active one is edited in a single update
		// so the active pointer stays where it is
		if editVersion != "" && !editActivate {
			u := internal.PromptUpdate{Version: editVersion, Content: content}
			if flags.Changed("title") {
				u.DisplayTitle = &editTitle
			}
			if flags.Changed("author") {
				u.Author = &editAuthor
			}
			if flags.Changed("tag") {
				u.Tag = &editTag
			}
			if flags.Changed("draft") {
				u.Draft = &editDraft
			}
			if flags.Changed("name") {
				u.Name = &editName
			}
			if flags.Changed("description") {
				u.Description = &editDescription
			}
			if u.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
				return nil
			}
			if err := lib.UpdatePrompt(id, u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s (%s)\n", id, editVersion)
			return nil
		}

		session := lib.Edit(id, cfg.AutosaveDelay)
		session.OnSave(func(id string, err error) {
			if err == nil {
				internal.LogDebug("Autosaved %s", id)
			}
		})
		if editVersion != "" {
			if err := session.SelectVersion(editVersion); err != nil {
				return err
			}
		}
		if flags.Changed("title") {
			session.SetTitle(editTitle)
		}
		if flags.Changed("author") {
			session.SetAuthor(editAuthor)
		}
		if flags.Changed("tag") {
			session.SetTag(editTag)
		}
		if flags.Changed("draft") {
			session.SetDraft(editDraft)
		}
		if flags.Changed("name") {
			session.SetName(editName)
		}
		if flags.Changed("description") {
			session.SetDescription(editDescription)
		}
		if content != nil {
			session.SetContent(*content)
		}
		if !session.Changed() {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
			return nil
		}
		if err := session.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s\n", id)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Reset a baseline prompt",
	Long: `Remove every overlay entry of a baseline prompt so that it goes back to
its baseline definition. Use delete for custom prompts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		if err := lib.ResetPrompt(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Reset %s\n", args[0])
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		if !deleteYes && !confirm(cmd, fmt.Sprintf("Delete %s?", args[0])) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
		if err := lib.DeletePrompt(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(deleteCmd)

	createCmd.Flags().StringVar(&createID, "id", "", "Prompt id (lowercase letters, digits and hyphens)")
	createCmd.Flags().StringVar(&createTitle, "title", "", "Display title")
	createCmd.Flags().StringVar(&createAuthor, "author", "", "Author")
	createCmd.Flags().StringVar(&createTag, "tag", "", "Tag")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Description of v1")
	createCmd.Flags().StringVar(&createContent, "content", "", "Content of v1")
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "Read the content from a file (- for stdin)")

	editCmd.Flags().StringVar(&editVersion, "version", "", "Version to edit (default: the active one)")
	editCmd.Flags().BoolVar(&editActivate, "activate", false, "Make --version the active version")
	editCmd.Flags().StringVar(&editTitle, "title", "", "Display title")
	editCmd.Flags().StringVar(&editAuthor, "author", "", "Author")
	editCmd.Flags().StringVar(&editTag, "tag", "", "Tag")
	editCmd.Flags().BoolVar(&editDraft, "draft", false, "Draft flag")
	editCmd.Flags().StringVar(&editName, "name", "", "Version name")
	editCmd.Flags().StringVar(&editDescription, "description", "", "Version description")
	editCmd.Flags().StringVar(&editContent, "content", "", "Version content")
	editCmd.Flags().StringVarP(&editFile, "file", "f", "", "Read the version content from a file (- for stdin)")

	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Do not ask for confirmation")
}
