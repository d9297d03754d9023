package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	listTag string
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts grouped by tag",
	Long: `List every non-draft prompt of the effective library, grouped by tag in
registry order. Custom prompts and overridden baseline prompts are marked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		groups, err := lib.Grouped()
		if err != nil {
			return fmt.Errorf("failed to list prompts: %w", err)
		}
		if listTag != "" {
			filtered := groups[:0]
			for _, g := range groups {
				if g.Tag == listTag {
					filtered = append(filtered, g)
				}
			}
			groups = filtered
		}

		displayGroups(cmd.OutOrStdout(), groups)
		return nil
	},
}

func displayGroups(out io.Writer, groups []internal.TagGroup) {
	total := 0
	for _, g := range groups {
		total += len(g.Prompts)
	}
	if total == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No prompts found"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d prompt(s)", total)))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, g := range groups {
		tag := g.Tag
		if tag == "" {
			tag = "Untagged"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t\t\t\t\n", tagStyle.Render(tag), countStyle.Render(fmt.Sprintf("(%d)", len(g.Prompts))))
		for _, p := range g.Prompts {
			title := p.Title
			if len([]rune(title)) > 50 {
				title = string([]rune(title)[:47]) + "..."
			}
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t\n",
				idStyle.Render(p.ID), title, dateStyle.Render(p.ActiveVersion), sourceLabel(p.Source))
		}
	}
	_ = w.Flush()

	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use `promptlib show <id>` to read a prompt"))
}

func sourceLabel(source internal.PromptSource) string {
	switch source {
	case internal.SourceCustom:
		return countStyle.Render("custom")
	case internal.SourceOverridden:
		return titleStyle.Render("edited")
	default:
		return dateStyle.Render("baseline")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listTag, "tag", "", "Only list prompts with this tag")
}
