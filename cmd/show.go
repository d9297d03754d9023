package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	showVersion string
	showRaw     bool
)

var (
	contentStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("240")).
			PaddingLeft(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a prompt",
	Long: `Show the effective view of a prompt: its metadata, its versions and the
content of the active version, or of --version when given.

With --raw only the content is printed, suitable for piping.`,
	Args: cobra.ExactArgs(1),
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

		vid := p.ActiveVersion
		if showVersion != "" {
			vid = showVersion
		}
		v, ok := p.Versions[vid]
		if !ok {
			return &internal.UnknownVersionError{PromptID: p.ID, VersionID: vid}
		}

		out := cmd.OutOrStdout()
		if showRaw {
			_, err := io.WriteString(out, v.Content)
			return err
		}
		displayPrompt(out, lib, p, vid, v)
		return nil
	},
}

func displayPrompt(out io.Writer, lib *internal.Library, p *internal.EffectivePrompt, vid string, v internal.Version) {
	fmt.Fprintln(out, titleStyle.Render(p.Title))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("ID:     "), idStyle.Render(p.ID))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Tag:    "), tagStyle.Render(p.Tag))
	if p.Author != "" {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Author: "), p.Author)
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Source: "), sourceLabel(p.Source))
	if p.Draft {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Draft:  "), "yes")
	}

	if ids, err := lib.Versions().ListVersions(p.ID); err == nil {
		fmt.Fprintf(out, "%s", labelStyle.Render("Versions:"))
		for _, id := range ids {
			switch {
			case id == vid && id == p.ActiveVersion:
				fmt.Fprintf(out, " %s", countStyle.Render(id+"*"))
			case id == vid:
				fmt.Fprintf(out, " %s", countStyle.Render(id))
			case id == p.ActiveVersion:
				fmt.Fprintf(out, " %s*", id)
			default:
				fmt.Fprintf(out, " %s", id)
			}
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	if v.Name != "" {
		fmt.Fprintln(out, headerStyle.Render(v.Name))
	}
	if v.Description != "" {
		fmt.Fprintln(out, dateStyle.Render(v.Description))
	}
	fmt.Fprintln(out, contentStyle.Render(v.Content))
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVar(&showVersion, "version", "", "Show this version instead of the active one")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print only the content")
}
