package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/iksnae/promptlib/internal"
)

// MarkdownExporter exports the listable prompts grouped by tag
type MarkdownExporter struct{}

// Export exports a document to Markdown format
func (e *MarkdownExporter) Export(doc *internal.Document, w io.Writer) error {
	byTag := make(map[string][]*internal.EffectivePrompt)
	total := 0
	for _, p := range effectivePrompts(doc) {
		if p.Draft {
			continue
		}
		byTag[p.Tag] = append(byTag[p.Tag], p)
		total++
	}

	_, _ = fmt.Fprintf(w, "# Prompt Library\n\n")
	_, _ = fmt.Fprintf(w, "**Prompts:** %d\n\n", total)

	for _, tag := range tagOrder(doc, byTag) {
		label := tag
		if label == "" {
			label = "Untagged"
		}
		_, _ = fmt.Fprintf(w, "---\n\n## %s\n\n", label)

		for _, p := range byTag[tag] {
			_, _ = fmt.Fprintf(w, "### %s\n\n", p.Title)
			_, _ = fmt.Fprintf(w, "**ID:** %s  \n", p.ID)
			if p.Author != "" {
				_, _ = fmt.Fprintf(w, "**Author:** %s  \n", p.Author)
			}
			_, _ = fmt.Fprintf(w, "**Version:** %s\n\n", p.ActiveVersion)
			_, _ = fmt.Fprintf(w, "%s\n\n", escapeMarkdown(p.Content))
		}
	}

	return nil
}

// tagOrder returns the tags in use: the document's order first, the rest sorted
func tagOrder(doc *internal.Document, byTag map[string][]*internal.EffectivePrompt) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, tag := range doc.Metadata.TagOrder {
		if len(byTag[tag]) > 0 && !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	var rest []string
	for tag := range byTag {
		if !seen[tag] {
			rest = append(rest, tag)
		}
	}
	sort.Strings(rest)
	return append(tags, rest...)
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			if strings.HasPrefix(line, "#") {
				line = "\\" + line
			}
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
