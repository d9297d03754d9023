package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/promptlib/internal"
	"github.com/iksnae/promptlib/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOut    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the effective library",
	Long: `Export the baseline with the overlay applied as a single document.

Formats:
  yaml    The baseline document format; can be imported or used as data.yml
  json    The same document as JSON
  jsonl   One resolved prompt per line
  md      Markdown grouped by tag

Examples:
  promptlib export                            # YAML on stdout
  promptlib export --format md --out library.md
  promptlib export --out ./exports            # Writes ./exports/prompts.yml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		lib, closeLib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer closeLib()

		doc, err := lib.Export()
		if err != nil {
			return fmt.Errorf("failed to build export: %w", err)
		}

		if exportOut == "" || exportOut == "-" {
			return exporter.Export(doc, cmd.OutOrStdout())
		}

		path := exportOut
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, "prompts."+exporter.Extension())
		}
		if err := writeExport(exporter, doc, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d prompt(s) to %s\n", len(doc.Order), path)
		return nil
	},
}

func writeExport(exporter export.Exporter, doc *internal.Document, path string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return exporter.Export(doc, f)
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Export format (yaml, json, jsonl, md)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file or directory (default: stdout)")
}
