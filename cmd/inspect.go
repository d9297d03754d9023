package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/promptlib/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat  string
	inspectPreview int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [key...]",
	Short: "Inspect the raw keys of the store",
	Long: `Inspect the raw key/value pairs of the overlay store.

Without arguments every key is listed with its size and a preview of its
value. With keys, their values are printed in full, JSON values indented.

Examples:
  promptlib inspect                         # List every key
  promptlib inspect customPromptData        # Print one value
  promptlib inspect --format json           # Every key as one JSON object`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, err := internal.OpenStorage(cfg.Store, cfg.OpenRetries)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() { _ = storage.Close() }()

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			for _, key := range args {
				value, ok, err := storage.Get(key)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("key %s not found", key)
				}
				if len(args) > 1 {
					fmt.Fprintf(out, "📦 %s\n", key)
				}
				fmt.Fprintln(out, indentJSON(value))
			}
			return nil
		}

		pairs, err := storage.Scan("")
		if err != nil {
			return err
		}
		switch inspectFormat {
		case "json":
			return inspectJSON(out, pairs)
		case "text":
			inspectText(out, pairs)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	},
}

func inspectText(out io.Writer, pairs []internal.KeyValuePair) {
	if len(pairs) == 0 {
		fmt.Fprintln(out, "⚠️  Store is empty")
		return
	}

	fmt.Fprintf(out, "📋 Store: %s\n", cfg.Store)
	fmt.Fprintf(out, "📊 Found %d key(s)\n\n", len(pairs))
	for _, p := range pairs {
		fmt.Fprintf(out, "  • %s (%s)\n", idStyle.Render(p.Key), formatBytes(len(p.Value)))
		if inspectPreview <= 0 {
			continue
		}
		preview := p.Value
		if i := strings.IndexByte(preview, '\n'); i >= 0 {
			preview = preview[:i] + "..."
		}
		if len([]rune(preview)) > inspectPreview {
			preview = string([]rune(preview)[:inspectPreview]) + "..."
		}
		fmt.Fprintf(out, "    %s\n", dateStyle.Render(preview))
	}
}

func inspectJSON(out io.Writer, pairs []internal.KeyValuePair) error {
	values := make(map[string]json.RawMessage, len(pairs))
	for _, p := range pairs {
		if json.Valid([]byte(p.Value)) {
			values[p.Key] = json.RawMessage(p.Value)
			continue
		}
		quoted, err := json.Marshal(p.Value)
		if err != nil {
			return err
		}
		values[p.Key] = quoted
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(values)
}

// indentJSON indents value when it is JSON and returns it unchanged otherwise
func indentJSON(value string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(value), "", "  "); err != nil {
		return value
	}
	return buf.String()
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectPreview, "preview", 80, "Characters of each value to preview (0 disables)")
}
